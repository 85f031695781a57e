//go:build !linux

package registry

import "github.com/altsen/autoscorer-sub000/pkg/apierrors"

func init() {
	loadPlugin = loadPluginUnsupported
}

func loadPluginUnsupported(path string) ([]Implementation, *apierrors.Error) {
	return nil, apierrors.Newf(apierrors.CodeParseError, "dynamic scorer loading from %q is unsupported on this platform (Go plugin support is linux-only)", path)
}
