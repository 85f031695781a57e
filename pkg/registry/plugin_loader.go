//go:build linux

package registry

import (
	"plugin"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// NewScorersSymbol is the exported plugin symbol convention: a plugin
// built with `go build -buildmode=plugin` must export a zero-argument
// function with this name returning []Implementation.
const NewScorersSymbol = "NewScorers"

func init() {
	loadPlugin = loadPluginLinux
}

// loadPluginLinux opens a .so built with -buildmode=plugin and calls its
// NewScorers() []Implementation export. Go provides no safe way to unload a
// plugin, so reload opens a *new* handle each time and leaks the old one --
// documented in spec.md §9's hot-reload re-architecture note.
func loadPluginLinux(path string) ([]Implementation, *apierrors.Error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, apierrors.Newf(apierrors.CodeParseError, "failed to open scorer plugin %q", path).WithError(err)
	}
	sym, err := p.Lookup(NewScorersSymbol)
	if err != nil {
		return nil, apierrors.Newf(apierrors.CodeParseError, "plugin %q does not export %s", path, NewScorersSymbol).WithError(err)
	}
	factory, ok := sym.(func() []Implementation)
	if !ok {
		return nil, apierrors.Newf(apierrors.CodeParseError, "plugin %q's %s has the wrong signature", path, NewScorersSymbol)
	}
	impls := factory()
	if len(impls) == 0 {
		return nil, apierrors.Newf(apierrors.CodeParseError, "plugin %q registered no scorer implementations", path)
	}
	return impls, nil
}
