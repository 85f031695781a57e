package registry

import (
	"os"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/metrics"
)

// loadPlugin is installed by the platform-specific plugin_loader file.
var loadPlugin func(path string) ([]Implementation, *apierrors.Error)

// LoadFile dynamically loads scorer implementations from path, registers
// each, records sourceFile/mtime, and optionally starts a background
// poller for this file (spec.md §4.2).
func (r *Registry) LoadFile(path string, watch bool, interval time.Duration) (map[string]Implementation, *apierrors.Error) {
	impls, loadErr, mtime := r.loadFileOnce(path)
	if loadErr != nil {
		return nil, loadErr
	}

	if watch {
		r.Watch(path, interval)
	}

	out := make(map[string]Implementation, len(impls))
	for _, impl := range impls {
		out[impl.Name()] = impl
	}
	_ = mtime
	return out, nil
}

func (r *Registry) loadFileOnce(path string) ([]Implementation, *apierrors.Error, time.Time) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "scorer source file %q not found", path).WithError(statErr), time.Time{}
	}

	impls, loadErr := loadPlugin(path)
	if loadErr != nil {
		return nil, loadErr, time.Time{}
	}

	r.mu.Lock()
	for _, impl := range impls {
		r.entries[impl.Name()] = &entry{impl: impl, sourceFile: path, mtime: info.ModTime()}
	}
	r.mu.Unlock()

	return impls, nil, info.ModTime()
}

// ReloadFile re-executes the load for path, replacing existing entries whose
// source file matches. Reload failures are logged and do not remove
// existing registrations (spec.md §4.2).
func (r *Registry) ReloadFile(path string) *apierrors.Error {
	_, loadErr, _ := r.loadFileOnce(path)
	if loadErr != nil {
		log.Errorf("registry: reload of %s failed: %v", path, loadErr)
		metrics.ScorerReloadsTotal.WithLabelValues("failure").Inc()
		return loadErr
	}
	metrics.ScorerReloadsTotal.WithLabelValues("success").Inc()
	log.Infof("registry: reloaded scorer file %s", path)
	return nil
}

// WatchedFiles returns the paths currently being polled for changes.
func (r *Registry) WatchedFiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.watches))
	for p := range r.watches {
		out = append(out, p)
	}
	return out
}
