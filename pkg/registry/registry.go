// Package registry implements the Scorer Registry (spec.md §4.2): a
// process-wide, thread-safe name -> implementation map supporting dynamic
// loading and hot-reload from file paths. Grounded on the teacher's
// ActionTaskExecutor handler map (action_task_executor/executor.go:
// map[string]ActionHandler guarded by sync.RWMutex), generalized from
// action-type handlers to scorer implementations.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Implementation is the capability a registered scorer must satisfy. It is
// declared locally (rather than imported from pkg/scorer) so that package
// can depend on this one without a cycle; any pkg/scorer.Scorer value
// satisfies this interface structurally.
type Implementation interface {
	Name() string
	Version() string
	Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error)
}

type entry struct {
	impl       Implementation
	sourceFile string
	mtime      time.Time
}

// Registry is a thread-safe, process-wide scorer registry. The zero value is
// not usable; construct with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	watches map[string]*watch
}

// New constructs an empty Registry. spec.md §9 calls for an explicitly
// constructed registry passed by reference into Scheduler/Executor
// constructors, reserving a process-scoped default only for CLI entry
// points (see Default below).
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		watches: make(map[string]*watch),
	}
}

// Register inserts or replaces a scorer. Last-writer-wins, atomic with
// respect to Get (spec.md §4.2).
func (r *Registry) Register(impl Implementation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[impl.Name()] = &entry{impl: impl}
}

// Get returns the implementation registered under name, or (nil, false) if
// unknown -- never an error in the happy path (spec.md §4.2 failure policy).
func (r *Registry) Get(name string) (Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.impl, true
}

// MustGet is a convenience for callers that want the apierrors.Error shape
// directly instead of a (impl, bool) pair.
func (r *Registry) MustGet(name string) (Implementation, *apierrors.Error) {
	impl, ok := r.Get(name)
	if !ok {
		return nil, apierrors.Newf(apierrors.CodeScorerNotFound, "no scorer registered under name %q", name)
	}
	return impl, nil
}

// List returns metadata for every registered scorer.
func (r *Registry) List() []model.ScorerEntryInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ScorerEntryInfo, 0, len(r.entries))
	for name, e := range r.entries {
		out = append(out, model.ScorerEntryInfo{
			Name:       name,
			Version:    e.impl.Version(),
			SourceFile: e.sourceFile,
			MTime:      e.mtime,
		})
	}
	return out
}

var defaultRegistry = New()

// Default returns the process-scoped singleton registry, reserved for CLI
// entry points per spec.md §9's singleton-registry re-architecture note.
func Default() *Registry { return defaultRegistry }
