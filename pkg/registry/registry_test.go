package registry

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

type stubImpl struct {
	name    string
	version string
}

func (s *stubImpl) Name() string    { return s.name }
func (s *stubImpl) Version() string { return s.version }
func (s *stubImpl) Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error) {
	return &model.Result{
		Summary:    &model.Summary{Score: 1},
		Versioning: &model.Versioning{Scorer: s.name, Version: s.version, Timestamp: time.Now()},
	}, nil
}

func TestRegister_LastWriterWins(t *testing.T) {
	r := New()
	r.Register(&stubImpl{name: "f1", version: "v1"})
	r.Register(&stubImpl{name: "f1", version: "v2"})

	impl, ok := r.Get("f1")
	require.True(t, ok)
	assert.Equal(t, "v2", impl.Version())
}

func TestGet_Unknown(t *testing.T) {
	r := New()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestMustGet_Unknown(t *testing.T) {
	r := New()
	_, err := r.MustGet("nope")
	require.NotNil(t, err)
	assert.Equal(t, apierrors.CodeScorerNotFound, err.Code)
}

func TestList_ReturnsAllRegistered(t *testing.T) {
	r := New()
	r.Register(&stubImpl{name: "a", version: "1"})
	r.Register(&stubImpl{name: "b", version: "1"})

	entries := r.List()
	assert.Len(t, entries, 2)
}

func TestConcurrentGetAndRegister(t *testing.T) {
	r := New()
	r.Register(&stubImpl{name: "hot", version: "1"})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			r.Register(&stubImpl{name: "hot", version: "2"})
		}
		close(done)
	}()

	for i := 0; i < 200; i++ {
		_, _ = r.Get("hot")
	}
	<-done

	impl, ok := r.Get("hot")
	require.True(t, ok)
	assert.Equal(t, "2", impl.Version())
}

func TestWatch_FirstSampleDoesNotReload(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/scorer.txt"
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	r := New()
	reloads := 0
	origLoadPlugin := loadPlugin
	loadPlugin = func(p string) ([]Implementation, *apierrors.Error) {
		reloads++
		return []Implementation{&stubImpl{name: "watched", version: "v1"}}, nil
	}
	t.Cleanup(func() { loadPlugin = origLoadPlugin })

	_, loadErr := r.LoadFile(path, true, 20*time.Millisecond)
	require.Nil(t, loadErr)
	t.Cleanup(func() { r.Unwatch(path) })

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, reloads, "only the initial LoadFile call should have invoked loadPlugin so far")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/scorer.txt"
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	r := New()
	reloads := 0
	origLoadPlugin := loadPlugin
	loadPlugin = func(p string) ([]Implementation, *apierrors.Error) {
		reloads++
		return []Implementation{&stubImpl{name: "watched", version: "v1"}}, nil
	}
	t.Cleanup(func() { loadPlugin = origLoadPlugin })

	_, loadErr := r.LoadFile(path, true, 15*time.Millisecond)
	require.Nil(t, loadErr)
	t.Cleanup(func() { r.Unwatch(path) })

	time.Sleep(40 * time.Millisecond)
	// Bump mtime forward so the poller observes a change even on
	// filesystems with coarse mtime resolution.
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool {
		return reloads >= 2
	}, time.Second, 10*time.Millisecond, "expected a reload after mtime changed")
}

func TestWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/scorer.txt"
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	r := New()
	origLoadPlugin := loadPlugin
	loadPlugin = func(p string) ([]Implementation, *apierrors.Error) {
		return []Implementation{&stubImpl{name: "watched", version: "v1"}}, nil
	}
	t.Cleanup(func() { loadPlugin = origLoadPlugin })

	_, loadErr := r.LoadFile(path, true, 20*time.Millisecond)
	require.Nil(t, loadErr)
	t.Cleanup(func() { r.Unwatch(path) })

	assert.Contains(t, r.WatchedFiles(), path)
}
