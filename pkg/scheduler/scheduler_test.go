package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

type fakeExec struct {
	kind    executor.Kind
	healthy bool
	reports []*model.ExecutionReport
	calls   int
}

func (f *fakeExec) Kind() executor.Kind                      { return f.kind }
func (f *fakeExec) HealthCheck(ctx context.Context) bool      { return f.healthy }
func (f *fakeExec) Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport {
	r := f.reports[f.calls]
	if f.calls < len(f.reports)-1 {
		f.calls++
	}
	return r
}

type fakeScorer struct {
	name    string
	version string
	result  *model.Result
	err     error
	panics  bool
}

func (s *fakeScorer) Name() string    { return s.name }
func (s *fakeScorer) Version() string { return s.version }
func (s *fakeScorer) Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func newWorkspace(t *testing.T, scorerName string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "input", "gt.csv"), []byte("id,label\n1,cat\n"), 0o644))
	meta := model.JobSpec{
		JobID:            "job-1",
		ScorerName:       scorerName,
		Container:        model.ContainerSpec{Image: "busybox", Cmd: []string{"true"}},
		Resources:        model.ResourceSpec{CPU: 1, Memory: "1Gi"},
		TimeLimitSeconds: 30,
	}
	b, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "meta.json"), b, 0o644))
	return root
}

func newScheduler(exec executor.Executor, reg *registry.Registry) *Scheduler {
	sel := executor.NewSelector(map[executor.Kind]executor.Executor{exec.Kind(): exec}, exec.Kind(), 0)
	return New(reg, sel, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}, 5, time.Minute, time.Minute)
}

func TestPipeline_HappyPath(t *testing.T) {
	root := newWorkspace(t, "stub")
	reg := registry.New()
	reg.Register(&fakeScorer{name: "stub", version: "1.0", result: &model.Result{
		Summary:    &model.Summary{Score: 1},
		Versioning: &model.Versioning{Scorer: "stub", Version: "1.0"},
	}})
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{{Status: model.ExecutionSuccess}}}
	sched := newScheduler(exec, reg)

	result := sched.Pipeline(context.Background(), root, nil, "")
	assert.True(t, result.Succeeded())
	assert.FileExists(t, filepath.Join(root, "output", "result.json"))
}

func TestPipeline_ExecutorFailureShortCircuits(t *testing.T) {
	root := newWorkspace(t, "stub")
	reg := registry.New()
	reg.Register(&fakeScorer{name: "stub", version: "1.0"})
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{
		{Status: model.ExecutionFailure, Error: apierrors.New(apierrors.CodeContainerExitNonzero, "exited 1")},
	}}
	sched := newScheduler(exec, reg)

	result := sched.Pipeline(context.Background(), root, nil, "")
	assert.False(t, result.Succeeded())
	assert.Equal(t, "CONTAINER_EXIT_NONZERO", result.Error.Code)
}

func TestPipeline_MissingScorerIsScorerNotFound(t *testing.T) {
	root := newWorkspace(t, "nonexistent")
	reg := registry.New()
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{{Status: model.ExecutionSuccess}}}
	sched := newScheduler(exec, reg)

	result := sched.Pipeline(context.Background(), root, nil, "")
	assert.False(t, result.Succeeded())
	assert.Equal(t, "SCORER_NOT_FOUND", result.Error.Code)
}

func TestPipeline_ScorerPanicNormalizesToScoreError(t *testing.T) {
	root := newWorkspace(t, "panicky")
	reg := registry.New()
	reg.Register(&fakeScorer{name: "panicky", version: "1.0", panics: true})
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{{Status: model.ExecutionSuccess}}}
	sched := newScheduler(exec, reg)

	result := sched.Pipeline(context.Background(), root, nil, "")
	assert.False(t, result.Succeeded())
	assert.Equal(t, "SCORE_ERROR", result.Error.Code)
}

func TestRun_RetriesRetryableErrorThenSucceeds(t *testing.T) {
	root := newWorkspace(t, "stub")
	reg := registry.New()
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{
		{Status: model.ExecutionFailure, Error: apierrors.New(apierrors.CodeImagePullFailed, "transient pull failure")},
		{Status: model.ExecutionSuccess},
	}}
	sched := newScheduler(exec, reg)

	report := sched.Run(context.Background(), root)
	assert.True(t, report.Succeeded())
	assert.Equal(t, 2, exec.calls+1)
}

func TestScorerOverride_TakesPrecedenceOverSpec(t *testing.T) {
	root := newWorkspace(t, "spec_scorer")
	reg := registry.New()
	reg.Register(&fakeScorer{name: "override_scorer", version: "1.0", result: &model.Result{
		Summary:    &model.Summary{Score: 0.5},
		Versioning: &model.Versioning{Scorer: "override_scorer", Version: "1.0"},
	}})
	exec := &fakeExec{kind: executor.KindLocal, healthy: true, reports: []*model.ExecutionReport{{Status: model.ExecutionSuccess}}}
	sched := newScheduler(exec, reg)

	result := sched.Score(context.Background(), root, nil, "override_scorer")
	require.True(t, result.Succeeded())
	assert.Equal(t, 0.5, result.Summary.Score)
}
