package memqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/taskqueue"
)

type blockingRunner struct {
	release chan struct{}
	calls   int
}

func (r *blockingRunner) RunWithExecutorOverride(ctx context.Context, workspacePath, executorOverride string) *model.ExecutionReport {
	return &model.ExecutionReport{Status: model.ExecutionSuccess}
}

func (r *blockingRunner) Score(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride string) *model.Result {
	return &model.Result{Summary: &model.Summary{Score: 1}}
}

func (r *blockingRunner) PipelineWithExecutorOverride(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride, executorOverride string) *model.Result {
	r.calls++
	<-r.release
	return &model.Result{Summary: &model.Summary{Score: 1}}
}

func TestSubmit_DedupesInFlightSameWorkspaceAndAction(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	defer close(runner.release)
	q := New(runner, 3)

	first, err := q.Submit(context.Background(), taskqueue.SubmitRequest{Workspace: "/ws/a", Action: taskqueue.ActionPipeline})
	require.NoError(t, err)
	assert.False(t, first.Deduped)

	second, err := q.Submit(context.Background(), taskqueue.SubmitRequest{Workspace: "/ws/a", Action: taskqueue.ActionPipeline})
	require.NoError(t, err)
	assert.True(t, second.Deduped)
	assert.Equal(t, first.TaskID, second.TaskID)

	// The runner is invoked on the task's own goroutine, so wait for it.
	assert.Eventually(t, func() bool { return runner.calls == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubmit_DifferentWorkspaceNotDeduped(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	defer close(runner.release)
	q := New(runner, 3)

	first, _ := q.Submit(context.Background(), taskqueue.SubmitRequest{Workspace: "/ws/a", Action: taskqueue.ActionPipeline})
	second, _ := q.Submit(context.Background(), taskqueue.SubmitRequest{Workspace: "/ws/b", Action: taskqueue.ActionPipeline})

	assert.NotEqual(t, first.TaskID, second.TaskID)
	assert.False(t, second.Deduped)
}

func TestStatus_ReflectsCompletion(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	close(runner.release)
	q := New(runner, 3)

	resp, err := q.Submit(context.Background(), taskqueue.SubmitRequest{Workspace: "/ws/c", Action: taskqueue.ActionPipeline})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := q.Status(context.Background(), resp.TaskID)
		return err == nil && status.State == taskqueue.StateSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestStatus_UnknownTaskErrors(t *testing.T) {
	q := New(&blockingRunner{release: make(chan struct{})}, 3)
	_, err := q.Status(context.Background(), "nope")
	assert.Error(t, err)
}
