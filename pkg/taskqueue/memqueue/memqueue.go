// Package memqueue implements an in-process taskqueue.Adapter backed by a
// goroutine-per-task worker pool, the minimal broker spec.md §4.5 calls for
// when no external queue is configured ("task_broker: memory" in
// pkg/config). Grounded on the teacher's uuid.New().String() task-id
// convention (jobs/pkg/jobs/gpu_usage_weekly_report) and its go-resty client
// setup for callback delivery (jobs/pkg/jobs/pyspy_task_dispatcher/client.go).
package memqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/metrics"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/taskqueue"
)

// completedTaskTTL bounds how long a terminal task's bookkeeping survives in
// memory before the GC sweep reclaims it.
const completedTaskTTL = 24 * time.Hour

// Runner abstracts the Scheduler surface memqueue drives, so this package
// doesn't import pkg/scheduler (which would otherwise be an import cycle
// risk if the Scheduler ever wants to submit its own sub-tasks).
type Runner interface {
	RunWithExecutorOverride(ctx context.Context, workspacePath, executorOverride string) *model.ExecutionReport
	Score(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride string) *model.Result
	PipelineWithExecutorOverride(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride, executorOverride string) *model.Result
}

type task struct {
	id         string
	workspace  string
	action     taskqueue.Action
	state      taskqueue.State
	result     *model.Result
	report     *model.ExecutionReport
	finishedAt time.Time
}

// Queue is an in-process Adapter. Dedup key is (workspace, action); an
// in-flight task for the same key is returned with deduped=true instead of
// starting a second run (spec.md §4.5, §8 scenario 8).
type Queue struct {
	runner Runner

	mu       sync.Mutex
	tasks    map[string]*task
	inflight map[string]string // dedup key -> task id

	callback *callbackDeliverer
	gc       *cron.Cron
}

// New constructs a Queue. maxCallbackAttempts bounds the callback retry
// count (spec.md §4.5 "exponential-backoff retries up to M attempts").
func New(runner Runner, maxCallbackAttempts int) *Queue {
	return &Queue{
		runner:   runner,
		tasks:    make(map[string]*task),
		inflight: make(map[string]string),
		callback: newCallbackDeliverer(maxCallbackAttempts),
	}
}

func dedupKey(workspace string, action taskqueue.Action) string {
	return fmt.Sprintf("%s::%s", workspace, action)
}

// Submit enqueues a task, or returns the in-flight task for the same
// (workspace, action) pair with deduped=true.
func (q *Queue) Submit(ctx context.Context, req taskqueue.SubmitRequest) (taskqueue.SubmitResponse, error) {
	key := dedupKey(req.Workspace, req.Action)

	q.mu.Lock()
	if existingID, ok := q.inflight[key]; ok {
		q.mu.Unlock()
		return taskqueue.SubmitResponse{TaskID: existingID, Deduped: true}, nil
	}

	id := uuid.New().String()
	t := &task{id: id, workspace: req.Workspace, action: req.Action, state: taskqueue.StatePending}
	q.tasks[id] = t
	q.inflight[key] = id
	metrics.TaskQueueDepth.Inc()
	q.mu.Unlock()

	go q.run(context.Background(), t, req)

	return taskqueue.SubmitResponse{TaskID: id, Deduped: false}, nil
}

func (q *Queue) run(ctx context.Context, t *task, req taskqueue.SubmitRequest) {
	q.setState(t, taskqueue.StateRunning)

	switch t.action {
	case taskqueue.ActionRun:
		report := q.runner.RunWithExecutorOverride(ctx, req.Workspace, req.Executor)
		q.finishExecution(t, report)
		q.deliverCallback(req.CallbackURL, t, nil, report)
	case taskqueue.ActionScore:
		result := q.runner.Score(ctx, req.Workspace, req.Params, req.ScorerName)
		q.finishResult(t, result)
		q.deliverCallback(req.CallbackURL, t, result, nil)
	default: // pipeline
		result := q.runner.PipelineWithExecutorOverride(ctx, req.Workspace, req.Params, req.ScorerName, req.Executor)
		q.finishResult(t, result)
		q.deliverCallback(req.CallbackURL, t, result, nil)
	}

	q.mu.Lock()
	delete(q.inflight, dedupKey(t.workspace, t.action))
	metrics.TaskQueueDepth.Dec()
	q.mu.Unlock()
}

func (q *Queue) setState(t *task, state taskqueue.State) {
	q.mu.Lock()
	t.state = state
	q.mu.Unlock()
}

func (q *Queue) finishResult(t *task, result *model.Result) {
	q.mu.Lock()
	t.result = result
	t.finishedAt = time.Now()
	if result.Succeeded() {
		t.state = taskqueue.StateSuccess
	} else {
		t.state = taskqueue.StateFailure
	}
	q.mu.Unlock()
}

func (q *Queue) finishExecution(t *task, report *model.ExecutionReport) {
	q.mu.Lock()
	t.report = report
	t.finishedAt = time.Now()
	if report.Succeeded() {
		t.state = taskqueue.StateSuccess
	} else {
		t.state = taskqueue.StateFailure
	}
	q.mu.Unlock()
}

// StartGC schedules a periodic sweep (cron expression, e.g. "0 * * * *" for
// hourly) that reclaims terminal tasks older than completedTaskTTL.
// Grounded on the teacher's jobs.Start (Lens/modules/jobs/pkg/jobs/runner.go):
// cron.New with SkipIfStillRunning so overlapping sweeps never stack up.
func (q *Queue) StartGC(schedule string) error {
	q.gc = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := q.gc.AddFunc(schedule, q.sweep)
	if err != nil {
		return fmt.Errorf("scheduling task GC sweep %q: %w", schedule, err)
	}
	q.gc.Start()
	return nil
}

// StopGC halts the sweep scheduler, if running.
func (q *Queue) StopGC() {
	if q.gc != nil {
		q.gc.Stop()
	}
}

func (q *Queue) sweep() {
	cutoff := time.Now().Add(-completedTaskTTL)
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for id, t := range q.tasks {
		if (t.state == taskqueue.StateSuccess || t.state == taskqueue.StateFailure) && t.finishedAt.Before(cutoff) {
			delete(q.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		log.Infof("memqueue: GC swept %d completed tasks older than %s", removed, completedTaskTTL)
	}
}

func (q *Queue) deliverCallback(url string, t *task, result *model.Result, report *model.ExecutionReport) {
	if url == "" {
		return
	}
	go q.callback.deliver(url, t.id, result, report)
}

// Status returns the current state of a task.
func (q *Queue) Status(ctx context.Context, taskID string) (taskqueue.StatusResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[taskID]
	if !ok {
		return taskqueue.StatusResponse{}, fmt.Errorf("unknown task_id %q", taskID)
	}
	return taskqueue.StatusResponse{State: t.state, Result: t.result, Report: t.report}, nil
}
