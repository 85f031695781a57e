// Package taskqueue implements the Async Task Adapter (spec.md §4.5): a
// narrow submit/status interface bridging synchronous Scheduler operations
// to a task queue, kept decoupled from any specific broker per the "Async
// task framework coupling" design note (spec.md §9).
package taskqueue

import (
	"context"

	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Action is one of the Scheduler operations a task can invoke.
type Action string

const (
	ActionRun      Action = "run"
	ActionScore    Action = "score"
	ActionPipeline Action = "pipeline"
)

// State is a task's lifecycle position.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// SubmitRequest is the adapter's submit payload (spec.md §4.5).
type SubmitRequest struct {
	Workspace   string                 `json:"workspace"`
	Action      Action                 `json:"action"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Executor    string                 `json:"executor,omitempty"`
	ScorerName  string                 `json:"scorer_name,omitempty"`
	CallbackURL string                 `json:"callback_url,omitempty"`
}

// SubmitResponse is returned from Submit.
type SubmitResponse struct {
	TaskID  string `json:"task_id"`
	Deduped bool   `json:"deduped"`
}

// StatusResponse is returned from Status.
type StatusResponse struct {
	State  State            `json:"state"`
	Result *model.Result    `json:"result,omitempty"`
	Report *model.ExecutionReport `json:"report,omitempty"`
}

// Adapter is the narrow contract every broker-specific implementation
// satisfies (spec.md §9: "keep the Async Task Adapter as a narrow
// interface... behind which any broker/queue implementation can sit").
type Adapter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	Status(ctx context.Context, taskID string) (StatusResponse, error)
}
