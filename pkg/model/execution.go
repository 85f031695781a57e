package model

import (
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// ExecutionStatus is the coarse outcome of an Executor run.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailure ExecutionStatus = "failure"
)

// ExecutionReport is the contract every Executor variant returns from Run,
// grounded on the teacher's common.ExecutionStats / ExecutionResult pairing
// (Lens/modules/jobs/pkg/common/execution_stats.go) generalized to the
// container-run shape spec.md §4.3 describes.
type ExecutionReport struct {
	Status        ExecutionStatus  `json:"status"`
	ExitCode      int              `json:"exit_code"`
	Duration      time.Duration    `json:"duration"`
	ResourceUsage *ResourceUsage   `json:"resource_usage,omitempty"`
	LogPath       string           `json:"log_path,omitempty"`
	Error         *apierrors.Error `json:"error,omitempty"`
}

// Succeeded reports whether the container/job ran to a zero exit without an
// executor-level failure.
func (r *ExecutionReport) Succeeded() bool {
	return r.Status == ExecutionSuccess && r.Error == nil
}
