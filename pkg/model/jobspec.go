// Package model defines the wire types shared across AutoScorer: JobSpec,
// Workspace paths, Result, ScorerEntry and ExecutionReport, grounded on the
// teacher's pkg/model style (plain structs with json/yaml tags, validated by
// small hand-written Validate methods rather than a schema library).
package model

import (
	"regexp"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// ContainerSpec describes the container the Executor must run.
type ContainerSpec struct {
	Image      string            `json:"image"`
	Cmd        []string          `json:"cmd,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	ShmSize    string            `json:"shm_size,omitempty"`
}

// ResourceSpec describes the resource envelope requested for a job.
type ResourceSpec struct {
	CPU    float64 `json:"cpu"`
	Memory string  `json:"memory"`
	GPU    int     `json:"gpu"`
	Disk   string  `json:"disk,omitempty"`
}

// NetworkPolicy enumerates the network isolation levels a job may request.
type NetworkPolicy string

const (
	NetworkNone       NetworkPolicy = "none"
	NetworkRestricted NetworkPolicy = "restricted"
	NetworkBridge     NetworkPolicy = "bridge"
)

// JobSpec is the immutable, parsed form of a workspace's meta.json.
type JobSpec struct {
	JobID            string                 `json:"job_id"`
	TaskType         string                 `json:"task_type"`
	ScorerName       string                 `json:"scorer_name"`
	Container        ContainerSpec          `json:"container"`
	Resources        ResourceSpec           `json:"resources"`
	TimeLimitSeconds int                    `json:"time_limit_seconds"`
	NetworkPolicy    NetworkPolicy          `json:"network_policy"`
	ScorerParams     map[string]interface{} `json:"scorer_params,omitempty"`

	// Executor optionally pins an explicit executor kind (spec.md §4.3.4
	// selection step 1). Empty means "let the selection policy decide".
	Executor string `json:"executor,omitempty"`
}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
var memoryPattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?[gm]i?$`)

// Validate enforces the invariants listed in spec.md §3.
func (s *JobSpec) Validate() *apierrors.Error {
	if s.JobID == "" || !jobIDPattern.MatchString(s.JobID) {
		return apierrors.Newf(apierrors.CodeInvalidValue, "job_id %q is not RFC-compatible", s.JobID)
	}
	if s.Resources.CPU <= 0 {
		return apierrors.Newf(apierrors.CodeInvalidValue, "cpu must be > 0, got %v", s.Resources.CPU)
	}
	if s.Resources.GPU < 0 {
		return apierrors.Newf(apierrors.CodeInvalidValue, "gpu must be >= 0, got %v", s.Resources.GPU)
	}
	if !memoryPattern.MatchString(s.Resources.Memory) {
		return apierrors.Newf(apierrors.CodeInvalidValue, "memory %q does not match ^\\d+(\\.\\d+)?[gGmM]i?$", s.Resources.Memory)
	}
	if s.TimeLimitSeconds <= 0 {
		return apierrors.Newf(apierrors.CodeInvalidValue, "time_limit_seconds must be > 0, got %d", s.TimeLimitSeconds)
	}
	switch s.NetworkPolicy {
	case "", NetworkNone, NetworkRestricted, NetworkBridge:
	default:
		return apierrors.Newf(apierrors.CodeInvalidValue, "network_policy %q is not one of none|restricted|bridge", s.NetworkPolicy)
	}
	return nil
}

// EffectiveNetworkPolicy returns the configured policy, defaulting to "none"
// (default deny, per spec.md §4.3.1 step 3).
func (s *JobSpec) EffectiveNetworkPolicy() NetworkPolicy {
	if s.NetworkPolicy == "" {
		return NetworkNone
	}
	return s.NetworkPolicy
}
