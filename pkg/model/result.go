package model

import (
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// Summary is the canonical status block of a successful Result.
type Summary struct {
	Score   float64 `json:"score"`
	Rank    string  `json:"rank,omitempty"`
	Pass    *bool   `json:"pass,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Artifact describes a named output produced alongside the score.
type Artifact struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Timing carries optional wall-clock telemetry for a pipeline run.
type Timing struct {
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`
	ScoringSeconds   float64 `json:"scoring_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds,omitempty"`
}

// ResourceUsage carries optional resource telemetry for a pipeline run.
type ResourceUsage struct {
	CPUSeconds    float64 `json:"cpu_seconds,omitempty"`
	MaxMemoryRSS  int64   `json:"max_memory_rss_bytes,omitempty"`
}

// Versioning is mandatory on any successful Result (spec.md §3 invariant).
type Versioning struct {
	Scorer    string    `json:"scorer"`
	Version   string    `json:"version"`
	Algorithm string    `json:"algorithm,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the canonical scoring output written to output/result.json.
// Exactly one of Summary or Error is the authoritative status indicator.
type Result struct {
	Summary    *Summary            `json:"summary,omitempty"`
	Metrics    map[string]float64  `json:"metrics,omitempty"`
	Artifacts  map[string]Artifact `json:"artifacts,omitempty"`
	Timing     *Timing             `json:"timing,omitempty"`
	Resources  *ResourceUsage      `json:"resources,omitempty"`
	Versioning *Versioning         `json:"versioning,omitempty"`
	Error      *apierrors.Error    `json:"error,omitempty"`
}

// Succeeded reports whether this Result represents a successful score.
func (r *Result) Succeeded() bool {
	return r.Error == nil && r.Summary != nil
}

// ErrorResult builds a Result whose authoritative status is the given error.
func ErrorResult(err *apierrors.Error) *Result {
	return &Result{Error: err}
}
