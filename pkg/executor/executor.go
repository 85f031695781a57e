// Package executor defines the polymorphic Executor contract (spec.md §4.3):
// Local, Container and Cluster variants all expose the same run/health_check
// surface so the Scheduler can treat them interchangeably, grounded on the
// teacher's common.Executor abstraction over its job-runner backends.
package executor

import (
	"context"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Kind names a concrete Executor implementation for selection-policy and
// circuit-breaker bookkeeping (spec.md §4.3.4, §4.4).
type Kind string

const (
	KindCluster   Kind = "cluster"
	KindContainer Kind = "container"
	KindLocal     Kind = "local"
)

// FallbackOrder is the fixed degrade path spec.md §4.3.4 step 4 specifies.
var FallbackOrder = []Kind{KindCluster, KindContainer, KindLocal}

// Executor is the capability every variant implements.
type Executor interface {
	Kind() Kind
	// Run executes spec's container inside workspacePath's mount layout and
	// returns the outcome; it never panics for business-logic failures --
	// those are reported in ExecutionReport.Error.
	Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport
	// HealthCheck reports whether this executor can currently accept work.
	HealthCheck(ctx context.Context) bool
}

// Ceilings is the resource envelope an Executor enforces before launch
// (spec.md §4.3.1 step 4).
type Ceilings struct {
	MaxCPU    float64
	MaxMemory string
	MaxGPU    int
}

// CheckCeilings rejects a JobSpec whose resource request exceeds the
// configured ceilings, shared by every Executor variant so the
// RESOURCE_QUOTA_EXCEEDED check is consistent across them.
func CheckCeilings(spec *model.JobSpec, ceilings Ceilings) *apierrors.Error {
	if ceilings.MaxCPU > 0 && spec.Resources.CPU > ceilings.MaxCPU {
		return apierrors.Newf(apierrors.CodeResourceQuotaExceeded, "cpu request %v exceeds ceiling %v", spec.Resources.CPU, ceilings.MaxCPU)
	}
	if ceilings.MaxGPU > 0 && spec.Resources.GPU > ceilings.MaxGPU {
		return apierrors.Newf(apierrors.CodeResourceQuotaExceeded, "gpu request %d exceeds ceiling %d", spec.Resources.GPU, ceilings.MaxGPU)
	}
	if ceilings.MaxMemory != "" {
		requested, err := model.ParseMemoryBytes(spec.Resources.Memory)
		if err != nil {
			return err
		}
		ceiling, err := model.ParseMemoryBytes(ceilings.MaxMemory)
		if err != nil {
			return err
		}
		if requested > ceiling {
			return apierrors.Newf(apierrors.CodeResourceQuotaExceeded, "memory request %s (%s) exceeds ceiling %s (%s)",
				spec.Resources.Memory, model.FormatBytes(requested), ceilings.MaxMemory, model.FormatBytes(ceiling))
		}
	}
	return nil
}
