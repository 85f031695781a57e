package executor

import (
	"context"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Selector holds one Executor per Kind the Scheduler knows about and applies
// the selection policy of spec.md §4.3.4.
type Selector struct {
	executors        map[Kind]Executor
	defaultKind       Kind
	memoryThresholdB  int64
}

// NewSelector constructs a Selector. defaultKind is used when the JobSpec
// does not pin an executor and the GPU/memory preference rule (step 2)
// doesn't apply. memoryThreshold is the parsed byte threshold above which
// Cluster is preferred over Container.
func NewSelector(executors map[Kind]Executor, defaultKind Kind, memoryThreshold int64) *Selector {
	return &Selector{executors: executors, defaultKind: defaultKind, memoryThresholdB: memoryThreshold}
}

// Select applies spec.md §4.3.4's four-step policy and returns a healthy
// Executor, or NO_EXECUTOR_AVAILABLE if none in the fallback chain are up.
func (s *Selector) Select(ctx context.Context, spec *model.JobSpec) (Executor, *apierrors.Error) {
	preferred := s.preferredKind(spec)

	if exec, ok := s.executors[preferred]; ok && exec.HealthCheck(ctx) {
		return exec, nil
	}

	for _, kind := range FallbackOrder {
		if kind == preferred {
			continue
		}
		if exec, ok := s.executors[kind]; ok && exec.HealthCheck(ctx) {
			return exec, nil
		}
	}

	return nil, apierrors.Newf(apierrors.CodeNoExecutorAvailable, "no healthy executor available (preferred %s)", preferred)
}

func (s *Selector) preferredKind(spec *model.JobSpec) Kind {
	if spec.Executor != "" {
		if _, ok := s.executors[Kind(spec.Executor)]; ok {
			return Kind(spec.Executor)
		}
	}

	if spec.Resources.GPU > 0 {
		return KindCluster
	}
	if s.memoryThresholdB > 0 {
		if bytes, err := model.ParseMemoryBytes(spec.Resources.Memory); err == nil && bytes > s.memoryThresholdB {
			return KindCluster
		}
	}

	return s.defaultKind
}
