package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/model"
)

type fakeExecutor struct {
	kind    Kind
	healthy bool
}

func (f *fakeExecutor) Kind() Kind { return f.kind }
func (f *fakeExecutor) HealthCheck(ctx context.Context) bool { return f.healthy }
func (f *fakeExecutor) Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport {
	return &model.ExecutionReport{Status: model.ExecutionSuccess}
}

func TestSelect_ExplicitExecutorWins(t *testing.T) {
	s := NewSelector(map[Kind]Executor{
		KindLocal:     &fakeExecutor{kind: KindLocal, healthy: true},
		KindContainer: &fakeExecutor{kind: KindContainer, healthy: true},
	}, KindContainer, 0)

	spec := &model.JobSpec{Executor: "local", Resources: model.ResourceSpec{Memory: "1Gi"}}
	exec, err := s.Select(context.Background(), spec)
	require.Nil(t, err)
	assert.Equal(t, KindLocal, exec.Kind())
}

func TestSelect_GPUPrefersCluster(t *testing.T) {
	s := NewSelector(map[Kind]Executor{
		KindCluster:   &fakeExecutor{kind: KindCluster, healthy: true},
		KindContainer: &fakeExecutor{kind: KindContainer, healthy: true},
	}, KindContainer, 0)

	spec := &model.JobSpec{Resources: model.ResourceSpec{GPU: 1, Memory: "1Gi"}}
	exec, err := s.Select(context.Background(), spec)
	require.Nil(t, err)
	assert.Equal(t, KindCluster, exec.Kind())
}

func TestSelect_MemoryThresholdPrefersCluster(t *testing.T) {
	s := NewSelector(map[Kind]Executor{
		KindCluster:   &fakeExecutor{kind: KindCluster, healthy: true},
		KindContainer: &fakeExecutor{kind: KindContainer, healthy: true},
	}, KindContainer, 4<<30)

	spec := &model.JobSpec{Resources: model.ResourceSpec{Memory: "8Gi"}}
	exec, err := s.Select(context.Background(), spec)
	require.Nil(t, err)
	assert.Equal(t, KindCluster, exec.Kind())
}

func TestSelect_FallsBackOnUnhealthy(t *testing.T) {
	s := NewSelector(map[Kind]Executor{
		KindCluster:   &fakeExecutor{kind: KindCluster, healthy: false},
		KindContainer: &fakeExecutor{kind: KindContainer, healthy: false},
		KindLocal:     &fakeExecutor{kind: KindLocal, healthy: true},
	}, KindContainer, 0)

	spec := &model.JobSpec{Resources: model.ResourceSpec{GPU: 1, Memory: "1Gi"}}
	exec, err := s.Select(context.Background(), spec)
	require.Nil(t, err)
	assert.Equal(t, KindLocal, exec.Kind())
}

func TestSelect_NoExecutorAvailable(t *testing.T) {
	s := NewSelector(map[Kind]Executor{
		KindContainer: &fakeExecutor{kind: KindContainer, healthy: false},
	}, KindContainer, 0)

	spec := &model.JobSpec{Resources: model.ResourceSpec{Memory: "1Gi"}}
	_, err := s.Select(context.Background(), spec)
	require.NotNil(t, err)
	assert.Equal(t, "NO_EXECUTOR_AVAILABLE", err.Code)
}
