package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/model"
)

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "input"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "output"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "meta.json"), []byte("{}"), 0o644))
	return root
}

func TestLocalExecutor_Success(t *testing.T) {
	root := newWorkspace(t)
	spec := &model.JobSpec{
		JobID:            "job-1",
		TimeLimitSeconds: 5,
		Container:        model.ContainerSpec{Cmd: []string{"true"}},
	}

	report := New().Run(context.Background(), spec, root)
	assert.True(t, report.Succeeded())
	assert.FileExists(t, filepath.Join(root, "logs", "container.log"))
}

func TestLocalExecutor_NonZeroExit(t *testing.T) {
	root := newWorkspace(t)
	spec := &model.JobSpec{
		JobID:            "job-2",
		TimeLimitSeconds: 5,
		Container:        model.ContainerSpec{Cmd: []string{"false"}},
	}

	report := New().Run(context.Background(), spec, root)
	assert.False(t, report.Succeeded())
	require.NotNil(t, report.Error)
	assert.Equal(t, "CONTAINER_EXIT_NONZERO", report.Error.Code)
}

func TestLocalExecutor_Timeout(t *testing.T) {
	root := newWorkspace(t)
	spec := &model.JobSpec{
		JobID:            "job-3",
		TimeLimitSeconds: 1,
		Container:        model.ContainerSpec{Cmd: []string{"sleep", "5"}},
	}

	report := New().Run(context.Background(), spec, root)
	assert.False(t, report.Succeeded())
	require.NotNil(t, report.Error)
	assert.Equal(t, "TIMEOUT", report.Error.Code)
}

func TestLocalExecutor_HealthCheckAlwaysTrue(t *testing.T) {
	assert.True(t, New().HealthCheck(context.Background()))
}
