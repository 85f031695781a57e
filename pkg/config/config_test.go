package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "container", cfg.DefaultExecutor())
	assert.Equal(t, 1.0, cfg.DefaultCPU())
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Setenv("AUTOSCORER_DEFAULT_EXECUTOR", "local"))
	defer os.Unsetenv("AUTOSCORER_DEFAULT_EXECUTOR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.DefaultExecutor())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(dir+"/autoscorer.yaml", []byte("default_executor: cluster\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cluster", cfg.DefaultExecutor())

	require.NoError(t, os.Setenv("AUTOSCORER_DEFAULT_EXECUTOR", "local"))
	defer os.Unsetenv("AUTOSCORER_DEFAULT_EXECUTOR")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.DefaultExecutor(), "env must win over file")
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
}
