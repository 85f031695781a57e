package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altsen/autoscorer-sub000/pkg/model"
)

func writeMeta(t *testing.T, root string, spec model.JobSpec) {
	t.Helper()
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, model.MetaFileName), data, 0o644))
}

func validSpec() model.JobSpec {
	return model.JobSpec{
		JobID:            "job-1",
		TaskType:         "classification",
		ScorerName:       "classification_f1",
		Container:        model.ContainerSpec{Image: "busybox"},
		Resources:        model.ResourceSpec{CPU: 1, Memory: "1Gi"},
		TimeLimitSeconds: 60,
	}
}

func TestValidate_HappyPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, model.InputDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.InputDirName, "gt.csv"), []byte("id,label\n"), 0o644))
	writeMeta(t, root, validSpec())

	spec, err := Validate(root)
	require.Nil(t, err)
	assert.Equal(t, "job-1", spec.JobID)

	assert.DirExists(t, filepath.Join(root, model.OutputDirName))
	assert.DirExists(t, filepath.Join(root, model.LogsDirName))
}

func TestValidate_Idempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, model.InputDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.InputDirName, "gt.csv"), []byte("x"), 0o644))
	writeMeta(t, root, validSpec())

	_, err1 := Validate(root)
	_, err2 := Validate(root)
	require.Nil(t, err1)
	require.Nil(t, err2)
}

func TestValidate_MissingMeta(t *testing.T) {
	root := t.TempDir()
	_, err := Validate(root)
	require.NotNil(t, err)
	assert.Equal(t, "MISSING_FILE", err.Code)
}

func TestValidate_MissingInput(t *testing.T) {
	root := t.TempDir()
	writeMeta(t, root, validSpec())
	_, err := Validate(root)
	require.NotNil(t, err)
	assert.Equal(t, "MISSING_FILE", err.Code)
}

func TestValidate_BadFormat(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, model.InputDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.InputDirName, "gt.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.MetaFileName), []byte("{not json"), 0o644))

	_, err := Validate(root)
	require.NotNil(t, err)
	assert.Equal(t, "BAD_FORMAT", err.Code)
}

func TestValidate_InvalidValue(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, model.InputDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, model.InputDirName, "gt.csv"), []byte("x"), 0o644))
	spec := validSpec()
	spec.Resources.Memory = "4GB"
	writeMeta(t, root, spec)

	_, err := Validate(root)
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_VALUE", err.Code)
}

func TestNormalizeImage(t *testing.T) {
	assert.Equal(t, "busybox:latest", NormalizeImage("busybox"))
	assert.Equal(t, "busybox:1.3", NormalizeImage("busybox:1.3"))
	assert.Equal(t, "registry.io:5000/busybox:latest", NormalizeImage("registry.io:5000/busybox"))
	assert.Equal(t, "my/repo@sha256:abc", NormalizeImage("my/repo@sha256:abc"))
}
