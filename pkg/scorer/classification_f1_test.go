package scorer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspaceCSVs(t *testing.T, gt, pred string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "input"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "output"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "input", "gt.csv"), []byte(gt), 0o644))
	if pred != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "output", "pred.csv"), []byte(pred), 0o644))
	}
	return root
}

func TestClassificationF1_HappyPath(t *testing.T) {
	root := writeWorkspaceCSVs(t,
		"id,label\n1,cat\n2,dog\n",
		"id,label\n1,cat\n2,dog\n",
	)

	result, err := classificationF1{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.Equal(t, 1.0, result.Summary.Score)
	assert.Equal(t, 1.0, result.Metrics["f1_macro"])
}

func TestClassificationF1_Partial(t *testing.T) {
	root := writeWorkspaceCSVs(t,
		"id,label\n1,cat\n2,dog\n",
		"id,label\n1,cat\n2,cat\n",
	)

	result, err := classificationF1{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.InDelta(t, 0.333, result.Summary.Score, 0.001)
}

func TestClassificationF1_MissingPredictionFile(t *testing.T) {
	root := writeWorkspaceCSVs(t, "id,label\n1,cat\n2,dog\n", "")

	result, err := classificationF1{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.False(t, result.Succeeded())
	assert.Equal(t, "MISSING_FILE", result.Error.Code)
	assert.Equal(t, "scoring", string(result.Error.Stage))
}

func TestClassificationF1_IDMismatch(t *testing.T) {
	root := writeWorkspaceCSVs(t,
		"id,label\n1,cat\n2,dog\n3,cat\n",
		"id,label\n1,cat\n2,dog\n",
	)

	result, err := classificationF1{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.False(t, result.Succeeded())
	assert.Equal(t, "MISMATCH", result.Error.Code)
}
