package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegressionRMSE_HappyPath(t *testing.T) {
	root := writeWorkspaceCSVs(t,
		"id,value\n1,1.0\n2,3.0\n",
		"id,value\n1,2.0\n2,2.0\n",
	)

	result, err := regressionRMSE{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.InDelta(t, 1.0, result.Metrics["rmse"], 1e-9)
}

func TestRegressionRMSE_NonNumericValue(t *testing.T) {
	root := writeWorkspaceCSVs(t,
		"id,value\n1,1.0\n",
		"id,value\n1,not-a-number\n",
	)

	result, err := regressionRMSE{}.Score(context.Background(), root, nil)
	require.NoError(t, err)
	require.False(t, result.Succeeded())
	assert.Equal(t, "BAD_FORMAT", result.Error.Code)
}
