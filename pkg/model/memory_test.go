package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryBytes_Equivalents(t *testing.T) {
	want := int64(4) * (1 << 30)
	for _, s := range []string{"4Gi", "4096Mi", "4g", "4G"} {
		t.Run(s, func(t *testing.T) {
			got, err := ParseMemoryBytes(s)
			require.Nil(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseMemoryBytes_RejectsGB(t *testing.T) {
	_, err := ParseMemoryBytes("4GB")
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_VALUE", err.Code)
}

func TestParseMemoryBytes_RejectsBareNumber(t *testing.T) {
	_, err := ParseMemoryBytes("4096")
	require.NotNil(t, err)
}

func TestJobSpec_Validate_CPUBoundary(t *testing.T) {
	base := JobSpec{
		JobID:            "job-1",
		Resources:        ResourceSpec{CPU: 0, Memory: "1Gi"},
		TimeLimitSeconds: 10,
	}
	err := base.Validate()
	require.NotNil(t, err, "cpu = 0 must be rejected")

	base.Resources.CPU = 0.5
	assert.Nil(t, base.Validate(), "cpu = 0.5 must be accepted")
}
