package apierrors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeTimeout, "execution exceeded deadline")
	require.NotNil(t, err)
	assert.Equal(t, CodeTimeout, err.Code)
	assert.Equal(t, StageExecution, err.Stage)
	assert.NotEmpty(t, err.Stack)
}

func TestStageForCode(t *testing.T) {
	tests := []struct {
		code  string
		stage Stage
	}{
		{CodeMissingFile, StageValidation},
		{CodeScorerNotFound, StageScoring},
		{CodeConfigValidationError, StageConfig},
		{"totally-unknown", StageSystem},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.stage, StageForCode(tt.code))
		})
	}
}

func TestError_ChainedMethods(t *testing.T) {
	inner := errors.New("connection refused")
	err := New(CodeImagePullFailed, "").
		WithError(inner).
		WithDetail("image", "busybox:latest").
		WithLogsPath("/ws/logs/container.log")

	assert.Equal(t, CodeImagePullFailed, err.Code)
	assert.Equal(t, "connection refused", err.Message)
	assert.Equal(t, inner, err.InnerError)
	assert.Equal(t, "busybox:latest", err.Details["image"])
	assert.True(t, strings.HasSuffix(err.LogsPath, "container.log"))
	assert.ErrorIs(t, err, inner)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(CodeImagePullFailed))
	assert.True(t, Retryable(CodeNetworkTransient))
	assert.True(t, Retryable(CodeClusterScheduleFailed))
	assert.False(t, Retryable(CodeTimeout))
	assert.False(t, Retryable(CodeContainerExitNonzero))
}

func TestFromError(t *testing.T) {
	plain := errors.New("boom")
	got := FromError(plain)
	assert.Equal(t, CodeUnhandledError, got.Code)

	wrapped := New(CodeMismatch, "id mismatch")
	assert.Same(t, wrapped, FromError(wrapped))
}

func TestAs(t *testing.T) {
	wrapped := New(CodeScoreError, "scorer panicked")
	var asErr error = wrapped
	got, ok := As(asErr)
	require.True(t, ok)
	assert.Equal(t, CodeScoreError, got.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
