package runerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchline-ai/benchline-go/internal/messages"
)

func TestRunErrorRendersTemplatedMessage(t *testing.T) {
	err := NewConfigurationError(messages.InvalidConcurrency, "Value", 0)
	assert.Equal(t, "The concurrency must be at least 1, got 0.", err.Error())
	assert.Equal(t, KindConfiguration, err.Kind())
	assert.Equal(t, messages.InvalidConcurrency, err.MessageCode())
}

func TestHasKind(t *testing.T) {
	err := NewTimeoutError(messages.RunTimedOut, "Minutes", 15, "Link", "https://x")
	assert.True(t, HasKind(err, KindTimeout))
	assert.False(t, HasKind(err, KindRemote))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, HasKind(wrapped, KindTimeout))

	assert.False(t, HasKind(errors.New("plain"), KindTimeout))
	assert.False(t, HasKind(nil, KindTimeout))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRemoteError(cause, messages.RemoteCallFailed, "Operation", "push entry", "Error", "see below")
	assert.ErrorIs(t, err, cause)
}

func TestFormatChain(t *testing.T) {
	t.Run("appends distinct causes", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewRemoteError(cause, messages.RemoteCallFailed, "Operation", "status", "Error", "request failed")
		require.Contains(t, FormatChain(err), "caused by: connection refused")
	})

	t.Run("skips causes already included", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := fmt.Errorf("status call failed: %w", cause)
		assert.Equal(t, "status call failed: connection refused", FormatChain(err))
	})

	t.Run("nil yields empty", func(t *testing.T) {
		assert.Empty(t, FormatChain(nil))
	})
}
