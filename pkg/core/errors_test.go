package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeAPI},
		{404, ErrorTypeAPI},
		{500, ErrorTypeAPI},
		{200, ErrorTypeUnknown},
		{0, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeForStatus(tt.status))
		})
	}
}

func TestClientError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ClientError
		want string
	}{
		{
			"with name",
			NewAPIError(400, "invalid_parameter", "market is required"),
			"[upbit] API (400/invalid_parameter): market is required",
		},
		{
			"status only",
			NewAPIError(500, "", "internal error"),
			"[upbit] API (500): internal error",
		},
		{
			"no status",
			NewSigningError("secret key is empty"),
			"[upbit] SIGNING: secret key is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransportError(cause)

	assert.ErrorIs(t, err, cause)
}

func TestNewRateLimitError(t *testing.T) {
	err := NewRateLimitError("too many requests", 2*time.Second)

	assert.Equal(t, 429, err.StatusCode)
	assert.Equal(t, 2*time.Second, err.RetryAfter)
	assert.True(t, IsRateLimitError(err))
	assert.True(t, IsRetryable(err))
}

func TestIsHelpers(t *testing.T) {
	signing := NewSigningError("access key is empty")
	transport := NewTransportError(errors.New("timeout"))
	api := NewAPIError(400, "bad", "bad request")
	auth := NewAPIError(401, "", "unauthorized")

	assert.True(t, IsSigningError(signing))
	assert.False(t, IsSigningError(transport))

	assert.True(t, IsTransportError(transport))
	assert.True(t, IsRetryable(transport))

	assert.False(t, IsRetryable(api))
	assert.False(t, IsRetryable(signing))

	assert.True(t, IsAuthError(auth))
	assert.False(t, IsAuthError(api))

	assert.False(t, IsRateLimitError(errors.New("plain")))
}

func TestIsErrorType_Wrapped(t *testing.T) {
	inner := NewRateLimitError("slow down", time.Second)
	wrapped := fmt.Errorf("call failed: %w", inner)

	assert.True(t, IsErrorType(wrapped, ErrorTypeRateLimit))

	var ce *ClientError
	require.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, time.Second, ce.RetryAfter)
}
