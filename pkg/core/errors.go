package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a client error.
type ErrorType int

// Error type constants categorize errors for retry decisions and handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeSigning indicates missing or malformed credentials. Not retryable.
	ErrorTypeSigning
	// ErrorTypeAuth indicates the service rejected the credentials (401/403).
	ErrorTypeAuth
	// ErrorTypeRateLimit indicates the request quota was exceeded (429).
	// Retryable after the reported wait.
	ErrorTypeRateLimit
	// ErrorTypeAPI indicates a structured error response for a rejected request.
	// Not retryable without changing the request.
	ErrorTypeAPI
	// ErrorTypeTransport indicates a network-level failure. Transient, retryable.
	ErrorTypeTransport
	// ErrorTypeConnection indicates a stream socket failure.
	ErrorTypeConnection
	// ErrorTypeDecode indicates a payload that could not be decoded.
	ErrorTypeDecode
	// ErrorTypeValidation indicates a client-side validation failure.
	ErrorTypeValidation
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"SIGNING",
		"AUTH",
		"RATE_LIMIT",
		"API",
		"TRANSPORT",
		"CONNECTION",
		"DECODE",
		"VALIDATION",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrStreamClosed is returned when attempting to use a closed stream session.
	ErrStreamClosed = errors.New("stream is closed")
	// ErrNotConnected is returned when the websocket is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrNoCredentials is returned when an authenticated call is attempted
	// without API credentials configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrReconnectExhausted is returned when the stream session gives up
	// reconnecting after the configured number of attempts.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// ClientError represents a structured error from the client or the service.
// It carries enough context for programmatic handling: the category, the
// HTTP status, the service's error name and message, and the retry-after
// hint on quota rejections.
type ClientError struct {
	// Type categorizes the error for retry decisions.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, when the error came from a response.
	StatusCode int `json:"status_code,omitempty"`
	// Name is the service-specific error name from the error envelope.
	Name string `json:"name,omitempty"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// RetryAfter is the wait suggested by the service on quota rejections.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
	// Err is the underlying cause, when one exists.
	Err error `json:"-"`
}

// Error implements the error interface for ClientError.
func (e *ClientError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("[upbit] %s (%d/%s): %s", e.Type, e.StatusCode, e.Name, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[upbit] %s (%d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[upbit] %s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a ClientError of the given type.
// The timestamp is set to the current time.
func NewClientError(errorType ErrorType, message string) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewAPIError creates a ClientError for a structured service error response.
func NewAPIError(statusCode int, name, message string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeForStatus(statusCode),
		StatusCode: statusCode,
		Name:       name,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// NewRateLimitError creates a ClientError for a quota rejection with the
// service's retry-after hint.
func NewRateLimitError(message string, retryAfter time.Duration) *ClientError {
	return &ClientError{
		Type:       ErrorTypeRateLimit,
		StatusCode: 429,
		Message:    message,
		RetryAfter: retryAfter,
		Timestamp:  time.Now(),
	}
}

// NewSigningError creates a ClientError for a credential problem.
func NewSigningError(message string) *ClientError {
	return &ClientError{
		Type:      ErrorTypeSigning,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewTransportError wraps a network-level failure.
func NewTransportError(err error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeTransport,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Err:       err,
	}
}

// ErrorTypeForStatus maps an HTTP status code to an error category.
func ErrorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 400 && statusCode < 600:
		return ErrorTypeAPI
	default:
		return ErrorTypeUnknown
	}
}

// IsErrorType returns true if the error is a ClientError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsSigningError returns true for credential problems. Not retryable.
func IsSigningError(err error) bool {
	return IsErrorType(err, ErrorTypeSigning)
}

// IsRateLimitError returns true for quota rejections.
// Retry after the hint carried by the error.
func IsRateLimitError(err error) bool {
	return IsErrorType(err, ErrorTypeRateLimit)
}

// IsTransportError returns true for network-level failures.
// These are transient and retryable with backoff.
func IsTransportError(err error) bool {
	return IsErrorType(err, ErrorTypeTransport)
}

// IsAuthError returns true when the service rejected the credentials.
func IsAuthError(err error) bool {
	return IsErrorType(err, ErrorTypeAuth)
}

// IsRetryable returns true if the error may succeed on retry without
// changing the request.
func IsRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrorTypeRateLimit || ce.Type == ErrorTypeTransport ||
			ce.Type == ErrorTypeConnection
	}
	return false
}
