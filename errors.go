package s3proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotReady is returned when the backend handle has not finished initialising.
	ErrNotReady = errors.New("backend not ready")
	// ErrClosed is returned when the backend handle has been closed.
	ErrClosed = errors.New("backend closed")
	// ErrInvalidKey is returned when a request path does not map to a valid object key.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrBackendInit is returned when the backend fails its startup handshake.
	ErrBackendInit = errors.New("backend initialization failed")
)

// Default error code used when the backend does not supply one.
const CodeInternalError = "InternalError"

// StatusClientClosedRequest is reported when the client went away before the
// backend answered. It never reaches the wire.
const StatusClientClosedRequest = 499

// ProxyError describes a failed backend call in the shape of the object
// store's own error documents.
type ProxyError struct {
	Code       string
	StatusCode int
	Message    string
	Time       time.Time
	URL        string
	Method     string
	Err        error
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

// normalize fills the defaults every ProxyError must carry.
func (e *ProxyError) normalize() {
	if e.Code == "" {
		e.Code = CodeInternalError
	}
	if e.StatusCode < 100 || e.StatusCode > 599 {
		e.StatusCode = http.StatusInternalServerError
	}
	if e.Message == "" {
		e.Message = defaultMessage(e.StatusCode)
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
}

// NewProxyError builds a normalized ProxyError wrapping cause.
func NewProxyError(code string, status int, message string, cause error) *ProxyError {
	e := &ProxyError{
		Code:       code,
		StatusCode: status,
		Message:    message,
		Err:        cause,
	}
	e.normalize()
	return e
}

// ProxyErrorFrom converts any error into a normalized ProxyError.
// The returned value is a copy; err is never modified.
func ProxyErrorFrom(err error) *ProxyError {
	var pe *ProxyError
	if errors.As(err, &pe) {
		out := *pe
		out.normalize()
		return &out
	}

	switch {
	case errors.Is(err, ErrNotReady):
		return NewProxyError("ServiceUnavailable", http.StatusServiceUnavailable, "backend is not ready", err)
	case errors.Is(err, ErrClosed):
		return NewProxyError("ServiceUnavailable", http.StatusServiceUnavailable, "backend is shutting down", err)
	case errors.Is(err, ErrInvalidKey):
		return NewProxyError("InvalidURI", http.StatusBadRequest, "Couldn't parse the specified URI.", err)
	case errors.Is(err, context.Canceled):
		return NewProxyError("RequestCanceled", StatusClientClosedRequest, "request canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewProxyError("RequestTimeout", http.StatusGatewayTimeout, "backend request timed out", err)
	default:
		return NewProxyError(CodeInternalError, http.StatusInternalServerError, "", err)
	}
}

func defaultMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "We encountered an internal error. Please try again."
}
