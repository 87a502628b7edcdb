// Package errors provides the error taxonomy for the chat widget.
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/diogo/chatwidget/internal/models"
)

// Sentinel errors for common cases
var (
	// ErrEmptyInput is returned by the controller guard for blank text. Never surfaced.
	ErrEmptyInput = errors.New("empty input")
	// ErrAlreadyPending rejects a submission while a request is in flight. Never surfaced.
	ErrAlreadyPending = errors.New("request already pending")
	// ErrMissingAPIKey means no credential was configured
	ErrMissingAPIKey = errors.New("no API key configured")
)

// maxBodySnippet caps the error body kept for diagnostics
const maxBodySnippet = 4096

// APIError represents a non-success HTTP status from the completion endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates an APIError keeping a bounded copy of the response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	if len(body) > maxBodySnippet {
		body = body[:maxBodySnippet]
	}
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError represents a transport failure: the request never got an HTTP answer
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is matches context.DeadlineExceeded
func (e *TimeoutError) Is(target error) bool {
	if target == context.DeadlineExceeded {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// IsNetworkError reports whether err is a transport failure, timeouts included
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) || IsTimeoutError(err)
}

// IsTimeoutError reports whether err is a timeout
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded)
}

// IsGuardError reports whether err is one of the silent controller guards
func IsGuardError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrAlreadyPending)
}

// GetHTTPStatus returns the status code carried by err, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// UserMessage converts a completion failure into the apology placed in the transcript
func UserMessage(err error) string {
	if status := GetHTTPStatus(err); status > 0 {
		return fmt.Sprintf(models.UpstreamApologyFormat, status)
	}
	return models.TransportApology
}
