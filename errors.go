package httpfactory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state
	ErrCircuitOpen = errors.New("httpfactory: circuit open")

	// ErrClientClosed is returned when a request is made after Close
	ErrClientClosed = errors.New("httpfactory: client closed")

	// ErrRetryBudgetExceeded is returned when the retry budget is exhausted
	ErrRetryBudgetExceeded = errors.New("httpfactory: retry budget exceeded")
)

// ErrorType classifies a ClientError for programmatic handling.
type ErrorType string

// Error type values carried by ClientError.Type.
const (
	ErrorTypeNetwork     ErrorType = "Network"
	ErrorTypeTimeout     ErrorType = "Timeout"
	ErrorTypeHTTPStatus  ErrorType = "HTTPStatus"
	ErrorTypeRateLimit   ErrorType = "RateLimit"
	ErrorTypeRetryBudget ErrorType = "RetryBudget"
	ErrorTypeCircuitOpen ErrorType = "CircuitOpen"
	ErrorTypeValidation  ErrorType = "Validation"
	ErrorTypeCanceled    ErrorType = "Canceled"
)

// CircuitOpenError is returned when the circuit breaker rejects a request
// without attempting it. Remaining reports how long until the breaker
// admits a probe request.
type CircuitOpenError struct {
	Remaining time.Duration
}

// Error implements error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("httpfactory: circuit open, retry in %v", e.Remaining.Round(time.Millisecond))
}

// Is reports true for ErrCircuitOpen so callers can match with errors.Is.
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// StatusError is returned when the server answers with a 4xx or 5xx status.
// Snippet holds up to the first 512 bytes of the response body for
// diagnostics.
type StatusError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	Snippet    string
}

// Error implements error interface.
func (e *StatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("httpfactory: %s %s: %s: %s", e.Method, e.URL, e.Status, e.Snippet)
	}
	return fmt.Sprintf("httpfactory: %s %s: %s", e.Method, e.URL, e.Status)
}

// Temporary reports whether the status indicates a server-side condition
// that may clear on retry (any 5xx, plus 429).
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ClientError carries structured context about a failed request: what was
// attempted, where it failed, and the underlying cause.
type ClientError struct {
	Type       ErrorType
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	Attempt    int
	MaxRetries int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d/%d\n", e.Attempt, e.MaxRetries)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsTransient determines if an error represents a transient failure that
// might succeed on a fresh call. Returns true for network errors, timeouts,
// 5xx server responses, 429 rate limiting, and retry budget exhaustion.
// Returns false for other 4xx responses, circuit breaker rejections, and
// context cancellation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrClientClosed) {
		return false
	}
	if errors.Is(err, ErrRetryBudgetExceeded) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeRetryBudget:
			return true
		case ErrorTypeHTTPStatus:
			return clientErr.StatusCode >= 500 || clientErr.StatusCode == 429
		default:
			return false
		}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}
