package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind categorizes an API failure so callers can decide how to react
// without inspecting status codes or error strings.
type ErrorKind int

const (
	// KindAuth indicates the API key was rejected (HTTP 401/403).
	// Terminal: never retried, never treated as an unsupported endpoint.
	KindAuth ErrorKind = iota
	// KindRateLimited indicates the vendor throttled the request (HTTP 429)
	// or the local limiter could not admit it in time.
	KindRateLimited
	// KindEmptyBody indicates a 200 response with an empty or
	// whitespace-only body. Expected on legacy endpoints; a soft failure
	// elsewhere. Never a credential problem.
	KindEmptyBody
	// KindConnection indicates a transport-level failure
	// (DNS, TLS, timeout, connection refused).
	KindConnection
	// KindServer indicates an HTTP 5xx response.
	KindServer
	// KindUnknown indicates a response that could not be interpreted,
	// such as a 200 body that fails to parse.
	KindUnknown
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "Authentication Error"
	case KindRateLimited:
		return "Rate Limited"
	case KindEmptyBody:
		return "Empty Response"
	case KindConnection:
		return "Connection Error"
	case KindServer:
		return "Server Error"
	case KindUnknown:
		return "Unexpected Response"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// APIError is a classified failure from the BIOCAT cloud API.
type APIError struct {
	Kind       ErrorKind // Category of error
	Endpoint   string    // Logical endpoint name (e.g. "state")
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (0 if the request never completed)
	Body       string    // Raw response body, retained for diagnostics
	Err        error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the executor may retry this failure.
// Auth failures are terminal and empty bodies are a policy decision for
// the caller, so neither is retryable here. Unknown gets a single retry
// in case the body was truncated in transit (see Client.request).
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindConnection, KindServer, KindRateLimited:
		return true
	default:
		return false
	}
}

// Classify maps a completed HTTP exchange onto an APIError, or nil for a
// usable response. transportErr is the error from the HTTP round trip;
// when it is non-nil the status and body are ignored.
//
// Classification priority: transport failure, auth, throttling, server
// error, empty body. A 200 with a non-empty body is left for the shape
// decoder, which reports KindUnknown on parse failure.
func Classify(endpoint string, transportErr error, statusCode int, body string) *APIError {
	if transportErr != nil {
		return &APIError{
			Kind:     KindConnection,
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      transportErr,
		}
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &APIError{
			Kind:       KindAuth,
			Endpoint:   endpoint,
			Message:    "invalid API key",
			StatusCode: statusCode,
			Body:       body,
		}
	case statusCode == http.StatusTooManyRequests:
		return &APIError{
			Kind:       KindRateLimited,
			Endpoint:   endpoint,
			Message:    "API rate limit exceeded",
			StatusCode: statusCode,
			Body:       body,
		}
	case statusCode >= 500:
		return &APIError{
			Kind:       KindServer,
			Endpoint:   endpoint,
			Message:    fmt.Sprintf("server returned status %d", statusCode),
			StatusCode: statusCode,
			Body:       body,
		}
	case statusCode != http.StatusOK:
		// 400 means the operation is not supported by this device model.
		return &APIError{
			Kind:       KindUnknown,
			Endpoint:   endpoint,
			Message:    fmt.Sprintf("unexpected status %d", statusCode),
			StatusCode: statusCode,
			Body:       body,
		}
	case strings.TrimSpace(body) == "":
		return &APIError{
			Kind:       KindEmptyBody,
			Endpoint:   endpoint,
			Message:    "endpoint returned an empty response",
			StatusCode: statusCode,
		}
	}

	return nil
}

// NewParseError creates an APIError for a 200 response whose body did not
// match the declared shape. The raw body is kept for diagnostics.
func NewParseError(endpoint, body string, err error) *APIError {
	return &APIError{
		Kind:       KindUnknown,
		Endpoint:   endpoint,
		Message:    "response body did not match expected shape",
		StatusCode: http.StatusOK,
		Body:       body,
		Err:        err,
	}
}

// NewValidationError creates an APIError for a request rejected locally
// before anything was sent, such as an out-of-range parameter.
func NewValidationError(endpoint, message string) *APIError {
	return &APIError{
		Kind:     KindUnknown,
		Endpoint: endpoint,
		Message:  message,
	}
}

// IsAuthError reports whether err is a classified authentication failure.
func IsAuthError(err error) bool {
	return hasKind(err, KindAuth)
}

// IsEmptyBody reports whether err is a classified empty-body response.
func IsEmptyBody(err error) bool {
	return hasKind(err, KindEmptyBody)
}

// IsRateLimited reports whether err is a classified throttling failure.
func IsRateLimited(err error) bool {
	return hasKind(err, KindRateLimited)
}

// IsConnectionError reports whether err is a classified transport failure.
func IsConnectionError(err error) bool {
	return hasKind(err, KindConnection)
}

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
