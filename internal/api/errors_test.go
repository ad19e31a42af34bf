package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	apiErr := Classify("state", cause, 0, "")

	if apiErr == nil {
		t.Fatal("Expected APIError, got nil")
	}
	if apiErr.Kind != KindConnection {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindConnection)
	}
	if !apiErr.Retryable() {
		t.Error("connection failures should be retryable")
	}
	if !errors.Is(apiErr, cause) {
		t.Error("underlying error should be reachable via errors.Is")
	}
}

func TestClassifyTransportErrorWinsOverStatus(t *testing.T) {
	// A transport error means the status and body are meaningless.
	apiErr := Classify("state", errors.New("timeout"), http.StatusUnauthorized, "ignored")

	if apiErr.Kind != KindConnection {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindConnection)
	}
}

func TestClassifyAuth(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		apiErr := Classify("state", nil, status, "")
		if apiErr == nil {
			t.Fatalf("status %d: expected APIError, got nil", status)
		}
		if apiErr.Kind != KindAuth {
			t.Errorf("status %d: Kind = %v, want %v", status, apiErr.Kind, KindAuth)
		}
		if apiErr.Retryable() {
			t.Errorf("status %d: auth failures must never be retryable", status)
		}
	}
}

func TestClassifyRateLimited(t *testing.T) {
	apiErr := Classify("state", nil, http.StatusTooManyRequests, "")

	if apiErr.Kind != KindRateLimited {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindRateLimited)
	}
	if !apiErr.Retryable() {
		t.Error("rate-limited failures should be retryable")
	}
}

func TestClassifyServerError(t *testing.T) {
	for _, status := range []int{500, 502, 503} {
		apiErr := Classify("state", nil, status, "upstream broke")
		if apiErr.Kind != KindServer {
			t.Errorf("status %d: Kind = %v, want %v", status, apiErr.Kind, KindServer)
		}
		if !apiErr.Retryable() {
			t.Errorf("status %d: server errors should be retryable", status)
		}
	}
}

func TestClassifyEmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t "} {
		apiErr := Classify("measurements-now", nil, http.StatusOK, body)
		if apiErr == nil {
			t.Fatalf("body %q: expected APIError, got nil", body)
		}
		if apiErr.Kind != KindEmptyBody {
			t.Errorf("body %q: Kind = %v, want %v", body, apiErr.Kind, KindEmptyBody)
		}
		if apiErr.Retryable() {
			t.Errorf("body %q: empty bodies must not be retried by the executor", body)
		}
	}
}

func TestClassifyEmptyBodyIsNotConnectionOrServer(t *testing.T) {
	apiErr := Classify("state", nil, http.StatusOK, "")

	if IsConnectionError(apiErr) {
		t.Error("empty body must not classify as a connection failure")
	}
	if apiErr.Kind == KindServer {
		t.Error("empty body must not classify as a server error")
	}
	if IsAuthError(apiErr) {
		t.Error("empty body must never look like a credential problem")
	}
}

func TestClassifyUnexpectedStatus(t *testing.T) {
	apiErr := Classify("selftest", nil, http.StatusBadRequest, "operation not supported")

	if apiErr.Kind != KindUnknown {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindUnknown)
	}
	if apiErr.Body != "operation not supported" {
		t.Errorf("Body = %q, should retain the raw body", apiErr.Body)
	}
}

func TestClassifySuccess(t *testing.T) {
	if apiErr := Classify("state", nil, http.StatusOK, `{"online":true}`); apiErr != nil {
		t.Errorf("valid 200 should classify as nil, got %v", apiErr)
	}
}

func TestParseErrorKeepsBody(t *testing.T) {
	body := `{"online": tru` // truncated
	apiErr := NewParseError("state", body, errors.New("unexpected end of JSON input"))

	if apiErr.Kind != KindUnknown {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindUnknown)
	}
	if apiErr.Body != body {
		t.Errorf("Body = %q, want the raw body for diagnostics", apiErr.Body)
	}
}

func TestErrorPredicates(t *testing.T) {
	authErr := Classify("state", nil, http.StatusUnauthorized, "")
	wrapped := fmt.Errorf("validating key: %w", authErr)

	if !IsAuthError(wrapped) {
		t.Error("IsAuthError should see through wrapping")
	}
	if IsAuthError(errors.New("plain")) {
		t.Error("IsAuthError should reject non-API errors")
	}
	if !IsEmptyBody(Classify("x", nil, http.StatusOK, "")) {
		t.Error("IsEmptyBody should match an empty-body classification")
	}
	if !IsRateLimited(Classify("x", nil, http.StatusTooManyRequests, "")) {
		t.Error("IsRateLimited should match a throttling classification")
	}
}

func TestErrorKindString(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindAuth:        "Authentication Error",
		KindRateLimited: "Rate Limited",
		KindEmptyBody:   "Empty Response",
		KindConnection:  "Connection Error",
		KindServer:      "Server Error",
		KindUnknown:     "Unexpected Response",
	}
	for kind, want := range kinds {
		if kind.String() != want {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
