package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/biocat/internal/logging"
)

const (
	// DefaultBaseURL is the vendor cloud API root.
	DefaultBaseURL = "https://appapi.watercryst.com/v1"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxAttempts is the total attempt ceiling for retryable failures.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the backoff delay before the first retry.
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay caps the exponential backoff.
	DefaultMaxRetryDelay = 30 * time.Second

	// apiKeyHeader carries the credential on every request.
	apiKeyHeader = "X-API-KEY"

	// MinPauseMinutes and MaxPauseMinutes bound PauseLeakageProtection.
	MinPauseMinutes = 1
	MaxPauseMinutes = 4320
)

// Client talks to one BIOCAT device through the vendor cloud API.
//
// The client owns a RateLimiter scoped to its API key; creating one client
// per key keeps multiple devices in one process from cross-throttling each
// other. A Client is safe for concurrent use. Reads always hit the network;
// nothing is cached. Control operations are not idempotent: issuing the
// same command twice triggers the device action twice.
type Client struct {
	// BaseURL is the API root (default: the vendor cloud).
	BaseURL string

	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client

	// MaxAttempts is the total attempt ceiling for retryable failures.
	MaxAttempts int

	// RetryDelay is the initial delay between retry attempts.
	RetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff.
	MaxRetryDelay time.Duration

	apiKey  string
	limiter *RateLimiter
}

// NewClient creates a client for the vendor cloud API. The API key is
// immutable for the lifetime of the client and is never logged in full.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root.
// Used for tests and for on-premise API gateways.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxAttempts:   DefaultMaxAttempts,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
		apiKey:        apiKey,
		limiter:       NewRateLimiter(),
	}
}

// SetTimeout sets the HTTP request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures the retry ceiling and initial backoff delay.
func (c *Client) SetRetry(maxAttempts int, retryDelay time.Duration) {
	c.MaxAttempts = maxAttempts
	c.RetryDelay = retryDelay
}

// MaskedKey returns the client's API key in masked form, suitable for
// logs and display.
func (c *Client) MaskedKey() string {
	return MaskKey(c.apiKey)
}

// Limiter exposes the client's rate limiter for diagnostics.
func (c *Client) Limiter() *RateLimiter {
	return c.limiter
}

// request performs one logical request: rate-limit admission, the HTTP
// exchange, outcome classification, and the retry policy. decode is
// applied to a non-empty 200 body and may report a parse failure, which
// is retried exactly once in case the body was truncated in transit.
// A nil decode accepts any body.
//
// Connection, server and rate-limit failures are retried up to
// MaxAttempts with exponential backoff. Auth failures and empty bodies
// are returned immediately: the first is terminal, the second is a
// policy decision that belongs to the caller.
func (c *Client) request(ctx context.Context, ep Endpoint, params url.Values, decode func(body string) *APIError) *APIError {
	var lastErr *APIError
	parseRetried := false
	delay := c.RetryDelay

	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return &APIError{Kind: KindConnection, Endpoint: ep.Name, Message: "request cancelled", Err: ctx.Err()}
			case <-timer.C:
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		apiErr := c.attempt(ctx, ep, params, decode)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr

		switch {
		case apiErr.Retryable():
			logging.Warn("API request failed, will retry",
				zap.String("endpoint", ep.Name),
				zap.String("kind", apiErr.Kind.String()),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.MaxAttempts),
			)
		case apiErr.Kind == KindUnknown && apiErr.StatusCode == http.StatusOK && !parseRetried:
			// The body may have been truncated in transit.
			parseRetried = true
			logging.Warn("API response failed to parse, retrying once",
				zap.String("endpoint", ep.Name),
			)
		default:
			return apiErr
		}
	}

	return lastErr
}

// attempt performs a single admission + HTTP exchange + classification.
func (c *Client) attempt(ctx context.Context, ep Endpoint, params url.Values, decode func(body string) *APIError) *APIError {
	if err := c.limiter.Acquire(ctx); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Endpoint = ep.Name
			return apiErr
		}
		return &APIError{Kind: KindUnknown, Endpoint: ep.Name, Message: "rate limiter failed", Err: err}
	}

	reqURL := c.BaseURL + "/" + ep.Path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, reqURL, nil)
	if err != nil {
		return &APIError{Kind: KindUnknown, Endpoint: ep.Name, Message: "failed to build request", Err: err}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	logging.Debug("API request",
		zap.String("endpoint", ep.Name),
		zap.String("method", ep.Method),
		zap.String("path", ep.Path),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Classify(ep.Name, err, 0, "")
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(ep.Name, err, 0, "")
	}
	body := string(bodyBytes)

	logging.Debug("API response",
		zap.String("endpoint", ep.Name),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(body)),
	)

	apiErr := Classify(ep.Name, nil, resp.StatusCode, body)
	if apiErr != nil {
		if apiErr.Kind == KindEmptyBody && ep.Shape == ShapeAny {
			// Control endpoints legitimately return nothing.
			return nil
		}
		return apiErr
	}

	if decode == nil {
		return nil
	}
	return decode(body)
}

// getJSON issues a request whose 200 body is decoded as JSON into v.
func (c *Client) getJSON(ctx context.Context, ep Endpoint, params url.Values, v any) error {
	apiErr := c.request(ctx, ep, params, func(body string) *APIError {
		if err := json.Unmarshal([]byte(body), v); err != nil {
			return NewParseError(ep.Name, body, err)
		}
		return nil
	})
	if apiErr != nil {
		return apiErr
	}
	return nil
}

// getLiters issues a request whose 200 body is a bare decimal number of
// liters.
func (c *Client) getLiters(ctx context.Context, ep Endpoint) (float64, error) {
	var liters float64
	apiErr := c.request(ctx, ep, nil, func(body string) *APIError {
		v, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
		if err != nil {
			return NewParseError(ep.Name, body, err)
		}
		liters = v
		return nil
	})
	if apiErr != nil {
		return 0, apiErr
	}
	return liters, nil
}

// invoke issues a control request. The vendor returns empty or
// uninteresting bodies for these, so nothing is decoded.
func (c *Client) invoke(ctx context.Context, ep Endpoint, params url.Values) error {
	if apiErr := c.request(ctx, ep, params, nil); apiErr != nil {
		return apiErr
	}
	return nil
}

// State fetches the current device state.
func (c *Client) State(ctx context.Context) (*DeviceState, error) {
	var state DeviceState
	if err := c.getJSON(ctx, EndpointState, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Measurements fetches current sensor readings via the direct endpoint.
func (c *Client) Measurements(ctx context.Context) (*Measurements, error) {
	var m Measurements
	if err := c.getJSON(ctx, EndpointMeasurementsDirect, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MeasurementsNow fetches sensor readings via the deprecated
// webhook-backed endpoint. Current firmware returns an empty body here;
// callers should expect KindEmptyBody and prefer Measurements.
func (c *Client) MeasurementsNow(ctx context.Context) (*Measurements, error) {
	var m Measurements
	if err := c.getJSON(ctx, EndpointMeasurementsNow, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DailyStatistics fetches today's statistics via the direct endpoint.
// The payload layout varies across firmware versions, so it is returned
// undecoded.
func (c *Client) DailyStatistics(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.getJSON(ctx, EndpointDailyStatisticsDirect, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// DailyStatisticsWebhook fetches today's statistics via the deprecated
// alias. See MeasurementsNow for the caveat on empty bodies.
func (c *Client) DailyStatisticsWebhook(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.getJSON(ctx, EndpointDailyStatistics, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// DailyConsumption returns water consumption since midnight, in liters.
func (c *Client) DailyConsumption(ctx context.Context) (float64, error) {
	return c.getLiters(ctx, EndpointDailyConsumption)
}

// TotalConsumption returns water consumption since installation, in liters.
func (c *Client) TotalConsumption(ctx context.Context) (float64, error) {
	return c.getLiters(ctx, EndpointTotalConsumption)
}

// Snapshot fetches the device state together with the cumulative
// consumption counters. Consumption endpoints are not supported by every
// device model, so their failures leave the counters nil instead of
// failing the snapshot; an auth failure is still surfaced.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	state, err := c.State(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{State: *state}

	if daily, err := c.DailyConsumption(ctx); err == nil {
		snap.DailyConsumption = &daily
	} else if IsAuthError(err) {
		return nil, err
	} else {
		logging.Warn("daily consumption unavailable", zap.Error(err))
	}

	if total, err := c.TotalConsumption(ctx); err == nil {
		snap.TotalConsumption = &total
	} else if IsAuthError(err) {
		return nil, err
	} else {
		logging.Warn("total consumption unavailable", zap.Error(err))
	}

	return snap, nil
}

// EnableAbsenceMode turns absence mode on.
func (c *Client) EnableAbsenceMode(ctx context.Context) error {
	return c.invoke(ctx, EndpointAbsenceEnable, nil)
}

// DisableAbsenceMode turns absence mode off.
func (c *Client) DisableAbsenceMode(ctx context.Context) error {
	return c.invoke(ctx, EndpointAbsenceDisable, nil)
}

// PauseLeakageProtection pauses leakage protection for the given number
// of minutes. The bound is validated before any request is sent.
func (c *Client) PauseLeakageProtection(ctx context.Context, minutes int) error {
	if minutes < MinPauseMinutes || minutes > MaxPauseMinutes {
		return NewValidationError(EndpointPauseProtection.Name,
			fmt.Sprintf("minutes must be between %d and %d, got %d", MinPauseMinutes, MaxPauseMinutes, minutes))
	}
	params := url.Values{}
	params.Set("minutes", strconv.Itoa(minutes))
	return c.invoke(ctx, EndpointPauseProtection, params)
}

// UnpauseLeakageProtection resumes leakage protection immediately.
func (c *Client) UnpauseLeakageProtection(ctx context.Context) error {
	return c.invoke(ctx, EndpointUnpauseProtection, nil)
}

// OpenWaterSupply opens the water supply valve.
func (c *Client) OpenWaterSupply(ctx context.Context) error {
	return c.invoke(ctx, EndpointSupplyOpen, nil)
}

// CloseWaterSupply closes the water supply valve.
func (c *Client) CloseWaterSupply(ctx context.Context) error {
	return c.invoke(ctx, EndpointSupplyClose, nil)
}

// StartSelfTest starts the device self test.
func (c *Client) StartSelfTest(ctx context.Context) error {
	return c.invoke(ctx, EndpointSelfTest, nil)
}

// StartMicroleakageMeasurement starts a microleakage test.
func (c *Client) StartMicroleakageMeasurement(ctx context.Context) error {
	return c.invoke(ctx, EndpointMicroleakageTest, nil)
}

// AcknowledgeEvent acknowledges the current device event.
func (c *Client) AcknowledgeEvent(ctx context.Context) error {
	return c.invoke(ctx, EndpointAckEvent, nil)
}
