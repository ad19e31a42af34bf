package api

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/muurk/biocat/internal/logging"
)

// ValidationResult is the verdict of a setup-time connectivity check.
type ValidationResult struct {
	// Success reports whether the API key can be used for this device.
	Success bool

	// SucceededEndpoint is the logical name of the first endpoint that
	// answered with usable data. Empty on failure and on a soft pass.
	SucceededEndpoint string

	// Unconfirmed is set on a soft pass: every probed endpoint returned
	// an empty body, so the key was not rejected anywhere but no device
	// data could be confirmed. Callers should verify entity states after
	// setup.
	Unconfirmed bool

	// State is the device snapshot retrieved during validation. Only the
	// state endpoint contributes one; it is nil when another endpoint
	// confirmed connectivity.
	State *DeviceState

	// LastError is the classified error that decided a failed verdict,
	// or the last error seen before a soft pass. Nil on a full success.
	LastError *APIError
}

// Validate checks, at setup time, that the client's API key can reach a
// device. It walks ValidationCatalog in order and stops at the first
// endpoint that answers with data.
//
// The outcome is two-tiered. An auth failure anywhere stops the walk and
// fails hard: a rejected key is definitive and probing further endpoints
// would only burn rate-limit budget. If the walk exhausts the catalog and
// every recorded failure was an empty body, the key is presumed valid and
// the result is a soft pass with Unconfirmed set. Any other exhausted walk
// fails, surfacing the last error that was not an empty body — a
// transient connectivity problem must never pass as a valid credential.
func (c *Client) Validate(ctx context.Context) *ValidationResult {
	result := &ValidationResult{}
	var lastNonEmpty *APIError

	for _, ep := range ValidationCatalog {
		if err := ctx.Err(); err != nil {
			result.LastError = &APIError{Kind: KindConnection, Message: "validation cancelled", Err: err}
			return result
		}

		logging.Debug("trying validation endpoint", zap.String("endpoint", ep.Name))

		var apiErr *APIError
		if ep.Name == EndpointState.Name {
			state, err := c.State(ctx)
			if err == nil {
				result.Success = true
				result.SucceededEndpoint = ep.Name
				result.State = state
				logging.LogValidationVerdict(true, ep.Name, false)
				return result
			}
			errors.As(err, &apiErr)
		} else {
			var err error
			switch ep.Shape {
			case ShapeLiters:
				_, err = c.getLiters(ctx, ep)
			default:
				var probe map[string]any
				err = c.getJSON(ctx, ep, nil, &probe)
			}
			if err == nil {
				result.Success = true
				result.SucceededEndpoint = ep.Name
				logging.LogValidationVerdict(true, ep.Name, false)
				return result
			}
			errors.As(err, &apiErr)
		}

		if apiErr == nil {
			apiErr = &APIError{Kind: KindUnknown, Endpoint: ep.Name, Message: "unclassified validation failure"}
		}

		if apiErr.Kind == KindAuth {
			result.LastError = apiErr
			logging.Warn("API key rejected", zap.String("endpoint", ep.Name))
			return result
		}

		result.LastError = apiErr
		if apiErr.Kind != KindEmptyBody {
			lastNonEmpty = apiErr
		}
		logging.Debug("validation endpoint failed",
			zap.String("endpoint", ep.Name),
			zap.String("kind", apiErr.Kind.String()),
		)
	}

	if lastNonEmpty == nil {
		// Every endpoint answered 200 with an empty body. No evidence of
		// a bad key, no confirmed data either.
		result.Success = true
		result.Unconfirmed = true
		logging.Warn("all validation endpoints returned empty responses; " +
			"accepting key, verify entity states after setup")
		logging.LogValidationVerdict(true, "", true)
		return result
	}

	result.LastError = lastNonEmpty
	logging.LogValidationVerdict(false, "", false)
	return result
}
