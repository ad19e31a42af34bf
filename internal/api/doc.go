// Package api provides a resilient client for the Watercryst BIOCAT
// cloud API.
//
// The vendor API is authenticated with a static key carried in the
// X-API-KEY header, rate-limited to 10 requests/second and 200
// requests/15 minutes per key+device, and inconsistent in its responses:
// some endpoints legitimately return empty bodies, and several paths are
// deprecated aliases that always do. This package absorbs those quirks so
// callers only see typed results and classified errors.
//
// # Request pipeline
//
// Every operation flows through the same pipeline: a dual-window rate
// limiter gates admission, the HTTP exchange runs under a bounded
// timeout, the outcome is classified into a fixed taxonomy (auth,
// rate-limited, empty body, connection, server, unknown), and only the
// kinds worth retrying are retried, with exponential backoff:
//
//	client := api.NewClient(apiKey)
//	state, err := client.State(ctx)
//	if err != nil {
//	    if api.IsAuthError(err) {
//	        // terminal: the key is wrong
//	    }
//	}
//
// Auth failures are never retried. Empty bodies are never retried by the
// executor; whether they matter is a policy decision for the caller.
//
// # Setup validation
//
// Validate walks an ordered endpoint catalog and stops at the first
// success, so a device model that does not support some endpoint can
// still be set up:
//
//	result := client.Validate(ctx)
//	switch {
//	case result.Success && result.Unconfirmed:
//	    // key accepted everywhere, but no data confirmed
//	case result.Success:
//	    // confirmed via result.SucceededEndpoint
//	default:
//	    // result.LastError says why
//	}
//
// # Rate limiting
//
// Each Client owns its RateLimiter, scoped to one API key. Clients for
// different keys never share limiter state, because the vendor enforces
// the ceilings per key+device.
package api
