package ui

import (
	"github.com/muurk/biocat/internal/api"
	"github.com/muurk/biocat/internal/urls"
)

// RenderValidation renders the verdict of a connectivity validation run.
func RenderValidation(result *api.ValidationResult, maskedKey string) string {
	switch {
	case result.Success && result.Unconfirmed:
		return NewWarningResult("Key accepted, connectivity unconfirmed").
			AddDetail("API Key", maskedKey).
			AddDetail("Verdict", "every endpoint returned an empty response").
			AddDetail("Next Step", "the device may still be commissioning; retry later").
			Render()

	case result.Success:
		r := NewSuccessResult("Connectivity confirmed").
			AddDetail("API Key", maskedKey).
			AddDetail("Endpoint", result.SucceededEndpoint)
		if result.State != nil {
			r.AddDetail("Device Online", onlineValue(result.State.Online)).
				AddDetail("Mode", result.State.Mode.DisplayName())
		}
		return r.Render()

	case api.IsAuthError(result.LastError):
		return NewFailureResult("API key rejected", result.LastError, []string{
			"Check the key in the Watercryst app under Settings > API",
			"Keys are revocable; the device owner may have rotated it",
			"Re-run \"biocat setup\" once you have a fresh key",
			"API reference: " + urls.APIDocs,
		}).Render()

	default:
		return NewFailureResult("Device unreachable", result.LastError, []string{
			"Verify this machine has internet access",
			"Check " + urls.APIRoot + " availability",
			"The cloud service may be down; retry in a few minutes",
			"Device-side issues: " + urls.VendorSupport,
		}).Render()
	}
}
