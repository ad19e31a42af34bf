// Package urls provides centralized constants for the vendor URLs used
// throughout the application.
//
// All vendor-facing URLs are defined here as exported constants so they
// can be updated in a single location when the vendor moves things.
package urls

// APIRoot is the public root of the Watercryst cloud API. Shown in
// troubleshooting output; the client's request URL lives in the api
// package.
const APIRoot = "https://appapi.watercryst.com/v1"

// APIDocs is the vendor's API documentation portal, where API keys and
// the endpoint reference are described.
const APIDocs = "https://appapi.watercryst.com/swagger"

// VendorSupport is the vendor's support site for device-side issues
// that the API cannot resolve.
const VendorSupport = "https://www.watercryst.com/en/service"
