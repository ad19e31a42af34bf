package api

import "net/http"

// ResponseShape describes how an endpoint's 200 body is interpreted.
type ResponseShape int

const (
	// ShapeJSON is a JSON object body.
	ShapeJSON ResponseShape = iota
	// ShapeLiters is a bare decimal number body, in liters.
	ShapeLiters
	// ShapeAny accepts any body, including an empty one. Used for
	// control operations where the vendor returns nothing useful.
	ShapeAny
)

// Endpoint declaratively describes one remote operation.
type Endpoint struct {
	// Name is the logical operation name used in errors and logs.
	Name string
	// Method is the HTTP method. The vendor API is GET throughout,
	// including control operations.
	Method string
	// Path is relative to the API base URL.
	Path string
	// Shape tags how the response body is decoded.
	Shape ResponseShape
	// Legacy marks deprecated webhook-backed aliases that are known to
	// return empty bodies on current firmware. An empty response from a
	// legacy endpoint is expected, not a failure signal.
	Legacy bool
}

// Read endpoints.
var (
	EndpointState = Endpoint{Name: "state", Method: http.MethodGet, Path: "state", Shape: ShapeJSON}

	EndpointMeasurementsDirect = Endpoint{Name: "measurements", Method: http.MethodGet, Path: "measurements/direct", Shape: ShapeJSON}
	EndpointMeasurementsNow    = Endpoint{Name: "measurements-now", Method: http.MethodGet, Path: "measurements/now", Shape: ShapeJSON, Legacy: true}

	EndpointDailyStatisticsDirect = Endpoint{Name: "daily-statistics", Method: http.MethodGet, Path: "statistics/daily/direct", Shape: ShapeJSON}
	EndpointDailyStatistics       = Endpoint{Name: "daily-statistics-webhook", Method: http.MethodGet, Path: "statistics/daily", Shape: ShapeJSON, Legacy: true}

	EndpointDailyConsumption = Endpoint{Name: "daily-consumption", Method: http.MethodGet, Path: "statistics/cumulative/daily", Shape: ShapeLiters}
	EndpointTotalConsumption = Endpoint{Name: "total-consumption", Method: http.MethodGet, Path: "statistics/cumulative/total", Shape: ShapeLiters}
)

// Control endpoints.
var (
	EndpointAbsenceEnable  = Endpoint{Name: "absence-enable", Method: http.MethodGet, Path: "absence/enable", Shape: ShapeAny}
	EndpointAbsenceDisable = Endpoint{Name: "absence-disable", Method: http.MethodGet, Path: "absence/disable", Shape: ShapeAny}

	EndpointPauseProtection   = Endpoint{Name: "pause-protection", Method: http.MethodGet, Path: "leakageprotection/pause", Shape: ShapeAny}
	EndpointUnpauseProtection = Endpoint{Name: "unpause-protection", Method: http.MethodGet, Path: "leakageprotection/unpause", Shape: ShapeAny}

	EndpointSupplyOpen  = Endpoint{Name: "supply-open", Method: http.MethodGet, Path: "watersupply/open", Shape: ShapeAny}
	EndpointSupplyClose = Endpoint{Name: "supply-close", Method: http.MethodGet, Path: "watersupply/close", Shape: ShapeAny}

	EndpointSelfTest         = Endpoint{Name: "selftest", Method: http.MethodGet, Path: "selftest", Shape: ShapeAny}
	EndpointMicroleakageTest = Endpoint{Name: "microleakage-test", Method: http.MethodGet, Path: "mlmeasurement/start", Shape: ShapeAny}
	EndpointAckEvent         = Endpoint{Name: "ack-event", Method: http.MethodGet, Path: "ackevent", Shape: ShapeAny}
)

// ValidationCatalog is the ordered list of endpoints tried during setup
// validation. State comes first because it yields the richest snapshot;
// the rest form a documented fallback chain for device models where the
// state endpoint misbehaves. Deprecated aliases are deliberately absent:
// their empty bodies would say nothing about the credential.
var ValidationCatalog = []Endpoint{
	EndpointState,
	EndpointMeasurementsDirect,
	EndpointTotalConsumption,
	EndpointDailyConsumption,
}
