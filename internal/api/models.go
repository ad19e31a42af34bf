package api

import (
	"strings"
	"time"
)

// DeviceState is the parsed payload of the "state" endpoint. It reflects
// one fresh request; the client never caches it across calls.
type DeviceState struct {
	Online          bool            `json:"online"`
	Mode            OperatingMode   `json:"mode"`
	MLState         string          `json:"mlState"`
	WaterProtection WaterProtection `json:"waterProtection"`
	Event           DeviceEvent     `json:"event"`
}

// OperatingMode identifies what the treatment unit is currently doing.
type OperatingMode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName returns the vendor-provided name, falling back to the
// well-known two-letter code table.
func (m OperatingMode) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return ModeName(m.ID)
}

// WaterTreatmentActive reports whether the water supply is open.
// Mode "WO" is Water Off.
func (s *DeviceState) WaterTreatmentActive() bool {
	return s.Mode.ID != "WO"
}

// WaterProtection carries the leakage-protection flags from the state
// payload.
type WaterProtection struct {
	AbsenceModeEnabled bool `json:"absenceModeEnabled"`
	// PauseLeakageProtectionUntilUTC is an ISO 8601 timestamp, empty when
	// protection is not paused.
	PauseLeakageProtectionUntilUTC string `json:"pauseLeakageProtectionUntilUTC"`
}

// Paused reports whether leakage protection is currently paused.
func (p WaterProtection) Paused() bool {
	until, ok := ParseTimestamp(p.PauseLeakageProtectionUntilUTC)
	return ok && until.After(time.Now())
}

// DeviceEvent is the current (unacknowledged) device event, if any.
type DeviceEvent struct {
	EventID     string `json:"eventId"`
	Category    string `json:"category"` // "error", "warning" or "info"
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// Acknowledgeable reports whether the event should be offered for
// acknowledgement. Informational events clear themselves.
func (e DeviceEvent) Acknowledgeable() bool {
	return e.EventID != "" && (e.Category == "error" || e.Category == "warning")
}

// Measurements is the parsed payload of the direct measurements endpoint.
type Measurements struct {
	WaterTemp            float64 `json:"waterTemp"`            // °C
	Pressure             float64 `json:"pressure"`             // bar
	FlowRate             float64 `json:"flowRate"`             // L/min
	LastWaterTapVolume   float64 `json:"lastWaterTapVolume"`   // L
	LastWaterTapDuration float64 `json:"lastWaterTapDuration"` // s
}

// Snapshot bundles a state read with the cumulative consumption counters,
// mirroring the combined steady-state poll. Consumption values are nil
// when the statistics endpoints are unavailable on a device; that is not
// an error for the snapshot as a whole.
type Snapshot struct {
	State            DeviceState
	DailyConsumption *float64 // liters since midnight
	TotalConsumption *float64 // liters since installation
}

// modeNames maps the two-letter operating mode codes reported by the
// device to human-readable names.
var modeNames = map[string]string{
	"SU": "Start Up",
	"RS": "Rinse",
	"ST": "Self Test",
	"UD": "Firmware Update",
	"FS": "Failsafe",
	"ER": "Error Mode",
	"WO": "Water Off",
	"WT": "Water Treatment",
	"TD": "Thermal Disinfection",
	"MC": "Maintenance Cleaning",
}

// ModeName returns the human-readable name for an operating mode code.
// Unknown codes are returned unchanged.
func ModeName(id string) string {
	if name, ok := modeNames[id]; ok {
		return name
	}
	return id
}

// mlStateNames maps microleakage measurement states to display names.
var mlStateNames = map[string]string{
	"idle":                   "Idle",
	"running":                "Running",
	"success":                "No Leakage",
	"leakage":                "Leakage Detected",
	"cancelled":              "Cancelled",
	"failure-pressure-drop":  "Pressure Drop",
	"failure-water-tap":      "Water Tap Opened",
	"failure-start-pressure": "Low Start Pressure",
	"failure-unknown":        "Unknown Failure",
}

// MicroleakageStateName returns the display name for a microleakage
// measurement state. Unknown states are returned unchanged.
func MicroleakageStateName(state string) string {
	if name, ok := mlStateNames[state]; ok {
		return name
	}
	return state
}

// ParseTimestamp parses the ISO 8601 timestamps the API emits. The API
// uses a trailing "Z" for UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MaskKey renders an API key as its first and last eight characters with
// the middle elided. Full keys must never appear in logs or output.
func MaskKey(key string) string {
	if len(key) <= 16 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-8:]
}
