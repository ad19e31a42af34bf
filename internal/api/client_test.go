package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const mockStateResponse = `{
	"online": true,
	"mode": {"id": "WT", "name": "Water Treatment"},
	"mlState": "idle",
	"waterProtection": {"absenceModeEnabled": false, "pauseLeakageProtectionUntilUTC": ""},
	"event": {"eventId": "", "category": "info", "title": "", "description": "", "timestamp": ""}
}`

const mockMeasurementsResponse = `{
	"waterTemp": 14.5,
	"pressure": 3.2,
	"flowRate": 0.0,
	"lastWaterTapVolume": 7.4,
	"lastWaterTapDuration": 31.0
}`

// recordingServer captures every request so tests can assert on paths,
// headers and call counts.
type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []*http.Request
}

func newRecordingServer(handler http.HandlerFunc) *recordingServer {
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Clone(r.Context()))
		rs.mu.Unlock()
		handler(w, r)
	}))
	return rs
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func (rs *recordingServer) request(i int) *http.Request {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.requests[i]
}

func newTestClient(baseURL string) *Client {
	c := NewClientWithBaseURL("0123456789abcdefFEDCBA9876543210", baseURL)
	c.SetRetry(3, 5*time.Millisecond)
	return c
}

func TestClientSendsAPIKeyHeader(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mockStateResponse))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.State(context.Background()); err != nil {
		t.Fatalf("State() error = %v", err)
	}

	got := server.request(0).Header.Get("X-API-KEY")
	if got != "0123456789abcdefFEDCBA9876543210" {
		t.Errorf("X-API-KEY = %q, want the full key on the wire", got)
	}
}

func TestClientStateParsesSnapshot(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Errorf("path = %q, want /state", r.URL.Path)
		}
		w.Write([]byte(mockStateResponse))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	state, err := client.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}

	if !state.Online {
		t.Error("Online = false, want true")
	}
	if state.Mode.ID != "WT" {
		t.Errorf("Mode.ID = %q, want WT", state.Mode.ID)
	}
	if !state.WaterTreatmentActive() {
		t.Error("WaterTreatmentActive() = false for mode WT")
	}
}

func TestClientMeasurements(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/measurements/direct" {
			t.Errorf("path = %q, want /measurements/direct", r.URL.Path)
		}
		w.Write([]byte(mockMeasurementsResponse))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	m, err := client.Measurements(context.Background())
	if err != nil {
		t.Fatalf("Measurements() error = %v", err)
	}
	if m.WaterTemp != 14.5 {
		t.Errorf("WaterTemp = %v, want 14.5", m.WaterTemp)
	}
	if m.Pressure != 3.2 {
		t.Errorf("Pressure = %v, want 3.2", m.Pressure)
	}
}

func TestClientConsumptionParsesBareNumber(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(" 1234.5 \n"))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	liters, err := client.DailyConsumption(context.Background())
	if err != nil {
		t.Fatalf("DailyConsumption() error = %v", err)
	}
	if liters != 1234.5 {
		t.Errorf("DailyConsumption() = %v, want 1234.5", liters)
	}
}

func TestClientAuthFailureNotRetried(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.State(context.Background())

	if !IsAuthError(err) {
		t.Fatalf("State() error = %v, want auth failure", err)
	}
	if server.count() != 1 {
		t.Errorf("server saw %d requests, auth failures must not be retried", server.count())
	}
}

func TestClientRetryCeilingOnServerError(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	client := newTestClient(server.URL)
	start := time.Now()
	_, err := client.State(context.Background())
	elapsed := time.Since(start)

	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Kind != KindServer {
		t.Fatalf("State() error = %v, want server error", err)
	}
	if server.count() != client.MaxAttempts {
		t.Errorf("server saw %d requests, want exactly %d attempts", server.count(), client.MaxAttempts)
	}
	// Backoff doubles: 5ms then 10ms between the three attempts.
	if elapsed < 15*time.Millisecond {
		t.Errorf("elapsed = %v, want at least the summed backoff delays", elapsed)
	}
}

func TestClientRecoversAfterTransientServerError(t *testing.T) {
	calls := 0
	flaky := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(mockStateResponse))
	})
	defer flaky.Close()

	client := newTestClient(flaky.URL)
	state, err := client.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v, want recovery on retry", err)
	}
	if !state.Online {
		t.Error("Online = false after recovery")
	}
	if flaky.count() != 2 {
		t.Errorf("server saw %d requests, want 2", flaky.count())
	}
}

func TestClientParseFailureRetriedOnce(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"online": tru`)) // truncated JSON
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.State(context.Background())

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("State() error = %T, want *APIError", err)
	}
	if apiErr.Kind != KindUnknown {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindUnknown)
	}
	if apiErr.Body != `{"online": tru` {
		t.Errorf("Body = %q, want the raw body for diagnostics", apiErr.Body)
	}
	if server.count() != 2 {
		t.Errorf("server saw %d requests, parse failures get exactly one retry", server.count())
	}
}

func TestClientEmptyBodyNotRetried(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		// 200 with no body
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.State(context.Background())

	if !IsEmptyBody(err) {
		t.Fatalf("State() error = %v, want empty-body classification", err)
	}
	if server.count() != 1 {
		t.Errorf("server saw %d requests, empty bodies must not be retried by the executor", server.count())
	}
}

func TestClientLegacyEndpointEmptyBody(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/measurements/now" {
			t.Errorf("path = %q, want /measurements/now", r.URL.Path)
		}
		// Current firmware returns nothing on the webhook-backed alias.
	})
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.MeasurementsNow(context.Background())

	if !IsEmptyBody(err) {
		t.Fatalf("MeasurementsNow() error = %v, want empty-body classification", err)
	}
	if server.count() != 1 {
		t.Errorf("server saw %d requests, want 1", server.count())
	}
}

func TestClientDailyStatistics(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statistics/daily/direct" {
			t.Errorf("path = %q, want /statistics/daily/direct", r.URL.Path)
		}
		w.Write([]byte(`{"date": "2026-08-28", "consumption": 312.5}`))
	})
	defer server.Close()

	client := newTestClient(server.URL)
	stats, err := client.DailyStatistics(context.Background())
	if err != nil {
		t.Fatalf("DailyStatistics() error = %v", err)
	}
	if stats["consumption"] != 312.5 {
		t.Errorf("consumption = %v, want 312.5", stats["consumption"])
	}
}

func TestClientControlToleratesEmptyBody(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/watersupply/close" {
			t.Errorf("path = %q, want /watersupply/close", r.URL.Path)
		}
		// Control endpoints return nothing.
	})
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.CloseWaterSupply(context.Background()); err != nil {
		t.Fatalf("CloseWaterSupply() error = %v, empty control responses are fine", err)
	}
}

func TestClientPauseBoundsValidatedLocally(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {})
	defer server.Close()

	client := newTestClient(server.URL)

	for _, minutes := range []int{0, -5, MaxPauseMinutes + 1} {
		if err := client.PauseLeakageProtection(context.Background(), minutes); err == nil {
			t.Errorf("PauseLeakageProtection(%d) should be rejected", minutes)
		}
	}
	if server.count() != 0 {
		t.Errorf("server saw %d requests, out-of-range values must be rejected before any request", server.count())
	}
}

func TestClientControlNotDeduplicated(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {})
	defer server.Close()

	client := newTestClient(server.URL)

	if err := client.PauseLeakageProtection(context.Background(), 30); err != nil {
		t.Fatalf("PauseLeakageProtection(30) error = %v", err)
	}
	if err := client.PauseLeakageProtection(context.Background(), 60); err != nil {
		t.Fatalf("PauseLeakageProtection(60) error = %v", err)
	}

	if server.count() != 2 {
		t.Fatalf("server saw %d requests, want one per control call", server.count())
	}
	if got := server.request(0).URL.Query().Get("minutes"); got != "30" {
		t.Errorf("first call minutes = %q, want 30", got)
	}
	if got := server.request(1).URL.Query().Get("minutes"); got != "60" {
		t.Errorf("second call minutes = %q, want 60", got)
	}
}

func TestClientSnapshotToleratesMissingConsumption(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/state" {
			w.Write([]byte(mockStateResponse))
			return
		}
		// Consumption endpoints unsupported on this device model.
		w.WriteHeader(http.StatusBadRequest)
	})
	defer server.Close()

	client := newTestClient(server.URL)
	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if !snap.State.Online {
		t.Error("State.Online = false, want true")
	}
	if snap.DailyConsumption != nil || snap.TotalConsumption != nil {
		t.Error("consumption counters should be nil when the endpoints fail")
	}
}

func TestClientSnapshotWithConsumption(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/state":
			w.Write([]byte(mockStateResponse))
		case "/statistics/cumulative/daily":
			w.Write([]byte("42.0"))
		case "/statistics/cumulative/total":
			w.Write([]byte("98765.4"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	client := newTestClient(server.URL)
	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.DailyConsumption == nil || *snap.DailyConsumption != 42.0 {
		t.Errorf("DailyConsumption = %v, want 42.0", snap.DailyConsumption)
	}
	if snap.TotalConsumption == nil || *snap.TotalConsumption != 98765.4 {
		t.Errorf("TotalConsumption = %v, want 98765.4", snap.TotalConsumption)
	}
}

func TestClientCancelledContext(t *testing.T) {
	server := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.State(ctx)
	if err == nil {
		t.Fatal("State() with cancelled context should fail")
	}
}

func TestClientMaskedKey(t *testing.T) {
	client := NewClient("0123456789abcdefFEDCBA9876543210")

	masked := client.MaskedKey()
	if masked != "01234567...76543210" {
		t.Errorf("MaskedKey() = %q, want 01234567...76543210", masked)
	}
}
