package www

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teleopedge/config"
	"teleopedge/engine"
)

type stubSource struct{}

func (stubSource) Grab() ([]byte, bool) { return []byte("data:image/jpeg;base64,abc"), true }

// newTestStack builds an engine router pair against a stub upstream.
func newTestStack(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		http.NotFound(w, r)
	}))

	cfg := config.Defaults()
	cfg.NodeID = "edge-test"
	cfg.Tracking.BaseURL = upstream.URL
	cfg.Tracking.HealthTimeout = time.Second

	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: filepath.Join(t.TempDir(), "teleopedge.yaml"),
		Source:     stubSource{},
	})
	eng.Start()

	router, stopWeb := NewRouter(eng)
	srv := httptest.NewServer(router)

	return srv, func() {
		srv.Close()
		stopWeb()
		eng.Stop()
		upstream.Close()
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, teardown := newTestStack(t)
	defer teardown()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status   engine.Status  `json:"status"`
		Upstream upstreamHealth `json:"upstream"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status.NodeID != "edge-test" {
		t.Errorf("node_id = %q, want edge-test", body.Status.NodeID)
	}
	if body.Status.State != "disconnected" {
		t.Errorf("state = %q, want disconnected before any session", body.Status.State)
	}
	if !body.Upstream.Reachable {
		t.Errorf("upstream.reachable = false, want true (status %d, err %q)",
			body.Upstream.Status, body.Upstream.Error)
	}
}

func TestTrackingConfigGetPut(t *testing.T) {
	srv, teardown := newTestStack(t)
	defer teardown()

	resp, err := http.Get(srv.URL + "/api/config/tracking")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	var tc config.TrackingConfig
	json.NewDecoder(resp.Body).Decode(&tc)
	resp.Body.Close()
	if tc.Mode != "mediapipe" {
		t.Errorf("mode = %q, want mediapipe", tc.Mode)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/config/tracking",
		strings.NewReader(`{"robot_type":"gripper"}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&tc)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	if tc.RobotType != "gripper" {
		t.Errorf("robot_type = %q, want gripper", tc.RobotType)
	}
	// Untouched fields survive the partial update.
	if tc.Mode != "mediapipe" {
		t.Errorf("mode = %q, want mediapipe after partial update", tc.Mode)
	}
}

func TestTrackingConfigBadBody(t *testing.T) {
	srv, teardown := newTestStack(t)
	defer teardown()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/config/tracking",
		strings.NewReader("not json"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStopWithoutSession(t *testing.T) {
	srv, teardown := newTestStack(t)
	defer teardown()

	resp, err := http.Post(srv.URL+"/api/tracking/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("POST stop: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409 with no session running", resp.StatusCode)
	}
}
