package www

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// upstreamHealth describes the inference service's reachability as seen from
// this node.
type upstreamHealth struct {
	Reachable bool   `json:"reachable"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// apiStatus returns the engine snapshot plus a live upstream health probe.
func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()

	cfg := h.engine.AppConfig()
	cfg.Lock()
	baseURL := cfg.Tracking.BaseURL
	timeout := cfg.Tracking.HealthTimeout
	cfg.Unlock()

	writeJSON(w, map[string]interface{}{
		"status":   st,
		"upstream": probeUpstream(baseURL, timeout),
	})
}

func probeUpstream(baseURL string, timeout time.Duration) upstreamHealth {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := http.Client{Timeout: timeout}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/api/health")
	if err != nil {
		return upstreamHealth{Reachable: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	return upstreamHealth{
		Reachable: resp.StatusCode < 500,
		Status:    resp.StatusCode,
	}
}

func (h *Handlers) apiStartTracking(w http.ResponseWriter, r *http.Request) {
	if !h.engine.StartTracking() {
		writeError(w, http.StatusConflict, "tracking session already running")
		return
	}
	writeJSON(w, map[string]string{
		"status":  "ok",
		"session": h.engine.Client().SessionID(),
	})
}

func (h *Handlers) apiStopTracking(w http.ResponseWriter, r *http.Request) {
	if !h.engine.StopTracking() {
		writeError(w, http.StatusConflict, "no tracking session running")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiGetTrackingConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.AppConfig()
	cfg.Lock()
	tc := cfg.Tracking
	cfg.Unlock()
	writeJSON(w, tc)
}

// apiUpdateTrackingConfig updates the upstream endpoint and tracking options.
// Changes take effect on the next tracking session.
func (h *Handlers) apiUpdateTrackingConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaseURL   *string `json:"base_url"`
		Mode      *string `json:"mode"`
		RobotType *string `json:"robot_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	if req.BaseURL != nil {
		cfg.Tracking.BaseURL = *req.BaseURL
	}
	if req.Mode != nil {
		cfg.Tracking.Mode = *req.Mode
	}
	if req.RobotType != nil {
		cfg.Tracking.RobotType = *req.RobotType
	}
	tc := cfg.Tracking
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, "save config: "+err.Error())
		return
	}
	writeJSON(w, tc)
}
