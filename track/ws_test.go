package track

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/api/tracking/live"},
		{"https://track.example.com", "wss://track.example.com/api/tracking/live"},
		{"http://localhost:8000/", "ws://localhost:8000/api/tracking/live"},
	}
	for _, tc := range cases {
		if got := streamURL(tc.base); got != tc.want {
			t.Errorf("streamURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

// echoTrackingServer upgrades /api/tracking/live and answers every image
// message with a tracking_result.
func echoTrackingServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tracking/live" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg imageMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			resp := map[string]interface{}{
				"type": "tracking_result",
				"data": ResultPayload{
					Success:          true,
					HandDetected:     true,
					RobotType:        msg.RobotType,
					ProcessingTimeMs: 5,
				},
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func TestWSTransportRoundTrip(t *testing.T) {
	srv := echoTrackingServer(t)
	defer srv.Close()

	sink := &sinkRecorder{}
	tr := newWSTransport(srv.URL, time.Second, sink)

	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tr.Close(true)

	if !tr.Live() {
		t.Fatal("Live = false after Open")
	}

	frame := &FrameEnvelope{
		Payload:      []byte("data:image/jpeg;base64,abc"),
		TrackingMode: "mediapipe",
		RobotType:    "so101",
		SentAt:       time.Now(),
	}
	if err := tr.Send(context.Background(), frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, time.Second, "stream result", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.results) == 1
	})
	sink.mu.Lock()
	res := sink.results[0]
	sink.mu.Unlock()
	if !res.HandDetected || res.RobotType != "so101" {
		t.Errorf("result = %+v, want detected so101", res)
	}
}

func TestWSTransportDialFailure(t *testing.T) {
	tr := newWSTransport("http://127.0.0.1:1", 100*time.Millisecond, &sinkRecorder{})
	err := tr.Open(context.Background())
	if err == nil {
		t.Fatal("Open succeeded against a closed port")
	}
	if tr.Live() {
		t.Error("Live = true after failed Open")
	}
}

func TestWSTransportIgnoresUnknownMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(map[string]string{"type": "pong"})
		conn.WriteJSON(map[string]interface{}{"type": "config", "data": map[string]string{"robot": "so101"}})
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(map[string]interface{}{
			"type": "tracking_result",
			"data": ResultPayload{Success: true},
		})
		// Hold the connection open until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sink := &sinkRecorder{}
	tr := newWSTransport(srv.URL, time.Second, sink)
	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tr.Close(true)

	waitFor(t, time.Second, "tracking result after noise", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.results) == 1
	})
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.parseErr) != 1 {
		t.Errorf("parse errors = %d, want 1 for the malformed message", len(sink.parseErr))
	}
}

func TestClientOverLiveStream(t *testing.T) {
	srv := echoTrackingServer(t)
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL
	em := &mockEmitter{}
	c := NewClient(cfg, em)
	defer c.Disconnect()

	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitFor(t, 2*time.Second, "connected", func() bool {
		return c.State() == StateConnected
	})

	if !c.Send(&FrameEnvelope{Payload: []byte("data:image/jpeg;base64,abc"), TrackingMode: cfg.Mode, RobotType: cfg.RobotType}) {
		t.Fatal("send rejected")
	}
	waitFor(t, 2*time.Second, "result", func() bool {
		em.mu.Lock()
		defer em.mu.Unlock()
		return len(em.results) == 1
	})

	em.mu.Lock()
	res := em.results[0]
	em.mu.Unlock()
	if res.Seq != 1 {
		t.Errorf("seq = %d, want 1", res.Seq)
	}
	if !res.Detected {
		t.Error("Detected = false, want true")
	}
	if res.LatencyMs < 0 {
		t.Errorf("LatencyMs = %f, want >= 0", res.LatencyMs)
	}
	if got := c.InFlight(); got != 0 {
		t.Errorf("InFlight = %d, want 0", got)
	}
}
