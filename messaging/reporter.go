package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"teleopedge/engine"

	"github.com/google/uuid"
)

// Reporter accumulates tracking activity and periodically publishes
// telemetry reports to the configured topic.
type Reporter struct {
	client   *Client
	statusFn func() engine.Status
	nodeID   string
	topic    string
	interval time.Duration

	mu     sync.Mutex
	window WindowCounters

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewReporter creates a reporter for the given node identity. statusFn is
// sampled at flush time.
func NewReporter(client *Client, statusFn func() engine.Status, nodeID, topic string, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Reporter{
		client:   client,
		statusFn: statusFn,
		nodeID:   nodeID,
		topic:    topic,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// RecordResult counts one matched inference result in the current window.
func (r *Reporter) RecordResult(detected bool) {
	r.mu.Lock()
	r.window.Results++
	if detected {
		r.window.Detected++
	}
	r.mu.Unlock()
}

// RecordError counts one tracking error in the current window.
func (r *Reporter) RecordError() {
	r.mu.Lock()
	r.window.Errors++
	r.mu.Unlock()
}

// RecordTransportSwitch counts one transport failover in the current window.
func (r *Reporter) RecordTransportSwitch() {
	r.mu.Lock()
	r.window.TransportSwitches++
	r.mu.Unlock()
}

// Start begins the periodic flush loop.
func (r *Reporter) Start() {
	go r.loop()
}

// Stop flushes the current window and halts the loop.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.flush()
	})
}

func (r *Reporter) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Reporter) flush() {
	r.mu.Lock()
	window := r.window
	r.window = WindowCounters{}
	r.mu.Unlock()

	report := TelemetryReport{
		ReportID: uuid.New().String(),
		NodeID:   r.nodeID,
		Time:     time.Now().UTC(),
		Status:   r.statusFn(),
		Window:   window,
	}
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("reporter: encode report: %v", err)
		return
	}
	if err := r.client.Publish(r.topic, data); err != nil {
		log.Printf("reporter: publish report: %v", err)
	}
}
