package track

import "sync"

// ewmaAlpha weights the rolling latency average toward recent round trips.
const ewmaAlpha = 0.2

// Telemetry accumulates per-session counters and round-trip latency
// accounting for the diagnostics and reporting layers.
type Telemetry struct {
	mu              sync.Mutex
	framesSent      uint64
	framesRejected  uint64
	resultsReceived uint64
	sendFailures    uint64
	lastLatencyMs   float64
	avgLatencyMs    float64
	queueDepth      int
}

// TelemetrySnapshot is a point-in-time copy of the telemetry counters.
type TelemetrySnapshot struct {
	FramesSent      uint64  `json:"frames_sent"`
	FramesRejected  uint64  `json:"frames_rejected"`
	ResultsReceived uint64  `json:"results_received"`
	SendFailures    uint64  `json:"send_failures"`
	LastLatencyMs   float64 `json:"last_latency_ms"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	QueueDepth      int     `json:"queue_depth"`
}

// NewTelemetry constructs an empty telemetry accumulator.
func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

// RecordSent counts one frame accepted for transmission.
func (t *Telemetry) RecordSent(depth int) {
	t.mu.Lock()
	t.framesSent++
	t.queueDepth = depth
	t.mu.Unlock()
}

// RecordRejected counts one frame dropped by backpressure.
func (t *Telemetry) RecordRejected() {
	t.mu.Lock()
	t.framesRejected++
	t.mu.Unlock()
}

// RecordSendFailure counts one frame lost to a transport error.
func (t *Telemetry) RecordSendFailure() {
	t.mu.Lock()
	t.sendFailures++
	t.mu.Unlock()
}

// RecordResult folds one matched result into the latency accounting.
func (t *Telemetry) RecordResult(latencyMs float64, depth int) {
	t.mu.Lock()
	t.resultsReceived++
	t.lastLatencyMs = latencyMs
	if t.resultsReceived == 1 {
		t.avgLatencyMs = latencyMs
	} else {
		t.avgLatencyMs = ewmaAlpha*latencyMs + (1-ewmaAlpha)*t.avgLatencyMs
	}
	t.queueDepth = depth
	t.mu.Unlock()
}

// SetQueueDepth records the current in-flight depth.
func (t *Telemetry) SetQueueDepth(depth int) {
	t.mu.Lock()
	t.queueDepth = depth
	t.mu.Unlock()
}

// Reset clears all counters. Used when a fresh session starts.
func (t *Telemetry) Reset() {
	t.mu.Lock()
	t.framesSent = 0
	t.framesRejected = 0
	t.resultsReceived = 0
	t.sendFailures = 0
	t.lastLatencyMs = 0
	t.avgLatencyMs = 0
	t.queueDepth = 0
	t.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (t *Telemetry) Snapshot() TelemetrySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TelemetrySnapshot{
		FramesSent:      t.framesSent,
		FramesRejected:  t.framesRejected,
		ResultsReceived: t.resultsReceived,
		SendFailures:    t.sendFailures,
		LastLatencyMs:   t.lastLatencyMs,
		AvgLatencyMs:    t.avgLatencyMs,
		QueueDepth:      t.queueDepth,
	}
}
