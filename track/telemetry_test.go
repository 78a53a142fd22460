package track

import (
	"math"
	"testing"
)

func TestTelemetryCounters(t *testing.T) {
	tel := NewTelemetry()

	tel.RecordSent(1)
	tel.RecordSent(2)
	tel.RecordRejected()
	tel.RecordSendFailure()

	snap := tel.Snapshot()
	if snap.FramesSent != 2 {
		t.Errorf("FramesSent = %d, want 2", snap.FramesSent)
	}
	if snap.FramesRejected != 1 {
		t.Errorf("FramesRejected = %d, want 1", snap.FramesRejected)
	}
	if snap.SendFailures != 1 {
		t.Errorf("SendFailures = %d, want 1", snap.SendFailures)
	}
}

func TestTelemetryLatencyAverage(t *testing.T) {
	tel := NewTelemetry()

	tel.RecordResult(100, 0)
	snap := tel.Snapshot()
	if snap.AvgLatencyMs != 100 {
		t.Errorf("first AvgLatencyMs = %f, want 100 (seeded from the first sample)", snap.AvgLatencyMs)
	}

	tel.RecordResult(200, 0)
	snap = tel.Snapshot()
	want := 0.2*200 + 0.8*100
	if math.Abs(snap.AvgLatencyMs-want) > 1e-9 {
		t.Errorf("AvgLatencyMs = %f, want %f", snap.AvgLatencyMs, want)
	}
	if snap.LastLatencyMs != 200 {
		t.Errorf("LastLatencyMs = %f, want 200", snap.LastLatencyMs)
	}
	if snap.ResultsReceived != 2 {
		t.Errorf("ResultsReceived = %d, want 2", snap.ResultsReceived)
	}
}

func TestTelemetryReset(t *testing.T) {
	tel := NewTelemetry()
	tel.RecordSent(1)
	tel.RecordResult(50, 1)

	tel.Reset()
	snap := tel.Snapshot()
	if snap != (TelemetrySnapshot{}) {
		t.Errorf("snapshot after reset = %+v, want zero", snap)
	}

	// The average must seed fresh after a reset.
	tel.RecordResult(10, 0)
	if got := tel.Snapshot().AvgLatencyMs; got != 10 {
		t.Errorf("AvgLatencyMs after reset = %f, want 10", got)
	}
}
