package track

import (
	"testing"
	"time"
)

func TestMonitorTriggersFailover(t *testing.T) {
	c, em, fs, _ := newTestClient(testConfig())
	defer c.Disconnect()
	connectAndWait(t, c)

	m := NewMonitor(c, testConfig())
	m.Start()
	defer m.Stop()

	// Kill the stream without a close event; the monitor must notice.
	fs.mu.Lock()
	fs.live = false
	fs.mu.Unlock()

	waitFor(t, time.Second, "monitor failover", func() bool {
		return c.ActiveTransport() == TransportFallback
	})
	em.mu.Lock()
	switches := len(em.switches)
	em.mu.Unlock()
	if switches != 1 {
		t.Errorf("transport switches = %d, want 1", switches)
	}
}

func TestMonitorIdleWhileHealthy(t *testing.T) {
	c, em, _, _ := newTestClient(testConfig())
	defer c.Disconnect()
	connectAndWait(t, c)

	m := NewMonitor(c, testConfig())
	m.Start()
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	if got := c.ActiveTransport(); got != TransportStreaming {
		t.Errorf("ActiveTransport = %v, want %v", got, TransportStreaming)
	}
	em.mu.Lock()
	switches := len(em.switches)
	em.mu.Unlock()
	if switches != 0 {
		t.Errorf("transport switches = %d, want 0", switches)
	}
}

func TestMonitorStopIdempotent(t *testing.T) {
	c, _, _, _ := newTestClient(testConfig())
	m := NewMonitor(c, testConfig())
	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
}
