package track

import (
	"errors"
	"sync"
	"time"

	"teleopedge/config"
)

// Monitor polls the active transport's liveness while tracking runs. It
// guards against streaming transports that die without delivering a close
// event: if the client still believes it is connected on the streaming path
// but the transport reports non-live, the monitor raises failover.
type Monitor struct {
	client   *Client
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewMonitor constructs a monitor for client polling at the configured
// interval.
func NewMonitor(client *Client, cfg config.TrackingConfig) *Monitor {
	return &Monitor{
		client:   client,
		interval: cfg.MonitorInterval,
	}
}

// Start begins the liveness poll loop. Idempotent while running.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop()
}

// Stop halts the poll loop. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.mu.Lock()
	stop := m.stopCh
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *Monitor) check() {
	if m.client.State() != StateConnected {
		return
	}
	if m.client.ActiveTransport() != TransportStreaming {
		return
	}
	if m.client.StreamLive() {
		return
	}
	m.client.Failover(errors.New("stream transport not live"))
}
