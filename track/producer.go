package track

import (
	"log"
	"sync"
	"time"

	"teleopedge/config"
)

// logEvery throttles the producer's progress logging; one line per this many
// ticks rather than one per frame.
const logEvery = 64

// Source supplies encoded camera frames to the producer. Grab returns the
// latest frame, or ok=false when no frame is currently available.
type Source interface {
	Grab() (payload []byte, ok bool)
}

// Producer pulls one frame from the capture source on a fixed interval and
// offers it to the client, subject to the in-flight bound. Frames rejected
// by backpressure are simply dropped; the next tick captures a fresher one.
type Producer struct {
	client   *Client
	source   Source
	mode     string
	robot    string
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	ticks    uint64
	accepted uint64
	dropped  uint64
}

// NewProducer constructs a producer feeding client from source at the tuned
// frame interval.
func NewProducer(client *Client, source Source, cfg config.TrackingConfig) *Producer {
	return &Producer{
		client:   client,
		source:   source,
		mode:     cfg.Mode,
		robot:    cfg.RobotType,
		interval: cfg.FrameInterval,
	}
}

// Start begins the tick loop. Idempotent while running.
func (p *Producer) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop()
}

// Stop halts further ticks and waits for the loop to finish. Safe to call
// multiple times.
func (p *Producer) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Producer) loop() {
	defer p.wg.Done()

	p.mu.Lock()
	stop := p.stopCh
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tryEmit()
		}
	}
}

// Stats reports cumulative tick, accepted and dropped counts.
func (p *Producer) Stats() (ticks, accepted, dropped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks, p.accepted, p.dropped
}

// tryEmit captures and offers one frame. No-op when the client is not
// connected or no frame is available.
func (p *Producer) tryEmit() {
	p.mu.Lock()
	p.ticks++
	tick := p.ticks
	p.mu.Unlock()

	if !p.client.Ready() {
		return
	}
	payload, ok := p.source.Grab()
	if !ok {
		return
	}

	frame := &FrameEnvelope{
		Payload:      payload,
		TrackingMode: p.mode,
		RobotType:    p.robot,
	}
	accepted := p.client.Send(frame)

	p.mu.Lock()
	if accepted {
		p.accepted++
	} else {
		p.dropped++
	}
	sent, dropped := p.accepted, p.dropped
	p.mu.Unlock()

	if tick%logEvery == 0 {
		log.Printf("track: producer sent=%d dropped=%d depth=%d",
			sent, dropped, p.client.InFlight())
	}
}
