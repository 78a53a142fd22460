package track

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"teleopedge/config"
)

// pendingFrame tracks one streaming send awaiting its result. The service
// does not echo correlation ids, so results are matched to the oldest
// pending entry; under the in-flight bound ordering is FIFO.
type pendingFrame struct {
	seq    uint64
	sentAt time.Time
}

// Client is the connection manager for the tracking service. It owns the
// lifecycle state machine, the active transport selection, the in-flight
// accounting, and the reconnect policy.
//
// All state mutation happens under a single mutex, which is never held
// across transport I/O.
type Client struct {
	cfg     config.TrackingConfig
	emitter EventEmitter

	stream   Transport
	fallback Transport
	inflight *InFlightCounter
	metrics  *Telemetry

	mu        sync.Mutex
	state     ConnState
	selector  TransportKind
	policy    *ReconnectPolicy
	pending   []pendingFrame
	nextSeq   uint64
	sessionID string
	running   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

// NewClient constructs a client for the configured service. Connect starts a
// session; the zero state is Disconnected.
func NewClient(cfg config.TrackingConfig, emitter EventEmitter) *Client {
	c := &Client{
		cfg:      cfg,
		emitter:  emitter,
		inflight: NewInFlightCounter(cfg.MaxInFlight),
		metrics:  NewTelemetry(),
		policy: NewReconnectPolicy(
			cfg.MaxReconnectAttempts,
			cfg.ReconnectBaseDelay,
			cfg.ReconnectDelayCap,
		),
		state:    StateDisconnected,
		selector: TransportStreaming,
	}
	c.stream = newWSTransport(cfg.BaseURL, cfg.ConnectTimeout, c)
	c.fallback = newHTTPTransport(cfg.BaseURL, cfg.FallbackTimeout, c)
	return c
}

// Connect starts a session, or restarts the machine from a terminal Failed
// state. The dial and retry sequence runs in the background; transitions
// surface through the emitter. Returns an error if a session is already
// active.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.running && c.state != StateFailed {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("track: connect: session already active (%s)", state)
	}

	restart := c.running // Failed restart keeps the session's valve loop
	if !restart {
		c.runCtx, c.runCancel = context.WithCancel(context.Background())
		c.sessionID = uuid.NewString()
		c.running = true
		c.metrics.Reset()
	}
	c.selector = TransportStreaming
	c.policy.Reset()
	c.inflight.Reset()
	c.pending = nil
	from := c.state
	c.state = StateConnecting
	c.wg.Add(1)
	if !restart {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	c.emitter.EmitStateChange(from, StateConnecting)
	go c.runConnect(true)
	if !restart {
		go c.valveLoop()
	}
	return nil
}

// Disconnect ends the session: closes the active transport, cancels every
// timer, resets the in-flight accounting and transport selection, and leaves
// the machine Disconnected. Idempotent and safe to call from any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}
	c.running = false
	c.runCancel()
	from := c.state
	c.mu.Unlock()

	c.stream.Close(true)
	c.wg.Wait()

	c.mu.Lock()
	c.pending = nil
	c.inflight.Reset()
	c.selector = TransportStreaming
	c.state = StateDisconnected
	c.mu.Unlock()

	if from != StateDisconnected {
		c.emitter.EmitStateChange(from, StateDisconnected)
	}
	log.Printf("track: disconnected (session=%s)", c.SessionID())
}

// Send offers one frame for transmission. Returns true when the frame was
// accepted, false when it was rejected by backpressure, the machine is not
// connected, or the streaming write failed (which triggers failover for
// subsequent sends).
func (c *Client) Send(frame *FrameEnvelope) bool {
	c.mu.Lock()
	if !c.running || c.state != StateConnected {
		c.mu.Unlock()
		return false
	}
	if !c.inflight.TryAdmit() {
		c.mu.Unlock()
		c.metrics.RecordRejected()
		return false
	}
	c.nextSeq++
	frame.Seq = c.nextSeq
	frame.SentAt = time.Now()
	sel := c.selector
	ctx := c.runCtx
	if sel == TransportStreaming {
		c.pending = append(c.pending, pendingFrame{seq: frame.Seq, sentAt: frame.SentAt})
	}
	c.mu.Unlock()

	c.metrics.RecordSent(c.inflight.Depth())

	if sel == TransportStreaming {
		if err := c.stream.Send(ctx, frame); err != nil {
			c.failoverFromSend(frame.Seq, err)
			return false
		}
		return true
	}

	// Fallback round trip off the caller's tick; the in-flight bound caps
	// concurrency.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.fallback.Send(ctx, frame); err != nil {
			c.inflight.Release()
			c.metrics.RecordSendFailure()
			if ctx.Err() == nil {
				c.emitter.EmitTrackingError(ErrSendFailedTransport, err)
			}
		}
	}()
	return true
}

// failoverFromSend handles a streaming write failure: the failing frame is
// dropped, the selector flips to the fallback (sticky for the rest of the
// session), and the in-flight accounting is reset. Frames still pending on
// the dead stream will never result; abandoning them frees the full bound
// for the fallback instead of waiting on the safety valve.
func (c *Client) failoverFromSend(seq uint64, cause error) {
	c.mu.Lock()
	alreadySwitched := c.selector == TransportFallback
	c.selector = TransportFallback
	if alreadySwitched {
		c.dropPendingLocked(seq)
		c.inflight.Release()
	} else {
		c.pending = nil
		c.inflight.Reset()
	}
	c.mu.Unlock()

	c.metrics.RecordSendFailure()
	if !alreadySwitched {
		c.metrics.SetQueueDepth(0)
		log.Printf("track: stream send failed, failing over to one-shot transport: %v", cause)
		c.emitter.EmitTransportSwitch(TransportStreaming, TransportFallback, cause)
		c.emitter.EmitTrackingError(ErrSendFailedTransport, cause)
		c.stream.Close(false)
	}
}

// Failover switches the session to the fallback transport. Raised by the
// health monitor when the streaming transport dies without delivering a
// close event. No-op unless the machine is Connected on the streaming path.
func (c *Client) Failover(cause error) {
	c.mu.Lock()
	if !c.running || c.state != StateConnected || c.selector == TransportFallback {
		c.mu.Unlock()
		return
	}
	c.selector = TransportFallback
	c.pending = nil
	c.inflight.Reset()
	c.mu.Unlock()

	log.Printf("track: failover to one-shot transport: %v", cause)
	c.emitter.EmitTransportSwitch(TransportStreaming, TransportFallback, cause)
	c.stream.Close(false)
}

// Ready reports whether the client will currently accept frames.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveTransport returns the currently selected transport variant.
func (c *Client) ActiveTransport() TransportKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selector
}

// InFlight returns the current in-flight frame count.
func (c *Client) InFlight() int { return c.inflight.Depth() }

// SessionID returns the id of the current (or most recent) session.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Telemetry returns a snapshot of the session counters.
func (c *Client) Telemetry() TelemetrySnapshot { return c.metrics.Snapshot() }

// StreamLive reports whether the streaming transport believes it can carry
// frames. Consulted by the health monitor.
func (c *Client) StreamLive() bool { return c.stream.Live() }

// ── connection lifecycle ──────────────────────────────────────────────────

// runConnect dials the streaming transport, retrying per the reconnect
// policy, until connected, the budget is spent, or the session ends.
// immediate skips the first backoff wait (fresh Connect); reconnect episodes
// wait before every attempt.
func (c *Client) runConnect(immediate bool) {
	defer c.wg.Done()

	first := immediate
	for {
		if !first {
			c.mu.Lock()
			delay, ok := c.policy.Next()
			attempt := c.policy.Attempt()
			c.mu.Unlock()
			if !ok {
				c.failTerminal()
				return
			}
			c.transition(StateReconnecting)
			log.Printf("track: reconnecting in %v (attempt %d/%d)",
				delay, attempt, c.policy.MaxAttempts())
			if !c.sleep(delay) {
				return
			}
			c.transition(StateConnecting)
		}
		first = false

		c.mu.Lock()
		if !c.running {
			c.mu.Unlock()
			return
		}
		ctx := c.runCtx
		c.mu.Unlock()

		dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		err := c.stream.Open(dialCtx)
		cancel()
		if err == nil {
			c.mu.Lock()
			c.policy.Reset()
			c.mu.Unlock()
			c.transition(StateConnected)
			log.Printf("track: stream connected (session=%s)", c.SessionID())
			return
		}
		if ctx.Err() != nil {
			return
		}

		var terr *TransportError
		if errors.As(err, &terr) && terr.Kind == ErrTimeout {
			c.emitter.EmitTrackingError(ErrConnectTimeout, err)
		} else {
			c.emitter.EmitTrackingError(ErrTransportClosed, err)
		}
		log.Printf("track: stream connect failed: %v", err)
	}
}

// failTerminal moves the machine to Failed and reports the exhausted budget
// exactly once. Only a fresh Connect restarts the machine.
func (c *Client) failTerminal() {
	c.transition(StateFailed)
	err := fmt.Errorf("reconnect budget exhausted after %d attempts", c.policy.MaxAttempts())
	c.emitter.EmitTrackingError(ErrReconnectExhausted, err)
	log.Printf("track: %v", err)
}

// transition moves the state machine and emits the change.
func (c *Client) transition(to ConnState) {
	c.mu.Lock()
	from := c.state
	if from == to || !c.running {
		c.mu.Unlock()
		return
	}
	c.state = to
	c.mu.Unlock()
	c.emitter.EmitStateChange(from, to)
}

// sleep waits for d or until the session ends. Returns false when the
// session ended.
func (c *Client) sleep(d time.Duration) bool {
	c.mu.Lock()
	done := c.runCtx.Done()
	c.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return false
	case <-timer.C:
		return true
	}
}

// valveLoop is the safety valve: on a fixed interval it unconditionally
// clears the in-flight accounting, recovering slots lost to dropped
// acknowledgements. Liveness over precision.
func (c *Client) valveLoop() {
	defer c.wg.Done()

	c.mu.Lock()
	done := c.runCtx.Done()
	c.mu.Unlock()

	ticker := time.NewTicker(c.cfg.ValveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			reclaimed := c.inflight.Depth()
			c.inflight.Reset()
			c.pending = nil
			c.mu.Unlock()
			c.metrics.SetQueueDepth(0)
			if reclaimed > 0 {
				log.Printf("track: safety valve reclaimed %d in-flight slots", reclaimed)
			}
		}
	}
}

func (c *Client) dropPendingLocked(seq uint64) {
	for i, pf := range c.pending {
		if pf.seq == seq {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// ── resultSink ────────────────────────────────────────────────────────────

func (c *Client) handleStreamResult(payload ResultPayload, receivedAt time.Time) {
	c.mu.Lock()
	if !c.running || len(c.pending) == 0 {
		// No matching send: a late result after a valve reset or teardown.
		c.mu.Unlock()
		return
	}
	pf := c.pending[0]
	c.pending = c.pending[1:]
	c.inflight.Release()
	depth := c.inflight.Depth()
	c.mu.Unlock()

	c.deliver(pf.seq, pf.sentAt, payload, receivedAt, depth)
}

func (c *Client) handleFallbackResult(frame *FrameEnvelope, payload ResultPayload, receivedAt time.Time) {
	c.mu.Lock()
	running := c.running
	c.inflight.Release()
	depth := c.inflight.Depth()
	c.mu.Unlock()
	if !running {
		return
	}
	c.deliver(frame.Seq, frame.SentAt, payload, receivedAt, depth)
}

func (c *Client) deliver(seq uint64, sentAt time.Time, payload ResultPayload, receivedAt time.Time, depth int) {
	latency := float64(receivedAt.Sub(sentAt)) / float64(time.Millisecond)
	res := TrackingResult{
		Seq:              seq,
		Detected:         payload.HandDetected,
		Payload:          payload,
		ProcessingTimeMs: payload.ProcessingTimeMs,
		LatencyMs:        latency,
		QueueDepth:       depth,
	}
	c.metrics.RecordResult(latency, depth)
	c.emitter.EmitResult(res)
}

func (c *Client) handleStreamError(msg string) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	// The service answered the oldest frame with an error; free its slot.
	if len(c.pending) > 0 {
		c.pending = c.pending[1:]
		c.inflight.Release()
	}
	c.mu.Unlock()

	c.metrics.RecordSendFailure()
	c.emitter.EmitTrackingError(ErrSendFailedTransport,
		&TransportError{Kind: ErrProtocol, Err: errors.New(msg)})
}

func (c *Client) handleParseError(err error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return
	}
	c.emitter.EmitTrackingError(ErrParse, err)
}

// handleClosed reacts to the streaming connection ending. A normal close is
// owned by the explicit disconnect path; an abnormal one abandons in-flight
// frames and schedules reconnection.
func (c *Client) handleClosed(normal bool, err error) {
	c.mu.Lock()
	if !c.running || normal || c.selector != TransportStreaming {
		c.mu.Unlock()
		return
	}
	// Connecting covers a close that lands between a successful open and the
	// Connected transition; an open connection only exists in these states.
	if c.state != StateConnected && c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.inflight.Reset()
	c.wg.Add(1)
	c.mu.Unlock()

	c.metrics.SetQueueDepth(0)
	c.emitter.EmitTrackingError(ErrTransportClosed, err)
	log.Printf("track: stream closed: %v", err)
	go c.runConnect(false)
}
