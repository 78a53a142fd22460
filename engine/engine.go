package engine

import (
	"sync"

	"teleopedge/config"
	"teleopedge/track"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...interface{})

// Engine centralizes business logic and orchestrates the tracking client,
// frame producer and health monitor.
type Engine struct {
	cfg        *config.Config
	configPath string
	logFn      LogFunc
	debugFn    LogFunc

	source track.Source

	mu       sync.Mutex
	client   *track.Client
	monitor  *track.Monitor
	producer *track.Producer
	tracking bool

	Events   *EventBus
	stopChan chan struct{}
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	Source     track.Source
	LogFunc    LogFunc
	Debug      bool
}

// New creates a new Engine. Call Start() to initialize and wire subsystems.
func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	debugFn := LogFunc(func(string, ...interface{}) {})
	if c.Debug {
		debugFn = logFn
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		source:     c.Source,
		logFn:      logFn,
		debugFn:    debugFn,
		Events:     NewEventBus(),
		stopChan:   make(chan struct{}),
	}
}

// Start creates the initial tracking client and health monitor so status
// queries work before the first session. Frame production does not begin
// until StartTracking is called.
func (e *Engine) Start() {
	e.cfg.Lock()
	tc := e.cfg.Tracking
	e.cfg.Unlock()

	e.mu.Lock()
	e.client = track.NewClient(tc, &trackEmitter{bus: e.Events})
	e.monitor = track.NewMonitor(e.client, tc)
	e.mu.Unlock()

	e.wireEventHandlers()

	e.logFn("Engine started: node=%s upstream=%s mode=%s robot=%s",
		e.cfg.NodeID, tc.BaseURL, tc.Mode, tc.RobotType)
}

// Stop shuts down all subsystems gracefully.
func (e *Engine) Stop() {
	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}

	e.StopTracking()
	e.logFn("Engine stopped")
}

// StartTracking builds a fresh client stack from the current config,
// connects it and begins frame production. Rebuilding per session is what
// lets config edits (base_url in particular) land on the next session.
// Returns false if a session is already running.
func (e *Engine) StartTracking() bool {
	e.mu.Lock()
	if e.tracking {
		e.mu.Unlock()
		return false
	}
	e.tracking = true
	e.mu.Unlock()

	e.cfg.Lock()
	tc := e.cfg.Tracking
	e.cfg.Unlock()

	client := track.NewClient(tc, &trackEmitter{bus: e.Events})
	monitor := track.NewMonitor(client, tc)
	producer := track.NewProducer(client, e.source, tc)

	e.mu.Lock()
	e.client, e.monitor, e.producer = client, monitor, producer
	e.mu.Unlock()

	if err := client.Connect(); err != nil {
		e.debugFn("tracking connect: %v", err)
	}
	producer.Start()
	monitor.Start()

	e.Events.Emit(Event{Type: EventSessionStarted, Payload: SessionEvent{
		SessionID: client.SessionID(), Mode: tc.Mode, RobotType: tc.RobotType,
	}})
	e.logFn("tracking session started: session=%s upstream=%s", client.SessionID(), tc.BaseURL)
	return true
}

// StopTracking halts frame production and disconnects. Returns false if no
// session is running.
func (e *Engine) StopTracking() bool {
	e.mu.Lock()
	if !e.tracking {
		e.mu.Unlock()
		return false
	}
	e.tracking = false
	client, monitor, producer := e.client, e.monitor, e.producer
	e.mu.Unlock()

	sessionID := client.SessionID()
	monitor.Stop()
	if producer != nil {
		producer.Stop()
	}
	client.Disconnect()

	e.cfg.Lock()
	tc := e.cfg.Tracking
	e.cfg.Unlock()

	e.Events.Emit(Event{Type: EventSessionStopped, Payload: SessionEvent{
		SessionID: sessionID, Mode: tc.Mode, RobotType: tc.RobotType,
	}})
	e.logFn("tracking session stopped: session=%s", sessionID)
	return true
}

// Tracking reports whether a session is currently running.
func (e *Engine) Tracking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracking
}

// Status is a point-in-time snapshot of the engine for the API and
// telemetry reporters.
type Status struct {
	NodeID     string                  `json:"node_id"`
	Tracking   bool                    `json:"tracking"`
	SessionID  string                  `json:"session_id,omitempty"`
	State      string                  `json:"state"`
	Transport  string                  `json:"transport"`
	StreamLive bool                    `json:"stream_live"`
	InFlight   int                     `json:"in_flight"`
	Mode       string                  `json:"mode"`
	RobotType  string                  `json:"robot_type"`
	Frames     FrameStats              `json:"frames"`
	Telemetry  track.TelemetrySnapshot `json:"telemetry"`
}

// FrameStats summarizes producer activity for the current session.
type FrameStats struct {
	Ticks    uint64 `json:"ticks"`
	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
}

// Status assembles a snapshot of the current engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	tracking := e.tracking
	client := e.client
	producer := e.producer
	e.mu.Unlock()

	e.cfg.Lock()
	tc := e.cfg.Tracking
	nodeID := e.cfg.NodeID
	e.cfg.Unlock()

	st := Status{
		NodeID:     nodeID,
		Tracking:   tracking,
		SessionID:  client.SessionID(),
		State:      client.State().String(),
		Transport:  client.ActiveTransport().String(),
		StreamLive: client.StreamLive(),
		InFlight:   client.InFlight(),
		Mode:       tc.Mode,
		RobotType:  tc.RobotType,
		Telemetry:  client.Telemetry(),
	}
	if producer != nil {
		st.Frames.Ticks, st.Frames.Accepted, st.Frames.Dropped = producer.Stats()
	}
	return st
}

// Client returns the tracking client for the current (or most recent)
// session.
func (e *Engine) Client() *track.Client {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client
}

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }
