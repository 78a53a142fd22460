package engine

import (
	"time"

	"teleopedge/track"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Connection events
	EventStateChange EventType = iota + 1
	EventTransportSwitch

	// Tracking events
	EventTrackingResult
	EventTrackingError

	// Session events
	EventSessionStarted
	EventSessionStopped
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// StateChangeEvent is emitted on connection state transitions.
type StateChangeEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TransportSwitchEvent is emitted when the active transport changes.
type TransportSwitchEvent struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Cause string `json:"cause,omitempty"`
}

// TrackingResultEvent wraps one matched inference result.
type TrackingResultEvent struct {
	Result track.TrackingResult `json:"result"`
}

// TrackingErrorEvent is emitted for transport and protocol failures.
type TrackingErrorEvent struct {
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// SessionEvent is emitted when a tracking session starts or stops.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	RobotType string `json:"robot_type"`
}
