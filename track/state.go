// Package track implements the adaptive dual-transport client that streams
// camera frames to the remote hand-tracking inference service. It owns the
// connection lifecycle state machine, the bounded in-flight accounting, the
// reconnect policy, and the failover between the streaming and one-shot
// transports.
package track

// ConnState describes where the client is in its connection lifecycle.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// TransportKind identifies which transport variant is active. Exactly one is
// active at any time; switching to the fallback is sticky for the remainder
// of the session.
type TransportKind int

const (
	TransportStreaming TransportKind = iota
	TransportFallback
)

func (k TransportKind) String() string {
	if k == TransportFallback {
		return "fallback"
	}
	return "streaming"
}
