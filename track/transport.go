package track

import (
	"context"
	"time"
)

// Transport is the capability shared by the streaming and fallback variants.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Kind identifies the variant.
	Kind() TransportKind
	// Open establishes the transport. A no-op for the stateless fallback.
	Open(ctx context.Context) error
	// Send transmits one frame. The streaming variant is fire-and-forget;
	// its results arrive through the sink's inbound path. The fallback
	// variant performs a blocking round trip and delivers the result to the
	// sink before returning.
	Send(ctx context.Context, frame *FrameEnvelope) error
	// Live reports whether the transport believes it can carry frames.
	Live() bool
	// Close tears the transport down. normal marks an explicit disconnect,
	// as opposed to abandoning a failed link.
	Close(normal bool)
}

// resultSink receives transport events. The client implements it; transports
// never call it while the client's mutex is held by the same goroutine.
type resultSink interface {
	// handleStreamResult delivers one inbound tracking result from the
	// streaming transport.
	handleStreamResult(payload ResultPayload, receivedAt time.Time)
	// handleStreamError delivers a server-reported error message.
	handleStreamError(msg string)
	// handleParseError reports a malformed server message.
	handleParseError(err error)
	// handleClosed reports that the streaming connection ended.
	handleClosed(normal bool, err error)
	// handleFallbackResult delivers one fallback round-trip result.
	handleFallbackResult(frame *FrameEnvelope, payload ResultPayload, receivedAt time.Time)
}
