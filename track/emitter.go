package track

// EventEmitter is the interface the track package uses to surface events.
// The engine package implements this via an adapter to avoid import cycles.
// Emitter methods are called synchronously and must not call back into the
// client.
type EventEmitter interface {
	EmitStateChange(from, to ConnState)
	EmitResult(res TrackingResult)
	EmitTransportSwitch(from, to TransportKind, cause error)
	EmitTrackingError(kind ErrorKind, err error)
}
