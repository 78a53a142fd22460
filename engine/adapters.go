package engine

import "teleopedge/track"

// trackEmitter adapts the engine's EventBus to the track.EventEmitter interface.
type trackEmitter struct {
	bus *EventBus
}

func (e *trackEmitter) EmitStateChange(from, to track.ConnState) {
	e.bus.Emit(Event{Type: EventStateChange, Payload: StateChangeEvent{
		From: from.String(), To: to.String(),
	}})
}

func (e *trackEmitter) EmitResult(res track.TrackingResult) {
	e.bus.Emit(Event{Type: EventTrackingResult, Payload: TrackingResultEvent{Result: res}})
}

func (e *trackEmitter) EmitTransportSwitch(from, to track.TransportKind, cause error) {
	errStr := ""
	if cause != nil {
		errStr = cause.Error()
	}
	e.bus.Emit(Event{Type: EventTransportSwitch, Payload: TransportSwitchEvent{
		From: from.String(), To: to.String(), Cause: errStr,
	}})
}

func (e *trackEmitter) EmitTrackingError(kind track.ErrorKind, err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	e.bus.Emit(Event{Type: EventTrackingError, Payload: TrackingErrorEvent{
		Kind: kind.String(), Error: errStr,
	}})
}
