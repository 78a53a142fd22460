package engine

// wireEventHandlers sets up internal connection lifecycle logging.
func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		sc := evt.Payload.(StateChangeEvent)
		e.debugFn("connection state: %s -> %s", sc.From, sc.To)
	}, EventStateChange)

	e.Events.SubscribeTypes(func(evt Event) {
		sw := evt.Payload.(TransportSwitchEvent)
		e.logFn("transport switch: %s -> %s (%s)", sw.From, sw.To, sw.Cause)
	}, EventTransportSwitch)

	e.Events.SubscribeTypes(func(evt Event) {
		te := evt.Payload.(TrackingErrorEvent)
		e.logFn("tracking error: kind=%s err=%s", te.Kind, te.Error)
	}, EventTrackingError)
}
