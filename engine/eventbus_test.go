package engine

import (
	"testing"
	"time"
)

func TestEventBusSubscribe(t *testing.T) {
	eb := NewEventBus()

	var got []Event
	eb.Subscribe(func(evt Event) {
		got = append(got, evt)
	})

	eb.Emit(Event{Type: EventStateChange, Payload: StateChangeEvent{From: "disconnected", To: "connecting"}})
	eb.Emit(Event{Type: EventTrackingError, Payload: TrackingErrorEvent{Kind: "parse_error"}})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Type != EventStateChange || got[1].Type != EventTrackingError {
		t.Errorf("event types = %v,%v", got[0].Type, got[1].Type)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp not stamped on emit")
	}
}

func TestEventBusTypeFilter(t *testing.T) {
	eb := NewEventBus()

	var errs int
	eb.SubscribeTypes(func(evt Event) {
		errs++
	}, EventTrackingError)

	eb.Emit(Event{Type: EventStateChange})
	eb.Emit(Event{Type: EventTrackingError})
	eb.Emit(Event{Type: EventTrackingResult})
	eb.Emit(Event{Type: EventTrackingError})

	if errs != 2 {
		t.Errorf("filtered subscriber fired %d times, want 2", errs)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus()

	fired := 0
	id := eb.Subscribe(func(Event) { fired++ })

	eb.Emit(Event{Type: EventStateChange})
	eb.Unsubscribe(id)
	eb.Emit(Event{Type: EventStateChange})

	if fired != 1 {
		t.Errorf("subscriber fired %d times, want 1", fired)
	}
}

func TestEventBusPreservesTimestamp(t *testing.T) {
	eb := NewEventBus()

	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var got Event
	eb.Subscribe(func(evt Event) { got = evt })
	eb.Emit(Event{Type: EventStateChange, Timestamp: ts})

	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
}
