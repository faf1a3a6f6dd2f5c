package core

import "testing"

func TestEventBusFanOutAndUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var a, b []EventKind
	unsubA := bus.Subscribe(func(ev Event) { a = append(a, ev.Kind) })
	bus.Subscribe(func(ev Event) { b = append(b, ev.Kind) })

	bus.PublishStep(1, 10, Events{Jumped: true, Airborne: true})
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("a=%v b=%v, want two events each", a, b)
	}
	if a[0] != EventAirborne || a[1] != EventJumped {
		t.Fatalf("order = %v, want [airborne jumped]", a)
	}

	unsubA()
	unsubA()
	bus.Publish(Event{Kind: EventLanded})
	if len(a) != 2 {
		t.Fatalf("unsubscribed observer still notified: %v", a)
	}
	if len(b) != 3 {
		t.Fatalf("b = %v, want 3 events", b)
	}
	if bus.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bus.Len())
	}
}

func TestEventsSplitCarriesImpactSpeed(t *testing.T) {
	evs := Events{Landed: true, ImpactSpeed: 7.5}.Split(4, 99)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if evs[0].Kind != EventLanded || evs[0].ImpactSpeed != 7.5 || evs[0].PlayerID != 4 || evs[0].Tick != 99 {
		t.Fatalf("event = %+v", evs[0])
	}
	if (Events{}).Split(1, 1) != nil {
		t.Fatalf("empty events produced output")
	}
}
