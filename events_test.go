package toxicity

import "testing"

func TestPublishOrder(t *testing.T) {
	bus := NewEventBus(quietLogger())
	var got []int
	bus.Subscribe("t", func(Event) { got = append(got, 1) })
	bus.Subscribe("t", func(Event) { got = append(got, 2) })
	bus.Subscribe("other", func(Event) { got = append(got, 99) })

	bus.Publish(Event{Topic: "t"})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("calls = %v, want [1 2]", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus(quietLogger())
	var calls int
	sub := bus.Subscribe("t", func(Event) { calls++ })
	if bus.Subscribers("t") != 1 {
		t.Fatalf("Subscribers = %d, want 1", bus.Subscribers("t"))
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
	Subscription{}.Unsubscribe()

	bus.Publish(Event{Topic: "t"})
	if calls != 0 {
		t.Errorf("calls after Unsubscribe = %d, want 0", calls)
	}
	if bus.Subscribers("t") != 0 {
		t.Errorf("Subscribers = %d, want 0", bus.Subscribers("t"))
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	bus := NewEventBus(quietLogger())
	var late int
	bus.Subscribe("t", func(Event) {
		bus.Subscribe("t", func(Event) { late++ })
	})
	bus.Publish(Event{Topic: "t"})
	if late != 0 {
		t.Errorf("handler added mid-publish saw the event %d times", late)
	}
	bus.Publish(Event{Topic: "t"})
	if late != 1 {
		t.Errorf("late handler calls = %d, want 1", late)
	}
}

func TestEmitQueuesUntilDispatch(t *testing.T) {
	bus := NewEventBus(quietLogger())
	var payloads []any
	bus.Subscribe("t", func(ev Event) { payloads = append(payloads, ev.Payload) })

	bus.Emit(Event{Topic: "t", Payload: 1})
	bus.Emit(Event{Topic: "t", Payload: 2})
	if len(payloads) != 0 {
		t.Fatal("Emit delivered synchronously")
	}
	if n := bus.Dispatch(); n != 2 {
		t.Errorf("Dispatch = %d, want 2", n)
	}
	if len(payloads) != 2 || payloads[0] != 1 || payloads[1] != 2 {
		t.Errorf("payloads = %v, want [1 2]", payloads)
	}
	if n := bus.Dispatch(); n != 0 {
		t.Errorf("second Dispatch = %d, want 0", n)
	}
}

func TestEmitDropsWhenFull(t *testing.T) {
	bus := NewEventBus(quietLogger())
	for i := range eventQueueSize {
		if !bus.Emit(Event{Topic: "t"}) {
			t.Fatalf("Emit %d dropped below capacity", i)
		}
	}
	if bus.Emit(Event{Topic: "t"}) {
		t.Error("Emit accepted past capacity")
	}
}

func TestWindowDispatchesEachFrame(t *testing.T) {
	w, _ := newTestWindow(t)
	var calls int
	w.Events().Subscribe("custom", func(Event) { calls++ })
	w.Events().Emit(Event{Topic: "custom"})
	w.StepFrame()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
