package events

import (
	"sync"
	"testing"

	"github.com/impel-engine/impel/internal/dynamics"
)

func TestCollectorAccumulates(t *testing.T) {
	c := NewCollector()

	c.HandleContactEvent(ContactEvent{Started: true})
	c.BeginStep()
	c.HandleContactEvent(ContactEvent{Started: false})

	var got []ContactEvent
	c.DrainContactEvents(func(e ContactEvent) { got = append(got, e) })

	if len(got) != 2 {
		t.Fatalf("drained %d events, want 2 (accumulate policy)", len(got))
	}
	if !got[0].Started || got[1].Started {
		t.Error("events drained out of emission order")
	}
	if c.Len() != 0 {
		t.Errorf("Len after drain = %d, want 0", c.Len())
	}
}

func TestCollectorAutoClear(t *testing.T) {
	c := NewCollector(WithPolicy(AutoClear))

	c.HandleContactEvent(ContactEvent{Started: true})
	c.HandleIntersectionEvent(IntersectionEvent{Intersecting: true})
	c.BeginStep()

	if c.Len() != 0 {
		t.Errorf("undrained events survived BeginStep: %d", c.Len())
	}

	c.HandleContactEvent(ContactEvent{Started: true})
	count := 0
	c.DrainContactEvents(func(ContactEvent) { count++ })
	if count != 1 {
		t.Errorf("drained %d events, want 1", count)
	}
}

func TestCollectorConcurrentDrain(t *testing.T) {
	c := NewCollector(WithConcurrentDrain())

	const total = 1000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			c.HandleContactEvent(ContactEvent{Started: true})
		}
	}()

	drained := 0
	go func() {
		defer wg.Done()
		for drained < total {
			c.DrainContactEvents(func(ContactEvent) { drained++ })
		}
	}()

	wg.Wait()
	if drained != total {
		t.Errorf("drained %d events, want %d", drained, total)
	}
}

func TestNopSink(t *testing.T) {
	var s Sink = NopSink{}
	s.HandleContactEvent(ContactEvent{ColliderA: dynamics.ColliderHandle{}})
	s.HandleIntersectionEvent(IntersectionEvent{})
}
