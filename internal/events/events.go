// Package events defines the transition events the narrow phase emits and
// the sinks that deliver them: immediate callbacks, or buffered queues the
// caller drains between steps.
package events

import (
	"sync"

	"github.com/impel-engine/impel/internal/dynamics"
)

// ContactEvent reports a contact transition between two non-sensor
// colliders: Started is true when the pair gained its first contact point
// and false when it lost its last one.
type ContactEvent struct {
	ColliderA dynamics.ColliderHandle
	ColliderB dynamics.ColliderHandle
	Started   bool
}

// IntersectionEvent reports an overlap transition for a pair involving at
// least one sensor collider.
type IntersectionEvent struct {
	ColliderA    dynamics.ColliderHandle
	ColliderB    dynamics.ColliderHandle
	Intersecting bool
}

// Sink receives events as they are detected during a step. Implementations
// are invoked synchronously from the pipeline; a slow handler slows the step.
type Sink interface {
	HandleContactEvent(ContactEvent)
	HandleIntersectionEvent(IntersectionEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) HandleContactEvent(ContactEvent)           {}
func (NopSink) HandleIntersectionEvent(IntersectionEvent) {}

// QueuePolicy selects what happens to undrained events at the start of a new
// step.
type QueuePolicy int

const (
	// Accumulate keeps events until drained; the queues grow without bound
	// if the caller never drains.
	Accumulate QueuePolicy = iota
	// AutoClear drops undrained events at the start of each step.
	AutoClear
)

// Collector is the queue-mode sink: events append to internal queues that
// the caller drains between steps.
//
// By default the collector assumes the producer (the pipeline) and consumer
// run on the same goroutine. Construct it with [WithConcurrentDrain] to
// allow draining from another goroutine while a step appends.
type Collector struct {
	mu         sync.Mutex
	concurrent bool
	policy     QueuePolicy

	contacts      []ContactEvent
	intersections []IntersectionEvent
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithPolicy sets the undrained-event policy; the default is Accumulate.
func WithPolicy(p QueuePolicy) CollectorOption {
	return func(c *Collector) { c.policy = p }
}

// WithConcurrentDrain guards the queues with a mutex so one goroutine may
// drain while another appends.
func WithConcurrentDrain() CollectorOption {
	return func(c *Collector) { c.concurrent = true }
}

// NewCollector builds a queue-mode collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) lock() {
	if c.concurrent {
		c.mu.Lock()
	}
}

func (c *Collector) unlock() {
	if c.concurrent {
		c.mu.Unlock()
	}
}

// HandleContactEvent appends to the contact queue.
func (c *Collector) HandleContactEvent(e ContactEvent) {
	c.lock()
	defer c.unlock()
	c.contacts = append(c.contacts, e)
}

// HandleIntersectionEvent appends to the intersection queue.
func (c *Collector) HandleIntersectionEvent(e IntersectionEvent) {
	c.lock()
	defer c.unlock()
	c.intersections = append(c.intersections, e)
}

// BeginStep is called by the pipeline at the start of each step; under the
// AutoClear policy it drops whatever the caller did not drain.
func (c *Collector) BeginStep() {
	if c.policy != AutoClear {
		return
	}
	c.lock()
	defer c.unlock()
	c.contacts = c.contacts[:0]
	c.intersections = c.intersections[:0]
}

// DrainContactEvents removes all queued contact events, invoking fn on each
// in emission order.
func (c *Collector) DrainContactEvents(fn func(ContactEvent)) {
	c.lock()
	queued := c.contacts
	c.contacts = nil
	c.unlock()
	for _, e := range queued {
		fn(e)
	}
}

// DrainIntersectionEvents removes all queued intersection events, invoking
// fn on each in emission order.
func (c *Collector) DrainIntersectionEvents(fn func(IntersectionEvent)) {
	c.lock()
	queued := c.intersections
	c.intersections = nil
	c.unlock()
	for _, e := range queued {
		fn(e)
	}
}

// Len returns the number of queued events of both kinds.
func (c *Collector) Len() int {
	c.lock()
	defer c.unlock()
	return len(c.contacts) + len(c.intersections)
}

// Stepper is implemented by sinks that want a notification at the start of
// every step; the pipeline checks for it.
type Stepper interface {
	BeginStep()
}
