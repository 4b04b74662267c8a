package events

import "slices"

// EventCollector is embedded in aggregates that raise events while their
// state changes. The zero value is ready to use.
type EventCollector struct {
	pending []DomainEvent
}

// Record queues events for publication after the aggregate is persisted.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// DomainEvents returns a copy of the queued events.
func (c *EventCollector) DomainEvents() []DomainEvent {
	return slices.Clone(c.pending)
}

// PullEvents returns the queued events and empties the queue.
func (c *EventCollector) PullEvents() []DomainEvent {
	pulled := c.pending
	c.pending = nil
	return pulled
}
