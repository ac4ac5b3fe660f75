// Package collector implements the bounded, back-pressured channel of
// RawDataPoints that flows from probe invocations to the sender drainer.
package collector

import (
	"sync"
	"time"

	"github.com/dmagro/dms-agent/internal/messaging"
)

// DefaultCapacity is the bounded queue depth used unless a caller
// overrides it: roughly 1000 RawDataPoints.
const DefaultCapacity = 1000

// Channel owns the bounded queue. Collector values derived from it via
// NewCollector all share its single underlying Go channel; Close seals
// it (the equivalent of dropping the last sender handle), after which
// the consumer observes the channel close and exits.
type Channel struct {
	points    chan messaging.RawDataPoint
	closeOnce sync.Once
}

// NewChannel creates a Channel with the given capacity (use
// DefaultCapacity unless a test needs something smaller to exercise
// backpressure quickly).
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{points: make(chan messaging.RawDataPoint, capacity)}
}

// Points returns the receive-only side consumed by the sender drainer.
func (c *Channel) Points() <-chan messaging.RawDataPoint {
	return c.points
}

// Close seals the channel. Safe to call more than once; only the first
// call has effect.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.points)
	})
}

// NewCollector returns a Collector stamped with timestamp, the instant
// the caller's current probe batch started, so every measurement
// emitted within one batch shares a timestamp.
func (c *Channel) NewCollector(timestamp time.Time) *Collector {
	return &Collector{sink: c.points, timestamp: timestamp}
}

// Collector is the capability probes are given to emit measurements. It
// is freshly constructed per batch and not retained past it.
type Collector struct {
	sink      chan<- messaging.RawDataPoint
	timestamp time.Time
}

// Collect emits one measurement. It blocks when the underlying channel
// is full, propagating downstream slowness into probe execution rather
// than dropping data.
func (c *Collector) Collect(location, path, component string, value messaging.DataValue) {
	c.sink <- messaging.RawDataPoint{
		Location:  location,
		Path:      path,
		Component: component,
		Timestamp: c.timestamp,
		Value:     value,
	}
}
