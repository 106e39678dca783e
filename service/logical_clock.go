package service

import (
	"math"
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// LogicalClock issues strictly increasing mutation timestamps.
// Values follow wall-clock nanoseconds while the wall clock moves forward and never fall behind
// any timestamp observed from a peer, so a local mutation always orders after what this node has seen.
type LogicalClock struct {
	clock clock.Clock
	last  atomic.Int64
}

// NewLogicalClock creates a LogicalClock reading wall time from c.
func NewLogicalClock(c clock.Clock) *LogicalClock {
	return &LogicalClock{clock: c}
}

// Next returns a timestamp greater than every timestamp returned or observed before.
// At math.MaxInt64 it saturates instead of wrapping around.
func (l *LogicalClock) Next() int64 {
	for {
		last := l.last.Load()
		next := last
		if last < math.MaxInt64 {
			next = last + 1
		}
		next = max(l.clock.Now().UnixNano(), next)
		if l.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Observe advances the clock past a timestamp received from a peer.
func (l *LogicalClock) Observe(ts int64) {
	for {
		last := l.last.Load()
		if ts <= last || l.last.CompareAndSwap(last, ts) {
			return
		}
	}
}
