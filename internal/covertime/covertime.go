// Package covertime provides the engine's notion of time. Assessment phases
// are never stored; they are always recomputed from a Timestamp, so every
// caller must obtain "now" through the same Clock.
package covertime

import (
	"fmt"
	"time"
)

// Timestamp is a moment in seconds since the Unix epoch.
type Timestamp uint64

// Duration is a span of whole seconds.
type Duration uint64

// FromTime converts a standard time.Time to a Timestamp. Times before the
// Unix epoch are not representable.
func FromTime(t time.Time) (Timestamp, error) {
	unix := t.Unix()
	if unix < 0 {
		return 0, fmt.Errorf("time %s predates the unix epoch", t)
	}
	return Timestamp(unix), nil
}

// ToTime converts a Timestamp back to a standard time.Time in UTC.
func (t Timestamp) ToTime() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

func (t Timestamp) Add(d Duration) Timestamp {
	return t + Timestamp(d)
}

func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

// FromStdDuration converts a time.Duration to whole seconds, rounding down.
func FromStdDuration(d time.Duration) Duration {
	if d < 0 {
		return 0
	}
	return Duration(d / time.Second)
}

// Clock yields the current Timestamp. The engine takes a Clock at
// construction so tests can drive phase transitions deterministically.
type Clock interface {
	Now() Timestamp
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// ManualClock is a settable clock for tests.
type ManualClock struct {
	current Timestamp
}

func NewManualClock(start Timestamp) *ManualClock {
	return &ManualClock{current: start}
}

func (c *ManualClock) Now() Timestamp {
	return c.current
}

func (c *ManualClock) Set(t Timestamp) {
	c.current = t
}

func (c *ManualClock) Advance(d Duration) {
	c.current = c.current.Add(d)
}
