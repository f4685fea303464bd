// Package timer provides the cancelable delayed tasks and the local clock
// the progression engine runs on. The Fake variants drive tests without
// real sleeping.
package timer

import (
	"time"
)

// Scheduler runs callbacks on real timers.
type Scheduler struct{}

// NewScheduler creates a real-time scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// AfterFunc runs fn after d on its own goroutine. The returned cancel
// stops the timer and reports whether fn was prevented from running.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// Clock reports wall time in a fixed location.
type Clock struct {
	loc *time.Location
}

// NewClock returns a clock for the given location; nil means time.Local.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// LoadClock resolves an IANA zone name. "" and "Local" use time.Local.
func LoadClock(zone string) (*Clock, error) {
	if zone == "" || zone == "Local" {
		return NewClock(time.Local), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return NewClock(loc), nil
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time { return time.Now().In(c.loc) }

// Location returns the clock's location.
func (c *Clock) Location() *time.Location { return c.loc }
