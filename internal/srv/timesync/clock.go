package timesync

import (
	"time"
)

// Clock is the time source of the waiting loop. Tests replace it to avoid real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct {
	now func() time.Time
}

// NewClock waits on real timers and reads the time from now.
func NewClock(now func() time.Time) Clock {
	return realClock{now: now}
}

func (c realClock) Now() time.Time {
	return c.now()
}

func (c realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
