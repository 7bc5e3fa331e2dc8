package steward

import "time"

// Clock provides authority time for delay-window checks. Tests inject a
// manual clock; production uses the wall clock.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
