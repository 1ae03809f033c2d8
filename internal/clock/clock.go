// Package clock is the process time source. Tests freeze it with Set.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var current clockwork.Clock = clockwork.NewRealClock()

// Set swaps the time source. Pass nil to go back to real time.
func Set(c clockwork.Clock) {
	if c == nil {
		current = clockwork.NewRealClock()
		return
	}
	current = c
}

// Get returns the current time source.
func Get() clockwork.Clock {
	return current
}

// Now returns the current time.
func Now() time.Time {
	return current.Now()
}
