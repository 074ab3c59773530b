package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps date_created/date_modified. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

func now() time.Time { return clock.Now().UTC() }
