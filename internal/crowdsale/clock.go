package crowdsale

import "time"

// Clock is the coordinator's time source. Injected so tests can move time
// past the sale deadline without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
