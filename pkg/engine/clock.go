package engine

import "time"

// Clock supplies the engine's notion of now. The periodic loops and
// all staleness arithmetic go through it so tests can advance time
// deterministically instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation
func SystemClock() Clock {
	return systemClock{}
}
