package engine

import "time"

// Clock abstracts time so decision flows can be driven
// deterministically in tests. All engine waits go through the clock;
// nothing inside the engine touches the wall clock directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for the given duration.
	Sleep(d time.Duration)
}

// realClock implements Clock with the wall clock.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock returns the wall-clock implementation.
func RealClock() Clock {
	return realClock{}
}
