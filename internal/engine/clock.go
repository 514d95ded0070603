package engine

import "time"

// Clock abstracts wall time for the interpreter and the queue runners.
//
// WaitFor deadlines are computed from Now, and runner pauses wait on After.
// Production code uses RealClock; tests inject testutil.FakeClock so waits
// are deterministic.
//
// Thread-safety: implementations must be safe for concurrent use. Every
// category runner shares one Clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealClock is a Clock backed by the time package.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
