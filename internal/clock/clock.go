// Package clock abstracts the time operations used by the ingestion retry
// loop, the layout scheduler and the inbox watcher so tests can drive time
// deterministically.
package clock

import "time"

// Clock is the subset of the time package the library depends on.
type Clock interface {
	Now() time.Time
	// After behaves like time.After; d <= 0 delivers immediately.
	After(d time.Duration) <-chan time.Time
	// AfterFunc behaves like time.AfterFunc.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop reports whether the call was prevented.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
