// Package clock is the engine time source
package clock

import "time"

// NowFunc returns the current time; tests may replace it for determinism
var NowFunc = time.Now

// Now returns the current time
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }

// Freeze pins the clock at t until the returned restore function is called
func Freeze(t time.Time) (restore func()) {
	previous := NowFunc
	NowFunc = func() time.Time { return t }
	return func() { NowFunc = previous }
}
