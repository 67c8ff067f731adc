package clock

import "time"

// Timer is a pending callback returned by a Scheduler.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
//
// Implementations must invoke callbacks on the same goroutine that drives
// the engine. Callbacks scheduled from the same instant with delays d1 < d2
// fire in that order; equal delays fire in schedule order.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, fn func()) Timer

// AfterFunc implements Scheduler.
func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}
