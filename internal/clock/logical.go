package clock

import "sync/atomic"

// Logical is a monotonic sequence counter for stamping trace events.
//
// Every recorded outbound call takes the next value, so two traces of the
// same run compare equal regardless of how many callbacks shared a virtual
// deadline.
//
// Thread-safety: Logical is safe for concurrent use (atomic operations),
// although the engine's single-goroutine model means one caller in practice.
type Logical struct {
	seq atomic.Int64
}

// NewLogical creates a counter starting at 0.
func NewLogical() *Logical {
	return &Logical{}
}

// NewLogicalAt creates a counter starting at a specific value.
// Used when appending to a trace that was loaded from the run store.
func NewLogicalAt(start int64) *Logical {
	l := &Logical{}
	l.seq.Store(start)
	return l
}

// Next increments the counter and returns the new value. The first call
// returns 1.
func (l *Logical) Next() int64 {
	return l.seq.Add(1)
}

// Current returns the counter without incrementing.
func (l *Logical) Current() int64 {
	return l.seq.Load()
}

// Reset returns the counter to 0.
func (l *Logical) Reset() {
	l.seq.Store(0)
}
