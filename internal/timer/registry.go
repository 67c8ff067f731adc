// Package timer owns every delayed callback of one engine instance.
//
// A Registry wraps a clock.Scheduler. Each callback it schedules is stamped
// with the registry epoch and its handle. CancelAll stops every timer it
// knows about and bumps the epoch, so a callback that a host scheduler had
// already dequeued before the cancellation still finds a stale epoch and
// does nothing. After CancelAll no callback scheduled earlier can mutate
// state.
//
// A Registry is not safe for concurrent use. It must be driven from the
// goroutine that runs the scheduler's callbacks.
package timer

import (
	"time"

	"github.com/roach88/playback/internal/clock"
)

// Handle identifies one scheduled callback.
type Handle uint64

// Registry tracks outstanding callbacks for one engine.
type Registry struct {
	sched   clock.Scheduler
	epoch   uint64
	next    Handle
	pending map[Handle]clock.Timer
}

// New creates a registry over the given scheduler.
func New(sched clock.Scheduler) *Registry {
	return &Registry{
		sched:   sched,
		pending: make(map[Handle]clock.Timer),
	}
}

// Schedule runs fn after d unless the handle is cancelled or CancelAll is
// called first.
func (r *Registry) Schedule(d time.Duration, fn func()) Handle {
	r.next++
	h := r.next
	epoch := r.epoch
	r.pending[h] = r.sched.AfterFunc(d, func() {
		if epoch != r.epoch {
			return
		}
		if _, live := r.pending[h]; !live {
			return
		}
		delete(r.pending, h)
		fn()
	})
	return h
}

// Cancel stops one callback. Returns false if it already fired or was
// cancelled.
func (r *Registry) Cancel(h Handle) bool {
	t, ok := r.pending[h]
	if !ok {
		return false
	}
	delete(r.pending, h)
	t.Stop()
	return true
}

// CancelAll stops every outstanding callback and invalidates the current
// epoch. It is idempotent.
func (r *Registry) CancelAll() {
	r.epoch++
	for h, t := range r.pending {
		t.Stop()
		delete(r.pending, h)
	}
}

// Pending returns the number of callbacks that have not fired.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// Epoch returns the current epoch. It increases on every CancelAll.
func (r *Registry) Epoch() uint64 {
	return r.epoch
}
