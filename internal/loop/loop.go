// Package loop runs widget engines on real time.
//
// A Loop owns one goroutine. Timer callbacks and input events are posted to
// a FIFO queue and executed there one at a time, which gives the engine the
// single-threaded cooperative model it is written against.
//
// Thread-safety model:
//   - Post() and AfterFunc(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - callbacks: always executed on the Run goroutine
package loop

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/playback/internal/clock"
)

// Loop is a real-time clock.Scheduler backed by a single-goroutine queue.
type Loop struct {
	queue  *taskQueue
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger for loop lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// New creates a stopped loop. Call Run to start processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:  newTaskQueue(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn for execution on the loop goroutine.
// Returns false if the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	return l.queue.push(fn)
}

// AfterFunc implements clock.Scheduler.
//
// The wall-clock timer only posts fn to the queue. A callback that was
// posted before Stop was called on its timer can still run; the timer
// registry's epoch check is what discards it.
func (l *Loop) AfterFunc(d time.Duration, fn func()) clock.Timer {
	return &loopTimer{t: time.AfterFunc(d, func() { l.Post(fn) })}
}

// Run executes posted callbacks until ctx is cancelled or Stop is called.
// Blocks the calling goroutine.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop starting")

	for {
		if fn, ok := l.queue.tryPop(); ok {
			fn()
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopping: context cancelled")
			l.queue.close()
			return ctx.Err()
		case <-l.queue.wait():
			// The signal channel is closed by Stop, which makes this case
			// fire immediately; exit once the remaining tasks are drained.
			if l.queue.isClosed() && l.queue.len() == 0 {
				l.logger.Debug("loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after draining already posted tasks.
func (l *Loop) Stop() {
	l.queue.close()
}

type loopTimer struct {
	t *time.Timer
}

func (lt *loopTimer) Stop() bool {
	return lt.t.Stop()
}
