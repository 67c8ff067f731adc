// Package subseq provides phased timeline helpers that the sequencer runs
// as embedded sub-programs of an async-process step.
//
// A Program has its own internal timing but no state machine. It schedules
// every delay through the Scheduler it is given, which in practice is the
// engine's timer registry, so a reset at the engine level cancels nested
// timelines too. Visual effects leave through emit as Change values; each
// Program calls done exactly once, always from a scheduled callback and
// never synchronously from Run, including when it has nothing to do.
package subseq

import (
	"time"

	"github.com/roach88/playback/internal/timer"
)

// Element states emitted by the built-in programs.
const (
	StateRevealed = "revealed"
	StateSettled  = "settled"
	StateText     = "text"
	StateActive   = "active"
	StateDone     = "done"
	StateVisible  = "visible"
	StateIdle     = "idle"
	StateSpawn    = "spawn"
)

// Scheduler is the subset of timer.Registry a Program needs.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) timer.Handle
}

// Change is one named visual state change on an addressable element.
type Change struct {
	Element string `json:"element"`
	State   string `json:"state"`
	Value   string `json:"value,omitempty"`
}

// Program is a timed sub-sequence.
type Program interface {
	Run(s Scheduler, emit func(Change), done func())
}

// once wraps done so that repeated calls after the first are ignored.
func once(done func()) func() {
	called := false
	return func() {
		if called {
			return
		}
		called = true
		if done != nil {
			done()
		}
	}
}

// Series runs programs one after another.
type Series []Program

// Run implements Program.
func (sr Series) Run(s Scheduler, emit func(Change), done func()) {
	finish := once(done)
	var run func(i int)
	run = func(i int) {
		if i >= len(sr) {
			s.Schedule(0, finish)
			return
		}
		sr[i].Run(s, emit, once(func() { run(i + 1) }))
	}
	run(0)
}

// All runs programs together and is done when every one of them is.
type All []Program

// Run implements Program.
func (a All) Run(s Scheduler, emit func(Change), done func()) {
	finish := once(done)
	if len(a) == 0 {
		s.Schedule(0, finish)
		return
	}
	remaining := len(a)
	for _, p := range a {
		p.Run(s, emit, once(func() {
			remaining--
			if remaining == 0 {
				finish()
			}
		}))
	}
}

// Set applies one change immediately.
type Set Change

// Run implements Program.
func (st Set) Run(s Scheduler, emit func(Change), done func()) {
	emit(Change(st))
	s.Schedule(0, once(done))
}

// Wait does nothing for D.
type Wait struct {
	D time.Duration
}

// Run implements Program.
func (w Wait) Run(s Scheduler, _ func(Change), done func()) {
	s.Schedule(w.D, once(done))
}
