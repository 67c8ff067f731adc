package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/playback/internal/clock"
)

// wakeMsg is delivered when a scheduled delay may have elapsed.
type wakeMsg time.Time

// Scheduler runs engine callbacks inside the bubbletea update loop.
//
// Deadlines are kept on a clock.Virtual that Sync moves up to the wall
// time elapsed since creation, so callbacks fire in deadline order on the
// Update goroutine. Each AfterFunc also queues a tea.Tick that wakes the
// program once the delay has passed; Cmd hands those to bubbletea.
type Scheduler struct {
	v      *clock.Virtual
	now    func() time.Time
	origin time.Time
	wakes  []time.Duration
}

// NewScheduler creates a scheduler reading wall time from now.
func NewScheduler(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{v: clock.NewVirtual(), now: now, origin: now()}
}

// AfterFunc implements clock.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) clock.Timer {
	s.wakes = append(s.wakes, max(d, 0))
	return s.v.AfterFunc(d, fn)
}

// Sync fires every callback whose deadline has passed and returns how
// many fired.
func (s *Scheduler) Sync() int {
	elapsed := s.now().Sub(s.origin)
	if elapsed <= s.v.Now() {
		return 0
	}
	return s.v.Advance(elapsed - s.v.Now())
}

// Pending returns the number of callbacks not yet fired.
func (s *Scheduler) Pending() int { return s.v.Pending() }

// Cmd returns wake-ups for the delays scheduled since the last call, or nil.
func (s *Scheduler) Cmd() tea.Cmd {
	if len(s.wakes) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(s.wakes))
	for _, d := range s.wakes {
		cmds = append(cmds, tea.Tick(d, func(t time.Time) tea.Msg { return wakeMsg(t) }))
	}
	s.wakes = s.wakes[:0]
	return tea.Batch(cmds...)
}
