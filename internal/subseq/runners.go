package subseq

import (
	"strconv"
	"time"
)

// Default cadences, tuned for the marketing demos.
const (
	DefaultCountTick       = 30 * time.Millisecond
	DefaultPhaseGap        = 100 * time.Millisecond
	DefaultPhasePause      = 50 * time.Millisecond
	DefaultPhaseTail       = 100 * time.Millisecond
	DefaultBurstCount      = 30
	DefaultBurstInterval   = 60 * time.Millisecond
	DefaultStaggerInterval = 350 * time.Millisecond
)

// Reveal shows labels one at a time.
//
// The first label appears after Start and each following one Cadence later.
// One Cadence after the last label the element is marked settled, and the
// program is done Settle after that. With no labels the settled change comes
// at Start.
type Reveal struct {
	Element string
	Labels  []string
	Start   time.Duration
	Cadence time.Duration
	Settle  time.Duration
}

// Run implements Program.
func (r Reveal) Run(s Scheduler, emit func(Change), done func()) {
	finish := once(done)
	var next func(i int)
	next = func(i int) {
		if i >= len(r.Labels) {
			emit(Change{Element: r.Element, State: StateSettled})
			s.Schedule(r.Settle, finish)
			return
		}
		emit(Change{Element: r.Element, State: StateRevealed, Value: r.Labels[i]})
		s.Schedule(r.Cadence, func() { next(i + 1) })
	}
	s.Schedule(r.Start, func() { next(0) })
}

// CountUp animates a number from 0 to Target over roughly Duration.
//
// Every Tick the value grows by ceil(Target / (Duration/Tick)) and is
// emitted as "<n> <suffix>", clamped to Target.
type CountUp struct {
	Element  string
	Target   int
	Suffix   string
	Duration time.Duration
	Tick     time.Duration
}

// Run implements Program.
func (c CountUp) Run(s Scheduler, emit func(Change), done func()) {
	finish := once(done)
	if c.Target <= 0 {
		emit(Change{Element: c.Element, State: StateText, Value: c.format(0)})
		s.Schedule(0, finish)
		return
	}

	tick := c.Tick
	if tick <= 0 {
		tick = DefaultCountTick
	}
	steps := int(c.Duration / tick)
	if steps < 1 {
		steps = 1
	}
	inc := (c.Target + steps - 1) / steps

	n := 0
	var step func()
	step = func() {
		n += inc
		if n > c.Target {
			n = c.Target
		}
		emit(Change{Element: c.Element, State: StateText, Value: c.format(n)})
		if n >= c.Target {
			finish()
			return
		}
		s.Schedule(tick, step)
	}
	s.Schedule(tick, step)
}

func (c CountUp) format(n int) string {
	if c.Suffix == "" {
		return strconv.Itoa(n)
	}
	return strconv.Itoa(n) + " " + c.Suffix
}

// Phase is one bar of a PhaseFill.
type Phase struct {
	Element  string
	Duration time.Duration
}

// PhaseFill fills progress bars sequentially.
//
// Each phase goes active at its offset (value: fill duration in ms) and done
// Duration+Gap later; the next phase starts Pause after that. The program is
// done Tail after the offset where one more phase would start.
type PhaseFill struct {
	Phases []Phase
	Gap    time.Duration
	Pause  time.Duration
	Tail   time.Duration
}

// Run implements Program.
func (pf PhaseFill) Run(s Scheduler, emit func(Change), done func()) {
	var delay time.Duration
	for _, p := range pf.Phases {
		ms := strconv.FormatInt(p.Duration.Milliseconds(), 10)
		s.Schedule(delay, func() {
			emit(Change{Element: p.Element, State: StateActive, Value: ms})
		})
		delay += p.Duration + pf.Gap
		s.Schedule(delay, func() {
			emit(Change{Element: p.Element, State: StateDone})
		})
		delay += pf.Pause
	}
	s.Schedule(delay+pf.Tail, once(done))
}

// Stagger reveals elements at a fixed interval.
//
// Element i receives State at i*Interval. With Hold > 0 it receives Revert
// Hold later. The program is done at len*Interval+Tail, and never before the
// last revert.
type Stagger struct {
	Elements []string
	State    string
	Interval time.Duration
	Hold     time.Duration
	Revert   string
	Tail     time.Duration
}

// Run implements Program.
func (st Stagger) Run(s Scheduler, emit func(Change), done func()) {
	state := st.State
	if state == "" {
		state = StateVisible
	}
	revert := st.Revert
	if revert == "" {
		revert = StateIdle
	}

	for i, el := range st.Elements {
		at := time.Duration(i) * st.Interval
		s.Schedule(at, func() {
			emit(Change{Element: el, State: state})
		})
		if st.Hold > 0 {
			s.Schedule(at+st.Hold, func() {
				emit(Change{Element: el, State: revert})
			})
		}
	}

	end := time.Duration(len(st.Elements))*st.Interval + st.Tail
	if st.Hold > 0 && len(st.Elements) > 0 {
		if last := time.Duration(len(st.Elements)-1)*st.Interval + st.Hold; last > end {
			end = last
		}
	}
	s.Schedule(end, once(done))
}

// Burst spawns Count particles on Element, one every Interval.
// Each spawn carries the particle index as its value.
type Burst struct {
	Element  string
	Count    int
	Interval time.Duration
}

// Run implements Program.
func (b Burst) Run(s Scheduler, emit func(Change), done func()) {
	for i := 0; i < b.Count; i++ {
		idx := strconv.Itoa(i)
		s.Schedule(time.Duration(i)*b.Interval, func() {
			emit(Change{Element: b.Element, State: StateSpawn, Value: idx})
		})
	}
	n := b.Count
	if n < 0 {
		n = 0
	}
	s.Schedule(time.Duration(n)*b.Interval, once(done))
}
