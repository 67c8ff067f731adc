package subseq

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/timer"
)

// rig runs a program on a virtual clock and records every change with its
// virtual timestamp.
type rig struct {
	clock   *clock.Virtual
	reg     *timer.Registry
	changes []string
	done    int
	doneAt  time.Duration
}

func newRig() *rig {
	v := clock.NewVirtual()
	return &rig{clock: v, reg: timer.New(v)}
}

func (r *rig) run(p Program) {
	p.Run(r.reg, func(c Change) {
		r.changes = append(r.changes, fmt.Sprintf("%d %s %s %s", r.clock.Now().Milliseconds(), c.Element, c.State, c.Value))
	}, func() {
		r.done++
		r.doneAt = r.clock.Now()
	})
}

func TestReveal_Timing(t *testing.T) {
	r := newRig()
	r.run(Reveal{
		Element: "enrich",
		Labels:  []string{"one", "two"},
		Start:   600 * time.Millisecond,
		Cadence: 700 * time.Millisecond,
		Settle:  500 * time.Millisecond,
	})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"600 enrich revealed one",
		"1300 enrich revealed two",
		"2000 enrich settled ",
	}, r.changes)
	assert.Equal(t, 1, r.done)
	assert.Equal(t, 2500*time.Millisecond, r.doneAt)
}

func TestReveal_ZeroLabelsCompletesOnce(t *testing.T) {
	r := newRig()
	r.run(Reveal{Element: "e", Start: 600 * time.Millisecond, Settle: 500 * time.Millisecond})

	assert.Equal(t, 0, r.done, "completion is never synchronous")
	r.clock.RunUntilIdle(0)
	assert.Equal(t, []string{"600 e settled "}, r.changes)
	assert.Equal(t, 1, r.done)
	assert.Equal(t, 1100*time.Millisecond, r.doneAt)
}

func TestReveal_CancelMidway(t *testing.T) {
	r := newRig()
	r.run(Reveal{
		Element: "e",
		Labels:  []string{"1", "2", "3", "4", "5"},
		Start:   600 * time.Millisecond,
		Cadence: 700 * time.Millisecond,
		Settle:  500 * time.Millisecond,
	})
	r.clock.Advance(2000 * time.Millisecond)
	require.Len(t, r.changes, 3)

	r.reg.CancelAll()
	r.clock.RunUntilIdle(0)
	assert.Len(t, r.changes, 3)
	assert.Equal(t, 0, r.done)
}

func TestCountUp(t *testing.T) {
	r := newRig()
	r.run(CountUp{Element: "count", Target: 10, Suffix: "found", Duration: 120 * time.Millisecond})
	r.clock.RunUntilIdle(0)

	// 120ms / 30ms = 4 steps of ceil(10/4) = 3.
	assert.Equal(t, []string{
		"30 count text 3 found",
		"60 count text 6 found",
		"90 count text 9 found",
		"120 count text 10 found",
	}, r.changes)
	assert.Equal(t, 1, r.done)
}

func TestCountUp_ZeroTarget(t *testing.T) {
	r := newRig()
	r.run(CountUp{Element: "count", Suffix: "resources"})
	r.clock.RunUntilIdle(0)
	assert.Equal(t, []string{"0 count text 0 resources"}, r.changes)
	assert.Equal(t, 1, r.done)
}

func TestCountUp_NoSuffix(t *testing.T) {
	r := newRig()
	r.run(CountUp{Element: "n", Target: 5, Duration: 10 * time.Millisecond, Tick: 10 * time.Millisecond})
	r.clock.RunUntilIdle(0)
	assert.Equal(t, []string{"10 n text 5"}, r.changes)
}

func TestPhaseFill(t *testing.T) {
	r := newRig()
	r.run(PhaseFill{
		Phases: []Phase{
			{Element: "match", Duration: 800 * time.Millisecond},
			{Element: "recommend", Duration: 600 * time.Millisecond},
		},
		Gap:   DefaultPhaseGap,
		Pause: DefaultPhasePause,
		Tail:  DefaultPhaseTail,
	})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"0 match active 800",
		"900 match done ",
		"950 recommend active 600",
		"1650 recommend done ",
	}, r.changes)
	assert.Equal(t, 1800*time.Millisecond, r.doneAt)
}

func TestStagger(t *testing.T) {
	r := newRig()
	r.run(Stagger{Elements: []string{"a", "b", "c"}, Interval: 350 * time.Millisecond, Tail: 400 * time.Millisecond})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"0 a visible ",
		"350 b visible ",
		"700 c visible ",
	}, r.changes)
	assert.Equal(t, 1450*time.Millisecond, r.doneAt)
}

func TestStagger_HoldAndRevert(t *testing.T) {
	r := newRig()
	r.run(Stagger{
		Elements: []string{"a", "b"},
		State:    "sending",
		Interval: 200 * time.Millisecond,
		Hold:     600 * time.Millisecond,
	})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"0 a sending ",
		"200 b sending ",
		"600 a idle ",
		"800 b idle ",
	}, r.changes)
	assert.Equal(t, 800*time.Millisecond, r.doneAt, "waits for the last revert")
}

func TestBurst(t *testing.T) {
	r := newRig()
	r.run(Burst{Element: "particles", Count: 3, Interval: 60 * time.Millisecond})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"0 particles spawn 0",
		"60 particles spawn 1",
		"120 particles spawn 2",
	}, r.changes)
	assert.Equal(t, 180*time.Millisecond, r.doneAt)
}

func TestSeries(t *testing.T) {
	r := newRig()
	r.run(Series{
		Set{Element: "title", State: StateText, Value: "Scanning"},
		Wait{D: 100 * time.Millisecond},
		Set{Element: "title", State: StateText, Value: "Done"},
	})
	r.clock.RunUntilIdle(0)

	assert.Equal(t, []string{
		"0 title text Scanning",
		"100 title text Done",
	}, r.changes)
	assert.Equal(t, 1, r.done)
}

func TestAll_WaitsForSlowest(t *testing.T) {
	r := newRig()
	r.run(All{
		Wait{D: 300 * time.Millisecond},
		Wait{D: 900 * time.Millisecond},
		Wait{D: 100 * time.Millisecond},
	})
	r.clock.RunUntilIdle(0)
	assert.Equal(t, 1, r.done)
	assert.Equal(t, 900*time.Millisecond, r.doneAt)
}

func TestEmptyCombinatorsCompleteOnce(t *testing.T) {
	for name, p := range map[string]Program{
		"series":  Series{},
		"all":     All{},
		"stagger": Stagger{},
		"burst":   Burst{},
		"phases":  PhaseFill{},
	} {
		t.Run(name, func(t *testing.T) {
			r := newRig()
			r.run(p)
			assert.Equal(t, 0, r.done)
			r.clock.RunUntilIdle(0)
			assert.Equal(t, 1, r.done)
		})
	}
}
