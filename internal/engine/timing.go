package engine

import (
	"fmt"
	"time"

	"github.com/roach88/playback/internal/script"
)

// Timing holds the Sequencer's delays.
type Timing struct {
	// ThinkDelay is how long the typing indicator shows before a message.
	ThinkDelay time.Duration
	// ReplyDelay separates an accepted submission from the next step.
	ReplyDelay time.Duration

	// Reveal cadence for async steps that only list Items.
	ProcessStart   time.Duration
	ProcessCadence time.Duration
	ProcessSettle  time.Duration
}

// DefaultTiming returns the delays the demos are tuned for.
func DefaultTiming() Timing {
	return Timing{
		ThinkDelay:     800 * time.Millisecond,
		ReplyDelay:     400 * time.Millisecond,
		ProcessStart:   script.DefaultProcessStart,
		ProcessCadence: script.DefaultProcessCadence,
		ProcessSettle:  script.DefaultProcessSettle,
	}
}

// Validate rejects negative delays.
func (t Timing) Validate() error {
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"think", t.ThinkDelay},
		{"reply", t.ReplyDelay},
		{"process start", t.ProcessStart},
		{"process cadence", t.ProcessCadence},
		{"process settle", t.ProcessSettle},
	} {
		if d.v < 0 {
			return fmt.Errorf("%w: %s delay is %s", ErrBadTiming, d.name, d.v)
		}
	}
	return nil
}
