package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/loop"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/trace"
)

// Live runs s like Autoplay but on wall-clock time, passing each event to
// observe as it happens. observe may be nil. Cancelling ctx disposes the
// run and returns ctx's error.
func Live(ctx context.Context, s *script.Script, answers []string, observe func(trace.Event), opts ...Option) (*Transcript, error) {
	cfg := newRunConfig(opts)
	lp := loop.New(loop.WithLogger(cfg.logger))

	var (
		seq    *engine.Sequencer
		used   []string
		runErr error
	)
	// check runs on the loop after every event, once the task that
	// recorded it has finished scheduling.
	check := func() {
		if runErr != nil {
			return
		}
		st := seq.State()
		switch {
		case st.Phase == engine.PhaseDone:
			lp.Stop()
		case st.Phase == engine.PhaseAwaitingInput && !st.Advancing:
			step := s.At(st.Index)
			answer, ok := pick(step, answers, len(used))
			if !ok {
				runErr = fmt.Errorf("%w at step %d: no answer for %s", ErrStalled, st.Index, step.Kind())
				lp.Stop()
				return
			}
			var accepted bool
			switch step.Kind() {
			case script.KindAwaitChoice:
				accepted = seq.SubmitChoice(answer)
			case script.KindAwaitText:
				accepted = seq.SubmitText(answer)
			}
			if !accepted {
				runErr = fmt.Errorf("checkpoint %d: answer %q rejected", len(used)+1, answer)
				lp.Stop()
				return
			}
			used = append(used, answer)
		case st.Phase != engine.PhaseAwaitingInput && st.Pending == 0:
			runErr = fmt.Errorf("%w at step %d (%s)", ErrStalled, st.Index, st.Phase)
			lp.Stop()
		}
	}

	start := time.Now()
	rec := trace.NewRecorder(
		trace.WithNow(func() time.Duration { return time.Since(start) }),
		trace.WithObserver(func(e trace.Event) {
			if observe != nil {
				observe(e)
			}
			lp.Post(check)
		}),
	)
	seq, err := engine.New(s, rec, lp, engine.WithTiming(cfg.baseTiming()), engine.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	lp.Post(func() { seq.Start() })
	if err := lp.Run(ctx); err != nil {
		seq.Dispose()
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}

	events := rec.Events()
	fp, err := trace.Fingerprint(events)
	if err != nil {
		return nil, err
	}
	var elapsed int64
	if n := len(events); n > 0 {
		elapsed = events[n-1].AtMS
	}
	return &Transcript{
		Script:      s.Name(),
		Answers:     used,
		Events:      events,
		Fingerprint: fp,
		Final:       seq.Progress(),
		ElapsedMS:   elapsed,
	}, nil
}
