package harness

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/demo"
	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/trace"
)

// Option configures Run and Autoplay.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
	timing *engine.Timing
}

// WithLogger sets the logger passed to the Sequencer.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTiming sets the base timing. Scenario overrides still apply on top.
func WithTiming(t engine.Timing) Option {
	return func(c *runConfig) { c.timing = &t }
}

func newRunConfig(opts []Option) runConfig {
	cfg := runConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c runConfig) baseTiming() engine.Timing {
	if c.timing != nil {
		return *c.timing
	}
	return engine.DefaultTiming()
}

// session is one Sequencer on a fresh virtual clock with a recorder.
type session struct {
	seq   *engine.Sequencer
	clock *clock.Virtual
	rec   *trace.Recorder
}

func newSession(s *script.Script, t engine.Timing, logger *slog.Logger) (*session, error) {
	v := clock.NewVirtual()
	rec := trace.NewRecorder(trace.WithNow(v.Now))
	seq, err := engine.New(s, rec, v, engine.WithTiming(t), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{seq: seq, clock: v, rec: rec}, nil
}

// result summarizes the session into r.
func (s *session) result(r *Result) error {
	r.Trace = s.rec.Events()
	fp, err := trace.Fingerprint(r.Trace)
	if err != nil {
		return err
	}
	r.Fingerprint = fp
	r.Final = s.seq.Progress()
	r.Phase = s.seq.State().Phase.String()
	r.ElapsedMS = s.clock.Now().Milliseconds()
	return nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on its own virtual clock, so results are reproducible.
// An error means the scenario could not run at all; failed expectations and
// assertions are reported in Result.Errors.
func Run(sc *Scenario, opts ...Option) (*Result, error) {
	cfg := newRunConfig(opts)
	s, err := demo.Resolve(sc.Script, sc.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}
	sess, err := newSession(s, sc.Timing.Apply(cfg.baseTiming()), cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequencer: %w", err)
	}
	logger := cfg.logger.With("scenario", sc.Name)

	result := NewResult()
	for i, step := range sc.Flow {
		if err := sess.execute(i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute flow: %w", err)
		}
		logger.Debug("flow step completed",
			"step", i,
			"action", step.Action,
			"phase", sess.seq.State().Phase,
			"at_ms", sess.clock.Now().Milliseconds(),
		)
	}
	if err := sess.result(result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, sc.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute applies one flow step. Rejected inputs are only failures when
// the step says so.
func (s *session) execute(i int, step FlowStep, result *Result) error {
	var accepted bool
	switch step.Action {
	case ActionStart:
		accepted = s.seq.Start()
	case ActionChoose:
		accepted = s.seq.SubmitChoice(step.Value)
	case ActionText:
		accepted = s.seq.SubmitText(step.Value)
	case ActionAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		s.clock.Advance(d)
		return nil
	case ActionSettle:
		s.clock.RunUntilIdle(0)
		return nil
	case ActionReset:
		s.seq.Reset()
		return nil
	case ActionDispose:
		s.seq.Dispose()
		return nil
	default:
		return fmt.Errorf("flow step %d: unknown action %q", i, step.Action)
	}

	if step.ExpectAccepted != nil && *step.ExpectAccepted != accepted {
		result.AddError(fmt.Sprintf("flow[%d]: %s %q: expected accepted=%t, got %t",
			i, step.Action, step.Value, *step.ExpectAccepted, accepted))
	}
	return nil
}
