package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/progress"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
	"github.com/roach88/playback/internal/timer"
)

// ProcessElement is the element an async step's item reveal targets when
// the step has no ID.
const ProcessElement = "process"

// Phase is the Sequencer's coarse state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePresenting
	PhaseAwaitingInput
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePresenting:
		return "presenting"
	case PhaseAwaitingInput:
		return "awaiting-input"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ParsePhase maps a Phase name back to its value.
func ParsePhase(s string) (Phase, error) {
	for p := PhaseIdle; p <= PhaseDone; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// State is a snapshot of the Sequencer.
type State struct {
	Phase     Phase
	Index     int
	Advancing bool
	// Pending is the number of live timers.
	Pending int
	// Epoch increases on every reset or dispose.
	Epoch uint64
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithTiming replaces DefaultTiming.
func WithTiming(t Timing) Option {
	return func(s *Sequencer) {
		s.timing = t
	}
}

// WithLogger sets the logger for transitions and dropped inputs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer runs one Script against one Host.
//
// INVARIANTS:
//   - exactly one step is active; steps are visited in order and only
//     revisited after Reset
//   - confidence never decreases within a run and is 0 after Reset
//   - no timer scheduled before Reset or Dispose fires after it
//
// A Sequencer is not safe for concurrent use.
type Sequencer struct {
	script *script.Script
	host   Host
	typing TypingHost
	timers *timer.Registry
	store  *progress.Store
	timing Timing
	logger *slog.Logger

	phase     Phase
	index     int
	advancing bool
}

// New creates an idle Sequencer. sched provides every delay; pass a
// *loop.Loop for real time or a *clock.Virtual in tests.
func New(s *script.Script, host Host, sched clock.Scheduler, opts ...Option) (*Sequencer, error) {
	switch {
	case s == nil:
		return nil, ErrNilScript
	case host == nil:
		return nil, ErrNilHost
	case sched == nil:
		return nil, ErrNilScheduler
	}

	seq := &Sequencer{
		script: s,
		host:   host,
		timers: timer.New(sched),
		store:  progress.New(s.Fields()...),
		timing: DefaultTiming(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(seq)
	}
	if err := seq.timing.Validate(); err != nil {
		return nil, err
	}
	if th, ok := host.(TypingHost); ok {
		seq.typing = th
	}
	seq.logger = seq.logger.With("script", s.Name())
	return seq, nil
}

// Script returns the script being run.
func (s *Sequencer) Script() *script.Script { return s.script }

// State returns the current state.
func (s *Sequencer) State() State {
	return State{
		Phase:     s.phase,
		Index:     s.index,
		Advancing: s.advancing,
		Pending:   s.timers.Pending(),
		Epoch:     s.timers.Epoch(),
	}
}

// Progress returns a copy of the confidence metric and output fields.
func (s *Sequencer) Progress() progress.Snapshot {
	return s.store.Snapshot()
}

// Start begins the run at step 0. It returns false, doing nothing, unless
// the Sequencer is idle.
func (s *Sequencer) Start() bool {
	if s.phase != PhaseIdle {
		s.logger.Debug("start ignored", "phase", s.phase)
		return false
	}
	s.phase = PhasePresenting
	s.advancing = false
	s.logger.Debug("run started", "epoch", s.timers.Epoch())
	s.enter(0)
	return true
}

// SubmitChoice answers an await-choice step. It returns false, with no
// effect, unless the current step is an await-choice offering label and no
// earlier submission is still advancing.
func (s *Sequencer) SubmitChoice(label string) bool {
	st, ok := s.awaiting(script.KindAwaitChoice, "choice")
	if !ok {
		return false
	}
	aw := st.(script.AwaitChoice)
	if !slices.Contains(aw.Choices, label) {
		s.logger.Debug("submission dropped", "reason", "unknown choice", "label", label)
		return false
	}
	s.accept(aw, aw.TargetField, label)
	return true
}

// SubmitText answers an await-text step. The value is trimmed; blank
// values are dropped like any other invalid submission.
func (s *Sequencer) SubmitText(value string) bool {
	st, ok := s.awaiting(script.KindAwaitText, "text")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		s.logger.Debug("submission dropped", "reason", "blank text")
		return false
	}
	aw := st.(script.AwaitText)
	s.accept(aw, aw.TargetField, value)
	return true
}

// Reset cancels everything in flight, zeroes the progress store and starts
// over from step 0. It is a no-op on an idle Sequencer.
func (s *Sequencer) Reset() {
	if s.phase == PhaseIdle {
		return
	}
	s.timers.CancelAll()
	s.store.Reset()
	s.phase = PhaseIdle
	s.index = 0
	s.advancing = false
	s.logger.Debug("run reset", "epoch", s.timers.Epoch())

	ep := s.timers.Epoch()
	s.host.OnReset()
	if s.stale(ep) {
		return
	}
	s.host.OnConfidenceChanged(0)
	if s.stale(ep) || s.phase != PhaseIdle {
		return
	}
	s.Start()
}

// Dispose cancels every pending timer and leaves the Sequencer idle. A later
// Start runs the script again from a clean store.
func (s *Sequencer) Dispose() {
	if s.phase == PhaseIdle {
		return
	}
	s.timers.CancelAll()
	s.store.Reset()
	s.phase = PhaseIdle
	s.index = 0
	s.advancing = false
	s.logger.Debug("run disposed", "epoch", s.timers.Epoch())
}

// awaiting returns the current step when a submission of kind may be
// accepted.
func (s *Sequencer) awaiting(kind script.Kind, what string) (script.Step, bool) {
	if s.phase != PhaseAwaitingInput {
		s.logger.Debug("submission dropped", "reason", "not awaiting input", "input", what, "phase", s.phase)
		return nil, false
	}
	if s.advancing {
		s.logger.Debug("submission dropped", "reason", "advancing", "input", what)
		return nil, false
	}
	st := s.script.At(s.index)
	if st.Kind() != kind {
		s.logger.Debug("submission dropped", "reason", "wrong checkpoint", "input", what, "step", st.Kind())
		return nil, false
	}
	return st, true
}

// accept records an answer and schedules the next step after ReplyDelay.
func (s *Sequencer) accept(st script.Step, target, value string) {
	s.advancing = true
	s.logger.Debug("submission accepted", "index", s.index, "value", value)

	ep := s.timers.Epoch()
	if target != "" {
		s.store.SetField(target, value)
		s.host.OnFieldUpdated(target, value)
		if s.stale(ep) {
			return
		}
	}
	if !s.applyConfidence(ep, st.Meta().Confidence) {
		return
	}

	s.index++
	s.phase = PhasePresenting
	s.timers.Schedule(s.timing.ReplyDelay, func() {
		s.advancing = false
		s.enter(s.index)
	})
}

// enter makes step i the active step.
func (s *Sequencer) enter(i int) {
	s.index = i
	st := s.script.At(i)
	s.logger.Debug("step entered", "index", i, "kind", st.Kind(), "id", st.Meta().ID)

	ep := s.timers.Epoch()
	for _, fu := range st.Meta().FieldUpdates {
		s.store.SetField(fu.Field, fu.Value)
		s.host.OnFieldUpdated(fu.Field, fu.Value)
		if s.stale(ep) {
			return
		}
	}

	switch step := st.(type) {
	case script.SystemMessage:
		s.typed(step.Instant, func() {
			s.host.OnPresent(s.script.At(i))
			if s.stale(ep) {
				return
			}
			if i+1 < s.script.Len() && s.script.At(i+1).Kind().IsAwait() {
				// The checkpoint's confidence covers the prompt too.
				s.enter(i + 1)
				return
			}
			s.complete(ep, step)
		})
	case script.AwaitChoice:
		s.phase = PhaseAwaitingInput
		s.host.OnAwaitChoice(slices.Clone(step.Choices))
	case script.AwaitText:
		s.phase = PhaseAwaitingInput
		placeholder := step.Placeholder
		if placeholder == "" {
			placeholder = script.DefaultPlaceholder
		}
		s.host.OnAwaitText(placeholder)
	case script.AsyncProcess:
		s.phase = PhasePresenting
		s.host.OnPresent(s.script.At(i))
		if s.stale(ep) {
			return
		}
		s.process(step).Run(s.timers, s.visual(ep), func() {
			if s.stale(ep) {
				return
			}
			s.complete(ep, step)
		})
	case script.Terminal:
		s.typed(step.Instant, func() {
			s.host.OnTerminal(step.Text)
			if s.stale(ep) {
				return
			}
			if !s.applyConfidence(ep, step.Confidence) {
				return
			}
			s.phase = PhaseDone
			s.logger.Debug("run done", "confidence", s.store.Confidence())
		})
	}
}

// complete applies a step's confidence and moves to the next step.
func (s *Sequencer) complete(ep uint64, st script.Step) {
	if !s.applyConfidence(ep, st.Meta().Confidence) {
		return
	}
	s.enter(s.index + 1)
}

// applyConfidence stores and reports c. It returns false when the host
// reset or disposed the run from the notification.
func (s *Sequencer) applyConfidence(ep uint64, c int) bool {
	c = s.store.SetConfidence(c)
	s.host.OnConfidenceChanged(c)
	return !s.stale(ep)
}

// typed runs then after the typing precursor, or right away when instant.
func (s *Sequencer) typed(instant bool, then func()) {
	s.phase = PhasePresenting
	if instant {
		then()
		return
	}
	s.setTyping(true)
	s.timers.Schedule(s.timing.ThinkDelay, func() {
		s.setTyping(false)
		then()
	})
}

func (s *Sequencer) setTyping(active bool) {
	if s.typing != nil {
		s.typing.OnTyping(active)
	}
}

// process returns the timeline an async step runs.
func (s *Sequencer) process(st script.AsyncProcess) subseq.Program {
	if st.Process != nil {
		return st.Process
	}
	el := st.ID
	if el == "" {
		el = ProcessElement
	}
	return subseq.Reveal{
		Element: el,
		Labels:  st.Items,
		Start:   s.timing.ProcessStart,
		Cadence: s.timing.ProcessCadence,
		Settle:  s.timing.ProcessSettle,
	}
}

// visual forwards sub-sequence changes while the run that started them is
// still current.
func (s *Sequencer) visual(ep uint64) func(subseq.Change) {
	return func(c subseq.Change) {
		if s.stale(ep) {
			return
		}
		s.host.OnVisual(c)
	}
}

// stale reports whether the run that captured ep has been reset or
// disposed since.
func (s *Sequencer) stale(ep uint64) bool {
	return s.timers.Epoch() != ep
}
