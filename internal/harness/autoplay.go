package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/progress"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/trace"
)

// FallbackAnswer answers a text checkpoint when no answer is left.
const FallbackAnswer = "n/a"

// ErrStalled is returned when a run stops making progress before the
// terminal step.
var ErrStalled = errors.New("run stalled")

// Transcript is the outcome of an unattended run.
type Transcript struct {
	Script      string            `json:"script"`
	Answers     []string          `json:"answers"`
	Events      []trace.Event     `json:"events"`
	Fingerprint string            `json:"fingerprint"`
	Final       progress.Snapshot `json:"final"`
	ElapsedMS   int64             `json:"elapsed_ms"`
}

// Autoplay runs s to its terminal step on a virtual clock, answering each
// checkpoint from answers in order. A checkpoint with no answer left gets
// its first choice, or FallbackAnswer for text. Transcript.Answers lists
// the answers actually submitted, so replaying them reproduces the run.
func Autoplay(s *script.Script, answers []string, opts ...Option) (*Transcript, error) {
	cfg := newRunConfig(opts)
	sess, err := newSession(s, cfg.baseTiming(), cfg.logger)
	if err != nil {
		return nil, err
	}

	var used []string
	sess.seq.Start()
	for {
		sess.clock.RunUntilIdle(0)
		st := sess.seq.State()
		if st.Phase == engine.PhaseDone {
			break
		}
		if st.Phase != engine.PhaseAwaitingInput {
			return nil, fmt.Errorf("%w at step %d (%s)", ErrStalled, st.Index, st.Phase)
		}

		step := s.At(st.Index)
		answer, ok := pick(step, answers, len(used))
		if !ok {
			return nil, fmt.Errorf("%w at step %d: no answer for %s", ErrStalled, st.Index, step.Kind())
		}
		var accepted bool
		switch step.Kind() {
		case script.KindAwaitChoice:
			accepted = sess.seq.SubmitChoice(answer)
		case script.KindAwaitText:
			accepted = sess.seq.SubmitText(answer)
		}
		if !accepted {
			return nil, fmt.Errorf("checkpoint %d: answer %q rejected", len(used)+1, answer)
		}
		used = append(used, answer)
	}

	var r Result
	if err := sess.result(&r); err != nil {
		return nil, err
	}
	return &Transcript{
		Script:      s.Name(),
		Answers:     used,
		Events:      r.Trace,
		Fingerprint: r.Fingerprint,
		Final:       r.Final,
		ElapsedMS:   r.ElapsedMS,
	}, nil
}

// pick chooses the answer for the n-th checkpoint.
func pick(step script.Step, answers []string, n int) (string, bool) {
	if n < len(answers) {
		return answers[n], true
	}
	switch st := step.(type) {
	case script.AwaitChoice:
		if len(st.Choices) == 0 {
			return "", false
		}
		return st.Choices[0], true
	case script.AwaitText:
		return FallbackAnswer, true
	}
	return "", false
}
