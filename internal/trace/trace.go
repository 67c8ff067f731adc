// Package trace records a Sequencer's outbound calls as an ordered
// transcript.
//
// A Recorder is an engine.Host (and engine.TypingHost). Each call becomes an
// Event stamped with a logical sequence number and, when a time source is
// configured, the virtual time in milliseconds. Transcripts serialize to
// canonical JSON, so two runs with the same script, inputs and timing
// produce byte-identical output and the same Fingerprint.
package trace

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
)

// Call names, one per Host method.
const (
	CallPresent     = "present"
	CallAwaitChoice = "await_choice"
	CallAwaitText   = "await_text"
	CallField       = "field_updated"
	CallConfidence  = "confidence_changed"
	CallTerminal    = "terminal"
	CallVisual      = "visual"
	CallReset       = "reset"
	CallTyping      = "typing"
)

// Event is one outbound call.
type Event struct {
	Seq  int64          `json:"seq"`
	AtMS int64          `json:"at_ms"`
	Call string         `json:"call"`
	Args map[string]any `json:"args"`
}

// canonical returns the JSON object form of e. With timed false the
// sequence number and time are left out.
func (e Event) canonical(timed bool) map[string]any {
	args := e.Args
	if args == nil {
		args = map[string]any{}
	}
	obj := map[string]any{
		"call": e.Call,
		"args": args,
	}
	if timed {
		obj["seq"] = e.Seq
		obj["at_ms"] = e.AtMS
	}
	return obj
}

// String renders e compactly, for diagnostics.
func (e Event) String() string {
	b, err := MarshalCanonical(e.Args)
	if err != nil || len(e.Args) == 0 {
		return fmt.Sprintf("[%d] %s", e.Seq, e.Call)
	}
	return fmt.Sprintf("[%d] %s %s", e.Seq, e.Call, b)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNow stamps each event with the time now returns. Pass
// (*clock.Virtual).Now for virtual-time transcripts.
func WithNow(now func() time.Duration) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithTyping controls whether typing indicator calls are recorded. They
// are recorded by default.
func WithTyping(record bool) Option {
	return func(r *Recorder) {
		r.typing = record
	}
}

// WithObserver passes every event to fn right after it is recorded.
func WithObserver(fn func(Event)) Option {
	return func(r *Recorder) {
		r.observe = fn
	}
}

// Recorder captures outbound calls. It is not safe for concurrent use.
type Recorder struct {
	seq     *clock.Logical
	now     func() time.Duration
	typing  bool
	observe func(Event)
	events  []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{seq: clock.NewLogical(), typing: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns a copy of the recorded transcript.
func (r *Recorder) Events() []Event {
	return slices.Clone(r.events)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int { return len(r.events) }

// Clear discards recorded events and restarts sequence numbering.
func (r *Recorder) Clear() {
	r.events = nil
	r.seq.Reset()
}

func (r *Recorder) record(call string, args map[string]any) {
	e := Event{Seq: r.seq.Next(), Call: call, Args: args}
	if r.now != nil {
		e.AtMS = r.now().Milliseconds()
	}
	r.events = append(r.events, e)
	if r.observe != nil {
		r.observe(e)
	}
}

// OnPresent implements engine.Host.
func (r *Recorder) OnPresent(st script.Step) {
	args := map[string]any{
		"kind": st.Kind().String(),
		"text": script.Text(st),
	}
	if id := st.Meta().ID; id != "" {
		args["id"] = id
	}
	r.record(CallPresent, args)
}

// OnAwaitChoice implements engine.Host.
func (r *Recorder) OnAwaitChoice(choices []string) {
	r.record(CallAwaitChoice, map[string]any{"choices": slices.Clone(choices)})
}

// OnAwaitText implements engine.Host.
func (r *Recorder) OnAwaitText(placeholder string) {
	r.record(CallAwaitText, map[string]any{"placeholder": placeholder})
}

// OnFieldUpdated implements engine.Host.
func (r *Recorder) OnFieldUpdated(id, value string) {
	r.record(CallField, map[string]any{"field": id, "value": value})
}

// OnConfidenceChanged implements engine.Host.
func (r *Recorder) OnConfidenceChanged(pct int) {
	r.record(CallConfidence, map[string]any{"pct": pct})
}

// OnTerminal implements engine.Host.
func (r *Recorder) OnTerminal(text string) {
	r.record(CallTerminal, map[string]any{"text": text})
}

// OnVisual implements engine.Host.
func (r *Recorder) OnVisual(c subseq.Change) {
	args := map[string]any{"element": c.Element, "state": c.State}
	if c.Value != "" {
		args["value"] = c.Value
	}
	r.record(CallVisual, args)
}

// OnReset implements engine.Host.
func (r *Recorder) OnReset() {
	r.record(CallReset, nil)
}

// OnTyping implements engine.TypingHost.
func (r *Recorder) OnTyping(active bool) {
	if r.typing {
		r.record(CallTyping, map[string]any{"active": active})
	}
}

// MarshalEvents renders a transcript as canonical JSON, one event per
// line, including sequence numbers and times.
func MarshalEvents(events []Event) ([]byte, error) {
	var b strings.Builder
	b.WriteString("[\n")
	for i, e := range events {
		line, err := MarshalCanonical(e.canonical(true))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.Seq, err)
		}
		b.WriteString("  ")
		b.Write(line)
		if i < len(events)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("]\n")
	return []byte(b.String()), nil
}

// Fingerprint hashes the call sequence of a transcript. Sequence numbers
// and times are excluded, so a run replayed after a reset fingerprints
// the same as the original.
func Fingerprint(events []Event) (string, error) {
	arr := make([]any, 0, len(events))
	for _, e := range events {
		arr = append(arr, e.canonical(false))
	}
	data, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}

// Runs splits a transcript at reset calls. The first run is everything
// before the first reset; each reset event starts a new run.
func Runs(events []Event) [][]Event {
	var runs [][]Event
	start := 0
	for i, e := range events {
		if e.Call == CallReset && i > start {
			runs = append(runs, events[start:i])
			start = i
		}
	}
	if start < len(events) {
		runs = append(runs, events[start:])
	}
	return runs
}

// WithoutResetPrefix drops the reset notification and the confidence
// zeroing that follows it, leaving the events of the restarted run.
func WithoutResetPrefix(run []Event) []Event {
	if len(run) == 0 || run[0].Call != CallReset {
		return run
	}
	run = run[1:]
	if len(run) > 0 && run[0].Call == CallConfidence && run[0].Args["pct"] == 0 {
		run = run[1:]
	}
	return run
}
