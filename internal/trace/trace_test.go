package trace

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
)

var (
	_ engine.Host       = (*Recorder)(nil)
	_ engine.TypingHost = (*Recorder)(nil)
)

func qaScript(t *testing.T) *script.Script {
	t.Helper()
	s, err := script.New("qa",
		script.SystemMessage{Text: "Q1", Choices: []string{"A", "B"}},
		script.AwaitChoice{Common: script.Common{Confidence: 20}, TargetField: "f1"},
		script.Terminal{Common: script.Common{Confidence: 100}, Text: "done"},
	)
	require.NoError(t, err)
	return s
}

func play(t *testing.T, seq *engine.Sequencer, v *clock.Virtual, answer string) {
	t.Helper()
	v.RunUntilIdle(0)
	require.True(t, seq.SubmitChoice(answer))
	v.RunUntilIdle(0)
}

func TestRecorder_StampsSeqAndTime(t *testing.T) {
	v := clock.NewVirtual()
	rec := NewRecorder(WithNow(v.Now))
	seq, err := engine.New(qaScript(t), rec, v)
	require.NoError(t, err)

	seq.Start()
	play(t, seq, v, "A")

	events := rec.Events()
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, CallTyping, events[0].Call)
	assert.Equal(t, int64(0), events[0].AtMS)

	last := events[len(events)-1]
	assert.Equal(t, CallConfidence, last.Call)
	assert.Equal(t, 100, last.Args["pct"])
	assert.Equal(t, (2000 * time.Millisecond).Milliseconds(), last.AtMS)
}

func TestRecorder_WithoutTyping(t *testing.T) {
	v := clock.NewVirtual()
	rec := NewRecorder(WithTyping(false))
	seq, err := engine.New(qaScript(t), rec, v)
	require.NoError(t, err)
	seq.Start()
	play(t, seq, v, "A")

	var calls []string
	for _, e := range rec.Events() {
		calls = append(calls, e.Call)
	}
	assert.Equal(t, []string{
		CallPresent, CallAwaitChoice,
		CallField, CallConfidence,
		CallTerminal, CallConfidence,
	}, calls)
}

func TestFingerprint_StableAcrossResetCycles(t *testing.T) {
	v := clock.NewVirtual()
	rec := NewRecorder(WithNow(v.Now))
	seq, err := engine.New(qaScript(t), rec, v)
	require.NoError(t, err)

	seq.Start()
	play(t, seq, v, "B")
	for i := 0; i < 3; i++ {
		seq.Reset()
		play(t, seq, v, "B")
	}

	runs := Runs(rec.Events())
	require.Len(t, runs, 4)

	first, err := Fingerprint(runs[0])
	require.NoError(t, err)
	for _, run := range runs[1:] {
		fp, err := Fingerprint(WithoutResetPrefix(run))
		require.NoError(t, err)
		assert.Equal(t, first, fp)
	}
}

func TestFingerprint_DiffersOnDifferentInput(t *testing.T) {
	fpFor := func(answer string) string {
		v := clock.NewVirtual()
		rec := NewRecorder()
		seq, err := engine.New(qaScript(t), rec, v)
		require.NoError(t, err)
		seq.Start()
		play(t, seq, v, answer)
		fp, err := Fingerprint(rec.Events())
		require.NoError(t, err)
		return fp
	}
	assert.NotEqual(t, fpFor("A"), fpFor("B"))
	assert.Len(t, fpFor("A"), 64)
}

func TestMarshalEvents(t *testing.T) {
	rec := NewRecorder()
	rec.OnVisual(subseq.Change{Element: "bar", State: subseq.StateActive, Value: "800"})
	rec.OnReset()

	out, err := MarshalEvents(rec.Events())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"[",
		`  {"args":{"element":"bar","state":"active","value":"800"},"at_ms":0,"call":"visual","seq":1},`,
		`  {"args":{},"at_ms":0,"call":"reset","seq":2}`,
		"]",
		"",
	}, "\n"), string(out))
}

func TestRecorder_Clear(t *testing.T) {
	rec := NewRecorder()
	rec.OnTerminal("x")
	rec.Clear()
	assert.Equal(t, 0, rec.Len())
	rec.OnTerminal("y")
	assert.Equal(t, int64(1), rec.Events()[0].Seq)
}

func TestEvent_String(t *testing.T) {
	e := Event{Seq: 3, Call: CallField, Args: map[string]any{"field": "f", "value": "v"}}
	assert.Equal(t, `[3] field_updated {"field":"f","value":"v"}`, e.String())
	assert.Equal(t, "[1] reset", Event{Seq: 1, Call: CallReset}.String())
}

func TestRecorder_Observer(t *testing.T) {
	var seen []Event
	rec := NewRecorder(WithObserver(func(e Event) { seen = append(seen, e) }))
	rec.OnTerminal("x")
	rec.OnConfidenceChanged(100)

	require.Len(t, seen, 2)
	assert.Equal(t, rec.Events(), seen)
}
