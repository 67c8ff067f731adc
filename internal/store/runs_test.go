package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/trace"
)

func sampleEvents() []trace.Event {
	return []trace.Event{
		{Seq: 1, AtMS: 0, Call: trace.CallTyping, Args: map[string]any{"active": true}},
		{Seq: 2, AtMS: 800, Call: trace.CallPresent, Args: map[string]any{"kind": "system-message", "text": "Q1"}},
		{Seq: 3, AtMS: 800, Call: trace.CallAwaitChoice, Args: map[string]any{"choices": []string{"A", "B"}}},
		{Seq: 4, AtMS: 800, Call: trace.CallConfidence, Args: map[string]any{"pct": 20}},
		{Seq: 5, AtMS: 900, Call: trace.CallReset},
	}
}

func TestSaveRun_GetRun(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("run-1")))

	saved, err := s.SaveRun(ctx, "builtin:qa", []string{"A"}, sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, "run-1", saved.ID)
	assert.Equal(t, int64(1), saved.CreatedSeq)
	assert.Equal(t, 5, saved.Events)

	want, err := trace.Fingerprint(sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, want, saved.Fingerprint)

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RunEvents(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRun_DefaultIDsAreUUIDv7(t *testing.T) {
	s := createTestStore(t)
	run, err := s.SaveRun(context.Background(), "tango", nil, sampleEvents())
	require.NoError(t, err)

	id, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, []string{}, run.Answers)
}

func TestListRuns_CreationOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("b", "a", "c")))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, script := range []string{"one", "two", "three"} {
		_, err := s.SaveRun(ctx, script, []string{script}, sampleEvents()[:2])
		require.NoError(t, err)
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, want := range []struct {
		id     string
		script string
	}{{"b", "one"}, {"a", "two"}, {"c", "three"}} {
		assert.Equal(t, want.id, runs[i].ID)
		assert.Equal(t, want.script, runs[i].Script)
		assert.Equal(t, int64(i+1), runs[i].CreatedSeq)
		assert.Equal(t, []string{want.script}, runs[i].Answers)
		assert.Equal(t, 2, runs[i].Events)
	}
}

func TestRunEvents_RoundTripFingerprint(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	run, err := s.SaveRun(ctx, "qa", []string{"A"}, sampleEvents())
	require.NoError(t, err)

	events, err := s.RunEvents(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, int64(800), events[1].AtMS)
	assert.Equal(t, trace.CallAwaitChoice, events[2].Call)
	assert.Equal(t, []any{"A", "B"}, events[2].Args["choices"])
	assert.Equal(t, int64(20), events[3].Args["pct"])
	assert.Nil(t, events[4].Args)

	fp, err := trace.Fingerprint(events)
	require.NoError(t, err)
	assert.Equal(t, run.Fingerprint, fp)

	a, err := trace.MarshalEvents(sampleEvents())
	require.NoError(t, err)
	b, err := trace.MarshalEvents(events)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSaveRun_RejectsUnsupportedArgs(t *testing.T) {
	s := createTestStore(t)
	_, err := s.SaveRun(context.Background(), "bad", nil, []trace.Event{
		{Seq: 1, Call: "visual", Args: map[string]any{"ratio": 0.5}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save run")

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRun_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("same", "same")))

	_, err := s.SaveRun(ctx, "qa", nil, sampleEvents())
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, "qa", nil, sampleEvents())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run")

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed save left nothing behind")
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
