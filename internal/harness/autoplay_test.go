package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
)

func checkpoints(t *testing.T) *script.Script {
	t.Helper()
	s, err := script.New("auto",
		script.SystemMessage{Text: "Pick", Choices: []string{"X", "Y"}},
		script.AwaitChoice{Common: script.Common{Confidence: 30}, TargetField: "pick"},
		script.SystemMessage{Text: "Say something"},
		script.AwaitText{Common: script.Common{Confidence: 60}, TargetField: "said"},
		script.AsyncProcess{Common: script.Common{Confidence: 90}, Items: []string{"one", "two"}},
		script.Terminal{Common: script.Common{Confidence: 100}, Text: "bye"},
	)
	require.NoError(t, err)
	return s
}

func TestAutoplay_UsesAnswers(t *testing.T) {
	tr, err := Autoplay(checkpoints(t), []string{"Y", "hello"})
	require.NoError(t, err)

	assert.Equal(t, "auto", tr.Script)
	assert.Equal(t, []string{"Y", "hello"}, tr.Answers)
	assert.Equal(t, map[string]string{"pick": "Y", "said": "hello"}, tr.Final.Fields)
	assert.Equal(t, 100, tr.Final.Confidence)
	assert.Len(t, tr.Fingerprint, 64)
	assert.Positive(t, tr.ElapsedMS)
}

func TestAutoplay_Fallbacks(t *testing.T) {
	tr, err := Autoplay(checkpoints(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", FallbackAnswer}, tr.Answers)
}

func TestAutoplay_RejectedAnswer(t *testing.T) {
	_, err := Autoplay(checkpoints(t), []string{"Z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `checkpoint 1: answer "Z" rejected`)

	_, err = Autoplay(checkpoints(t), []string{"X", "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint 2")
}

func TestAutoplay_ReplayMatches(t *testing.T) {
	first, err := Autoplay(checkpoints(t), []string{"Y"})
	require.NoError(t, err)
	again, err := Autoplay(checkpoints(t), first.Answers)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, again.Fingerprint)
	assert.Equal(t, first.Events, again.Events)
}

func TestAutoplay_Timing(t *testing.T) {
	fast := engine.Timing{ThinkDelay: time.Millisecond}
	tr, err := Autoplay(checkpoints(t), nil, WithTiming(fast))
	require.NoError(t, err)

	slow, err := Autoplay(checkpoints(t), nil)
	require.NoError(t, err)

	assert.Less(t, tr.ElapsedMS, slow.ElapsedMS)
	assert.NotEqual(t, tr.Events, slow.Events, "times differ")
	assert.Equal(t, tr.Fingerprint, slow.Fingerprint, "calls do not")
}

func TestAutoplay_BadTiming(t *testing.T) {
	_, err := Autoplay(checkpoints(t), nil, WithTiming(engine.Timing{ReplyDelay: -time.Second}))
	assert.ErrorIs(t, err, engine.ErrBadTiming)
}
