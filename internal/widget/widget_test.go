package widget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
)

func demoScript(t *testing.T) *script.Script {
	t.Helper()
	s, err := script.New("w",
		script.SystemMessage{Text: "What are you building?", Choices: []string{"App", "Site"}},
		script.AwaitChoice{Common: script.Common{Confidence: 10}, TargetField: "field-project-type"},
		script.SystemMessage{Text: "Team size?"},
		script.AwaitText{Common: script.Common{Confidence: 20}, TargetField: "field-team"},
		script.AsyncProcess{Common: script.Common{Confidence: 60}, Title: "Enriching", Process: subseq.Set{Element: "enrich", State: subseq.StateActive}},
		script.Terminal{Common: script.Common{Confidence: 100}, Text: "All set"},
	)
	require.NoError(t, err)
	return s
}

func TestMount_MissingCollaborators(t *testing.T) {
	s := demoScript(t)
	v := clock.NewVirtual()

	w, ok := Mount(nil, v, s)
	assert.False(t, ok)
	assert.Nil(t, w)

	_, ok = Mount(NewBoard("widget"), nil, s)
	assert.False(t, ok)

	_, ok = Mount(NewBoard("other"), v, s)
	assert.False(t, ok, "root element missing")
	assert.Zero(t, v.Pending(), "nothing scheduled")

	_, ok = Mount(NewBoard("widget"), v, nil)
	assert.False(t, ok)
}

func TestMount_BadEngineOptions(t *testing.T) {
	_, ok := Mount(NewBoard("widget"), clock.NewVirtual(), demoScript(t),
		WithEngineOptions(engine.WithTiming(engine.Timing{ThinkDelay: -time.Second})))
	assert.False(t, ok)
}

func TestWidget_DrivesBoard(t *testing.T) {
	s := demoScript(t)
	layout := DefaultLayout()
	board := layout.NewBoard(s.Fields())
	board.Add("enrich")
	v := clock.NewVirtual()

	w, ok := Mount(board, v, s)
	require.True(t, ok)
	require.True(t, w.Start())
	v.RunUntilIdle(0)

	assert.Equal(t, StateChoices, board.Node("choices").State)
	assert.Equal(t, "App|Site", board.Node("choices").Value)
	assert.Equal(t, StateIdle, board.Node("typing").State)

	assert.False(t, w.Choose("Boat"))
	require.True(t, w.Choose("App"))
	assert.Equal(t, "App", board.Node("field-project-type").Value)
	assert.Equal(t, "10", board.Node("confidence").Value)
	v.RunUntilIdle(0)

	assert.Equal(t, StatePrompt, board.Node("input").State)
	assert.Equal(t, script.DefaultPlaceholder, board.Node("input").Value)
	require.True(t, w.Answer("  five  "))
	v.RunUntilIdle(0)

	assert.Equal(t, subseq.StateActive, board.Node("enrich").State)
	assert.Equal(t, StateVisible, board.Node("badge").State)
	assert.Equal(t, "Demand Created", board.Node("badge").Value)
	assert.Equal(t, "100", board.Node("confidence").Value)
	assert.Equal(t, engine.PhaseDone, w.Sequencer().State().Phase)

	assert.Equal(t, []Applied{
		{State: StateMessage, Value: "What are you building?"},
		{State: StateUser, Value: "App"},
		{State: StateMessage, Value: "Team size?"},
		{State: StateUser, Value: "five"},
		{State: StateProcess, Value: "Enriching"},
		{State: StateFinal, Value: "All set"},
	}, board.Node("messages").History)
}

func TestWidget_ResetClearsSurface(t *testing.T) {
	s := demoScript(t)
	board := DefaultLayout().NewBoard(s.Fields())
	v := clock.NewVirtual()
	w, ok := Mount(board, v, s)
	require.True(t, ok)

	w.Start()
	v.RunUntilIdle(0)
	w.Choose("Site")
	v.RunUntilIdle(0)

	w.Reset()
	assert.Equal(t, StateEmpty, board.Node("field-project-type").State)
	assert.Equal(t, "0", board.Node("confidence").Value)
	assert.Equal(t, StateHidden, board.Node("badge").State)
	assert.Equal(t, StateTyping, board.Node("typing").State, "the restarted run is typing")

	w.Dispose()
	v.RunUntilIdle(0)
	assert.Equal(t, engine.PhaseIdle, w.Sequencer().State().Phase)
}

func TestWidget_SkipsMissingElements(t *testing.T) {
	s := demoScript(t)
	board := NewBoard("widget", "messages")
	v := clock.NewVirtual()
	w, ok := Mount(board, v, s)
	require.True(t, ok)

	w.Start()
	v.RunUntilIdle(0)
	require.True(t, w.Choose("App"))
	v.RunUntilIdle(0)
	require.True(t, w.Answer("x"))
	v.RunUntilIdle(0)

	assert.Equal(t, engine.PhaseDone, w.Sequencer().State().Phase)
	assert.Equal(t, []string{"widget", "messages"}, board.IDs())
}

func TestBoard_Grow(t *testing.T) {
	b := NewBoard()
	_, ok := b.Element("x")
	assert.False(t, ok)

	b.Grow = true
	el, ok := b.Element("x")
	require.True(t, ok)
	el.Apply("spawn", "1")
	assert.Equal(t, "spawn", b.Node("x").State)

	_, ok = b.Element("")
	assert.False(t, ok)
}

func TestLayout_FieldPrefix(t *testing.T) {
	l := DefaultLayout()
	l.FieldPrefix = "canvas-"
	b := l.NewBoard([]string{"goal"})
	assert.NotNil(t, b.Node("canvas-goal"))
}
