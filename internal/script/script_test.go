package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ResolvesUnchangedConfidence(t *testing.T) {
	s, err := New("t",
		SystemMessage{Common: Common{Confidence: 10}, Text: "hi"},
		SystemMessage{Common: Common{Confidence: Unchanged}, Text: "still"},
		Terminal{Common: Common{Confidence: 100}, Text: "bye"},
	)
	require.NoError(t, err)
	assert.Equal(t, 10, s.At(1).Meta().Confidence)
	assert.Equal(t, 3, s.Len())
}

func TestNew_PromptTakesConfidenceBeforeIt(t *testing.T) {
	s, err := New("p",
		SystemMessage{Text: "Pick", Choices: []string{"A"}},
		AwaitChoice{Common: Common{Confidence: 30}},
		SystemMessage{Text: "Name?"},
		AwaitText{Common: Common{Confidence: 60}},
		SystemMessage{Common: Common{Confidence: 90}, Text: "Thinking"},
		AwaitText{Common: Common{Confidence: 80}},
		Terminal{Common: Common{Confidence: 100}, Text: "done"},
	)
	require.NoError(t, err)

	var got []int
	for _, st := range s.Steps() {
		got = append(got, st.Meta().Confidence)
	}
	assert.Equal(t, []int{0, 30, 30, 60, 60, 80, 100}, got)
}

func TestAt_ReturnsCopies(t *testing.T) {
	s, err := New("t",
		SystemMessage{Common: Common{FieldUpdates: []FieldUpdate{{Field: "f", Value: "v"}}}, Text: "Pick", Choices: []string{"A", "B"}},
		AwaitChoice{},
		AsyncProcess{Items: []string{"one"}},
		Terminal{Text: "done"},
	)
	require.NoError(t, err)

	msg := s.At(0).(SystemMessage)
	msg.Choices[0] = "X"
	msg.FieldUpdates[0].Value = "X"
	s.At(1).(AwaitChoice).Choices[0] = "X"
	s.Steps()[2].(AsyncProcess).Items[0] = "X"

	msg = s.At(0).(SystemMessage)
	assert.Equal(t, []string{"A", "B"}, msg.Choices)
	assert.Equal(t, "v", msg.FieldUpdates[0].Value)
	assert.Equal(t, []string{"A", "B"}, s.At(1).(AwaitChoice).Choices)
	assert.Equal(t, []string{"one"}, s.At(2).(AsyncProcess).Items)
}

func TestNew_FirstUnchangedIsZero(t *testing.T) {
	s, err := New("t", Terminal{Common: Common{Confidence: Unchanged}, Text: "bye"})
	require.NoError(t, err)
	assert.Equal(t, 0, s.At(0).Meta().Confidence)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		steps    []Step
		sentinel error
		index    int
		field    string
	}{
		{name: "empty", sentinel: ErrEmpty, index: -1},
		{
			name:     "no terminal",
			steps:    []Step{SystemMessage{Text: "hi"}},
			sentinel: ErrNoTerminal,
			index:    0,
		},
		{
			name:     "terminal before end",
			steps:    []Step{Terminal{Text: "a"}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "kind",
		},
		{
			name:     "confidence decreases",
			steps:    []Step{SystemMessage{Common: Common{Confidence: 50}, Text: "a"}, Terminal{Common: Common{Confidence: 40}, Text: "b"}},
			sentinel: ErrInvalid,
			index:    1,
			field:    "confidence",
		},
		{
			name:     "confidence out of range",
			steps:    []Step{Terminal{Common: Common{Confidence: 101}, Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "confidence",
		},
		{
			name:     "await choice without choices",
			steps:    []Step{AwaitChoice{}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "choices",
		},
		{
			name:     "blank choice",
			steps:    []Step{AwaitChoice{Choices: []string{"A", "  "}}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "choices",
		},
		{
			name:     "message without text",
			steps:    []Step{SystemMessage{}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "text",
		},
		{
			name:     "nil step",
			steps:    []Step{nil, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "kind",
		},
		{
			name:     "field update without id",
			steps:    []Step{SystemMessage{Common: Common{FieldUpdates: []FieldUpdate{{Value: "x"}}}, Text: "a"}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "field_updates",
		},
		{
			name:     "field update without value",
			steps:    []Step{SystemMessage{Common: Common{FieldUpdates: []FieldUpdate{{Field: "e", Value: " "}}}, Text: "a"}, Terminal{Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "field_updates",
		},
		{
			name:     "terminal with field updates",
			steps:    []Step{Terminal{Common: Common{FieldUpdates: []FieldUpdate{{Field: "late", Value: "x"}}}, Text: "b"}},
			sentinel: ErrInvalid,
			index:    0,
			field:    "field_updates",
		},
		{
			name: "prompt before a later step decreases",
			steps: []Step{
				AwaitChoice{Common: Common{Confidence: 30}, Choices: []string{"A"}},
				SystemMessage{Text: "done?"},
				Terminal{Common: Common{Confidence: 20}, Text: "b"},
			},
			sentinel: ErrInvalid,
			index:    1,
			field:    "confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", tt.steps...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.index, se.Index)
			assert.Equal(t, tt.field, se.Field)
			assert.Equal(t, "bad", se.Script)
		})
	}
}

func TestNew_InheritsChoicesAndPlaceholder(t *testing.T) {
	s, err := New("t",
		SystemMessage{Text: "Pick", Choices: []string{"A", "B"}},
		AwaitChoice{TargetField: "f1"},
		SystemMessage{Text: "Tell me", Placeholder: "e.g. 5"},
		AwaitText{TargetField: "f2"},
		Terminal{Text: "done"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, s.At(1).(AwaitChoice).Choices)
	assert.Equal(t, "e.g. 5", s.At(3).(AwaitText).Placeholder)
}

func TestNew_OwnChoicesWin(t *testing.T) {
	s, err := New("t",
		SystemMessage{Text: "Pick", Choices: []string{"A", "B"}},
		AwaitChoice{Choices: []string{"C"}},
		Terminal{Text: "done"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, s.At(1).(AwaitChoice).Choices)
}

func TestNew_DeepCopies(t *testing.T) {
	choices := []string{"A", "B"}
	updates := []FieldUpdate{{Field: "f", Value: "v"}}
	s, err := New("t",
		AwaitChoice{Common: Common{FieldUpdates: updates}, Choices: choices},
		Terminal{Text: "done"},
	)
	require.NoError(t, err)

	choices[0] = "mutated"
	updates[0].Value = "mutated"
	aw := s.At(0).(AwaitChoice)
	assert.Equal(t, "A", aw.Choices[0])
	assert.Equal(t, "v", aw.FieldUpdates[0].Value)
}

func TestNew_AcceptsPointers(t *testing.T) {
	s, err := New("t", &SystemMessage{Text: "hi"}, &Terminal{Text: "bye"})
	require.NoError(t, err)
	_, ok := s.At(0).(SystemMessage)
	assert.True(t, ok)
}

func TestNew_EmptyAsyncProcessIsAllowed(t *testing.T) {
	_, err := New("t", AsyncProcess{Title: "nothing"}, Terminal{Text: "done"})
	require.NoError(t, err)
}

func TestFields_DeclarationOrder(t *testing.T) {
	s, err := New("t",
		SystemMessage{Common: Common{FieldUpdates: []FieldUpdate{{Field: "b", Value: "1"}, {Field: "a", Value: "2"}}}, Text: "x"},
		AwaitText{TargetField: "c"},
		AwaitChoice{Choices: []string{"y"}, TargetField: "a"},
		Terminal{Text: "done"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, s.Fields())
}

func TestKind_RoundTrip(t *testing.T) {
	for k := KindSystemMessage; k <= KindTerminal; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("bogus")
	assert.Error(t, err)
	assert.True(t, KindAwaitText.IsAwait())
	assert.False(t, KindAsyncProcess.IsAwait())
}

func TestError_Format(t *testing.T) {
	e := &Error{Script: "demo", Index: 2, Field: "text", Message: "required"}
	assert.Equal(t, `script "demo": step 2: text: required`, e.Error())
	e = &Error{Index: -1, Message: "script has no steps"}
	assert.Equal(t, "script: script has no steps", e.Error())
}
