package script

import (
	"fmt"

	"github.com/roach88/playback/internal/subseq"
)

// Kind identifies a step variant.
type Kind int

const (
	KindSystemMessage Kind = iota + 1
	KindAwaitChoice
	KindAwaitText
	KindAsyncProcess
	KindTerminal
)

var kindNames = map[Kind]string{
	KindSystemMessage: "system-message",
	KindAwaitChoice:   "await-choice",
	KindAwaitText:     "await-text",
	KindAsyncProcess:  "async-process",
	KindTerminal:      "terminal",
}

// String returns the document spelling of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a document spelling back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

// IsAwait reports whether the kind blocks on user input.
func (k Kind) IsAwait() bool {
	return k == KindAwaitChoice || k == KindAwaitText
}

// Unchanged as a Confidence means "same as the previous step".
const Unchanged = -1

// DefaultPlaceholder is shown on text checkpoints that declare none.
const DefaultPlaceholder = "Type your answer..."

// FieldUpdate is one side-channel field write.
type FieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Common holds the attributes every step carries.
type Common struct {
	// ID optionally names the step in logs and traces.
	ID string
	// FieldUpdates are applied, in order, when the step is entered.
	FieldUpdates []FieldUpdate
	// Confidence is the metric value once the step completes (0..100).
	Confidence int
}

// Step is one scripted beat. The set of implementations is closed:
// SystemMessage, AwaitChoice, AwaitText, AsyncProcess and Terminal.
type Step interface {
	Kind() Kind
	Meta() Common
	sealed()
}

// SystemMessage is an utterance from the assistant.
//
// Choices and Placeholder describe the checkpoint the message prompts; an
// await step that follows inherits them when it declares none.
type SystemMessage struct {
	Common
	Text        string
	Choices     []string
	Placeholder string
	// Instant skips the typing precursor.
	Instant bool
}

// AwaitChoice blocks until one of Choices is submitted.
type AwaitChoice struct {
	Common
	Choices     []string
	TargetField string
}

// AwaitText blocks until non-blank text is submitted.
type AwaitText struct {
	Common
	Placeholder string
	TargetField string
}

// AsyncProcess simulates a multi-stage computation.
//
// Without a Process, Items are revealed one by one using the engine's
// process timing. Process replaces that with an arbitrary sub-sequence.
type AsyncProcess struct {
	Common
	Title   string
	Items   []string
	Process subseq.Program
}

// Terminal ends the run.
type Terminal struct {
	Common
	Text    string
	Instant bool
}

func (SystemMessage) Kind() Kind { return KindSystemMessage }
func (AwaitChoice) Kind() Kind   { return KindAwaitChoice }
func (AwaitText) Kind() Kind     { return KindAwaitText }
func (AsyncProcess) Kind() Kind  { return KindAsyncProcess }
func (Terminal) Kind() Kind      { return KindTerminal }

func (s SystemMessage) Meta() Common { return s.Common }
func (s AwaitChoice) Meta() Common   { return s.Common }
func (s AwaitText) Meta() Common     { return s.Common }
func (s AsyncProcess) Meta() Common  { return s.Common }
func (s Terminal) Meta() Common      { return s.Common }

func (SystemMessage) sealed() {}
func (AwaitChoice) sealed()   {}
func (AwaitText) sealed()     {}
func (AsyncProcess) sealed()  {}
func (Terminal) sealed()      {}

// Text returns the displayable text of a step, if it has one.
func Text(s Step) string {
	switch st := s.(type) {
	case SystemMessage:
		return st.Text
	case Terminal:
		return st.Text
	case AsyncProcess:
		return st.Title
	}
	return ""
}

// TargetField returns the field an await step writes, or "".
func TargetField(s Step) string {
	switch st := s.(type) {
	case AwaitChoice:
		return st.TargetField
	case AwaitText:
		return st.TargetField
	}
	return ""
}

// clone deep-copies the slices of a step and replaces its Common.
func clone(s Step, c Common) Step {
	c.FieldUpdates = append([]FieldUpdate(nil), c.FieldUpdates...)
	switch st := s.(type) {
	case SystemMessage:
		st.Common = c
		st.Choices = append([]string(nil), st.Choices...)
		return st
	case AwaitChoice:
		st.Common = c
		st.Choices = append([]string(nil), st.Choices...)
		return st
	case AwaitText:
		st.Common = c
		return st
	case AsyncProcess:
		st.Common = c
		st.Items = append([]string(nil), st.Items...)
		return st
	case Terminal:
		st.Common = c
		return st
	}
	return s
}
