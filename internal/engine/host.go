package engine

import (
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
)

// Host receives the Sequencer's outbound calls.
//
// Calls are notifications. The Sequencer does not inspect any result and
// keeps going after each one. A Host may call back into the Sequencer from
// a notification; the Sequencer stops the interrupted sequence if that call
// reset or disposed the run.
type Host interface {
	// OnPresent shows a system message or the title of an async step.
	OnPresent(step script.Step)
	// OnAwaitChoice offers the checkpoint's labels.
	OnAwaitChoice(choices []string)
	// OnAwaitText opens free-text entry with the given placeholder.
	OnAwaitText(placeholder string)
	// OnFieldUpdated reports one output field write.
	OnFieldUpdated(id, value string)
	// OnConfidenceChanged reports the new metric value (0..100).
	OnConfidenceChanged(pct int)
	// OnTerminal shows the final state.
	OnTerminal(text string)
	// OnVisual applies one sub-sequence element change.
	OnVisual(c subseq.Change)
	// OnReset clears rendered history.
	OnReset()
}

// TypingHost is implemented by hosts that render a typing indicator before
// system messages and terminals.
type TypingHost interface {
	OnTyping(active bool)
}

// NopHost implements Host with empty methods. Embed it to handle only the
// calls you care about.
type NopHost struct{}

func (NopHost) OnPresent(script.Step)      {}
func (NopHost) OnAwaitChoice([]string)     {}
func (NopHost) OnAwaitText(string)         {}
func (NopHost) OnFieldUpdated(_, _ string) {}
func (NopHost) OnConfidenceChanged(int)    {}
func (NopHost) OnTerminal(string)          {}
func (NopHost) OnVisual(subseq.Change)     {}
func (NopHost) OnReset()                   {}
