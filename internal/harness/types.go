package harness

import (
	"github.com/roach88/playback/internal/progress"
	"github.com/roach88/playback/internal/trace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect_accepted and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every outbound call in order.
	Trace []trace.Event `json:"trace"`

	// Fingerprint identifies the call sequence of Trace.
	Fingerprint string `json:"fingerprint"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the progress store at the end of the flow.
	Final progress.Snapshot `json:"final"`

	// Phase is the Sequencer phase at the end of the flow.
	Phase string `json:"phase"`

	// ElapsedMS is the virtual time at the end of the flow.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []trace.Event{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
