// Package script defines Step Scripts: the immutable, ordered programs that
// drive one demo run.
//
// A Script is built once with New, which normalises and validates it. After
// construction it only supports indexed reads. Scripts can also be authored
// as YAML or CUE documents and loaded with Parse or Load; both formats go
// through the same document compiler.
//
// Construction rules:
//   - at least one step, and the last one is Terminal (no Terminal before it)
//   - system messages and terminals have text
//   - every await-choice has at least one non-blank choice, possibly
//     inherited from the system message right before it
//   - confidence stays within 0..100 and never decreases; a system message
//     that prompts the next await step takes the confidence before it
//   - field updates name a field and a non-blank value; terminals have none
package script

import (
	"fmt"
	"strings"

	"github.com/roach88/playback/internal/progress"
)

// Script is a validated, read-only step sequence.
type Script struct {
	name        string
	description string
	steps       []Step
	fields      []string
}

// New validates steps and returns an immutable Script.
//
// Unchanged confidences are resolved from the previous step (0 for the
// first). A system message followed by an await step is never completed on
// its own, so its confidence is resolved the same way. Await steps with no choices or placeholder inherit them from an
// immediately preceding system message. Steps are deep-copied, so later
// changes to the arguments do not affect the Script.
func New(name string, steps ...Step) (*Script, error) {
	if len(steps) == 0 {
		return nil, &Error{Script: name, Index: -1, Message: ErrEmpty.Error(), Err: ErrEmpty}
	}

	out := make([]Step, len(steps))
	prevConfidence := 0
	for i, raw := range steps {
		st, err := deref(raw)
		if err != nil {
			return nil, stepError(name, i, "kind", err.Error())
		}
		c := st.Meta()
		if c.Confidence == Unchanged {
			c.Confidence = prevConfidence
		}
		if c.Confidence < 0 || c.Confidence > progress.MaxConfidence {
			return nil, stepError(name, i, "confidence", fmt.Sprintf("%d is outside 0..%d", c.Confidence, progress.MaxConfidence))
		}
		switch {
		case prompts(st, steps, i):
			c.Confidence = prevConfidence
		case c.Confidence < prevConfidence:
			return nil, stepError(name, i, "confidence", fmt.Sprintf("decreases from %d to %d", prevConfidence, c.Confidence))
		}
		prevConfidence = c.Confidence

		st = clone(st, c)
		if i > 0 {
			st = inherit(out[i-1], st)
		}
		if err := validateStep(name, i, st, i == len(steps)-1); err != nil {
			return nil, err
		}
		out[i] = st
	}

	if out[len(out)-1].Kind() != KindTerminal {
		return nil, &Error{
			Script:  name,
			Index:   len(out) - 1,
			Message: fmt.Sprintf("%s (got %s)", ErrNoTerminal.Error(), out[len(out)-1].Kind()),
			Err:     ErrNoTerminal,
		}
	}

	return &Script{name: name, steps: out, fields: declaredFields(out)}, nil
}

// deref accepts pointer variants and rejects nil.
func deref(s Step) (Step, error) {
	switch st := s.(type) {
	case nil:
		return nil, fmt.Errorf("nil step")
	case *SystemMessage:
		if st == nil {
			return nil, fmt.Errorf("nil step")
		}
		return *st, nil
	case *AwaitChoice:
		if st == nil {
			return nil, fmt.Errorf("nil step")
		}
		return *st, nil
	case *AwaitText:
		if st == nil {
			return nil, fmt.Errorf("nil step")
		}
		return *st, nil
	case *AsyncProcess:
		if st == nil {
			return nil, fmt.Errorf("nil step")
		}
		return *st, nil
	case *Terminal:
		if st == nil {
			return nil, fmt.Errorf("nil step")
		}
		return *st, nil
	}
	return s, nil
}

// prompts reports whether st is a system message answered by the await
// step after it. The sequencer enters that await directly.
func prompts(st Step, steps []Step, i int) bool {
	if st.Kind() != KindSystemMessage || i+1 >= len(steps) {
		return false
	}
	next, err := deref(steps[i+1])
	return err == nil && next.Kind().IsAwait()
}

// inherit copies prompt details from a system message onto the await step
// that answers it.
func inherit(prev, st Step) Step {
	msg, ok := prev.(SystemMessage)
	if !ok {
		return st
	}
	switch aw := st.(type) {
	case AwaitChoice:
		if len(aw.Choices) == 0 {
			aw.Choices = append([]string(nil), msg.Choices...)
		}
		return aw
	case AwaitText:
		if aw.Placeholder == "" {
			aw.Placeholder = msg.Placeholder
		}
		return aw
	}
	return st
}

func validateStep(name string, i int, st Step, last bool) error {
	switch s := st.(type) {
	case SystemMessage:
		if strings.TrimSpace(s.Text) == "" {
			return stepError(name, i, "text", "system message text is required")
		}
	case AwaitChoice:
		if len(s.Choices) == 0 {
			return stepError(name, i, "choices", "await-choice needs at least one choice")
		}
		for j, c := range s.Choices {
			if strings.TrimSpace(c) == "" {
				return stepError(name, i, "choices", fmt.Sprintf("choice %d is blank", j))
			}
		}
	case AwaitText:
	case AsyncProcess:
	case Terminal:
		if !last {
			return stepError(name, i, "kind", "terminal step must be last")
		}
		if strings.TrimSpace(s.Text) == "" {
			return stepError(name, i, "text", "terminal text is required")
		}
		if len(s.FieldUpdates) > 0 {
			return stepError(name, i, "field_updates", "terminal step cannot update fields")
		}
	}
	for j, fu := range st.Meta().FieldUpdates {
		if fu.Field == "" {
			return stepError(name, i, "field_updates", fmt.Sprintf("update %d has no field id", j))
		}
		if strings.TrimSpace(fu.Value) == "" {
			return stepError(name, i, "field_updates", fmt.Sprintf("update %d (%s) has no value", j, fu.Field))
		}
	}
	return nil
}

// declaredFields lists every field id a script can populate, in order of
// first declaration.
func declaredFields(steps []Step) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, st := range steps {
		for _, fu := range st.Meta().FieldUpdates {
			add(fu.Field)
		}
		add(TargetField(st))
	}
	return ids
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// Description returns the optional description from the source document.
func (s *Script) Description() string { return s.description }

// Len returns the number of steps.
func (s *Script) Len() int { return len(s.steps) }

// At returns a copy of step i. It panics when i is out of range, like a
// slice index.
func (s *Script) At(i int) Step {
	st := s.steps[i]
	return clone(st, st.Meta())
}

// Steps returns copies of every step.
func (s *Script) Steps() []Step {
	out := make([]Step, len(s.steps))
	for i := range s.steps {
		out[i] = s.At(i)
	}
	return out
}

// Fields returns the declared field ids in first-declared order.
func (s *Script) Fields() []string {
	return append([]string(nil), s.fields...)
}
