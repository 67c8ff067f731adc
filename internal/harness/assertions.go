package harness

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/playback/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}
	return buf.String()
}

// assertTraceContains checks if the trace contains a call matching the
// assertion's call name and args (subset match).
func assertTraceContains(events []trace.Event, a Assertion) error {
	for _, e := range events {
		if e.Call == a.Call && matchArgs(e.Args, a.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s with args %s", a.Call, formatArgs(a.Args)),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// assertTraceOrder checks that the calls appear in the given order.
// Calls don't need to be consecutive, and a name may repeat.
func assertTraceOrder(events []trace.Event, a Assertion) error {
	next := 0
	for _, e := range events {
		if next < len(a.Calls) && e.Call == a.Calls[next] {
			next++
		}
	}
	if next == len(a.Calls) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("calls in order: %v", a.Calls),
		Actual:   fmt.Sprintf("matched %v, then no %s", a.Calls[:next], a.Calls[next]),
		Trace:    events,
	}
}

// assertTraceCount checks if the call appears exactly the specified number
// of times. Args, when given, narrow the calls counted.
func assertTraceCount(events []trace.Event, a Assertion) error {
	count := 0
	for _, e := range events {
		if e.Call == a.Call && matchArgs(e.Args, a.Args) {
			count++
		}
	}
	if count != a.Count {
		what := a.Call
		if len(a.Args) > 0 {
			what += " " + formatArgs(a.Args)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    events,
		}
	}
	return nil
}

// assertFinalFields checks output field values. Keys are checked in sorted
// order so the first failure is stable.
func assertFinalFields(r *Result, a Assertion) error {
	for _, id := range slices.Sorted(maps.Keys(a.Fields)) {
		want := a.Fields[id]
		got, ok := r.Final.Fields[id]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalFields,
				Expected: fmt.Sprintf("field %q = %q", id, want),
				Actual:   fmt.Sprintf("field %q not declared; populated: %v", id, r.Final.Populated()),
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalFields,
				Expected: fmt.Sprintf("field %q = %q", id, want),
				Actual:   fmt.Sprintf("field %q = %q", id, got),
			}
		}
	}
	return nil
}

func assertFinalConfidence(r *Result, a Assertion) error {
	if r.Final.Confidence != *a.Confidence {
		return &AssertionError{
			Type:     AssertFinalConfidence,
			Expected: fmt.Sprintf("confidence %d", *a.Confidence),
			Actual:   fmt.Sprintf("confidence %d", r.Final.Confidence),
		}
	}
	return nil
}

func assertFinalPhase(r *Result, a Assertion) error {
	if r.Phase != a.Phase {
		return &AssertionError{
			Type:     AssertFinalPhase,
			Expected: fmt.Sprintf("phase %s", a.Phase),
			Actual:   fmt.Sprintf("phase %s", r.Phase),
		}
	}
	return nil
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares values by their canonical JSON, so a YAML []any
// matches a recorded []string with the same elements.
func valuesEqual(actual, expected any) bool {
	a, err := trace.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := trace.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := trace.MarshalCanonical(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalFields:
			err = assertFinalFields(result, a)
		case AssertFinalConfidence:
			if a.Confidence == nil {
				err = fmt.Errorf("assertion[%d]: final_confidence requires confidence", i)
			} else {
				err = assertFinalConfidence(result, a)
			}
		case AssertFinalPhase:
			err = assertFinalPhase(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
