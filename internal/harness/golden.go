package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/playback/internal/trace"
)

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions too. Test failure (via
// goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(sc, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, sc.Name, result.Trace); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a trace against a golden file without running
// anything.
func AssertGolden(t *testing.T, name string, events []trace.Event) error {
	t.Helper()

	data, err := trace.MarshalEvents(events)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
