package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(sc)
	require.NoError(t, err)
	return result
}

func TestRun_QA(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/qa.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Trace, 10)
	assert.Equal(t, "done", result.Phase)
	assert.Equal(t, int64(2000), result.ElapsedMS)
	assert.Equal(t, 100, result.Final.Confidence)
	assert.Len(t, result.Fingerprint, 64)
}

func TestRun_Misuse(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/qa_misuse.yaml")
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Reset(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/qa_reset.yaml")
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(200), result.ElapsedMS)
}

func TestRun_Builtin(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/tango.yaml")
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ReportsFailures(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: failing
description: Every check here is wrong.
script: testdata/scripts/qa.yaml
flow:
  - action: start
    expect_accepted: false
  - action: settle
  - action: choose
    value: B
assertions:
  - type: final_fields
    fields: { f1: A }
  - type: final_phase
    phase: done
`))
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected accepted=false, got true")
	assert.Contains(t, result.Errors[1], `field "f1" = "B"`)
	assert.Contains(t, result.Errors[2], "phase presenting")
}

func TestRun_MissingScript(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: missing
description: d
script: nowhere.yaml
flow: [{action: start}]
assertions: [{type: final_phase, phase: done}]
`))
	require.NoError(t, err)

	_, err = Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load script")
}

func TestRun_Deterministic(t *testing.T) {
	a := loadAndRun(t, "testdata/scenarios/tango.yaml")
	b := loadAndRun(t, "testdata/scenarios/tango.yaml")
	assert.Equal(t, a.Trace, b.Trace)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestRunWithGolden_QA(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/qa.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, sc)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}
