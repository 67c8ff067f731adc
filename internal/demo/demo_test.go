package demo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/demo"
	"github.com/roach88/playback/internal/harness"
	"github.com/roach88/playback/internal/trace"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"enrichment", "tango", "transform"}, demo.Names())
}

func TestList(t *testing.T) {
	infos, err := demo.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "enrichment", infos[0].Name)
	assert.Equal(t, "cue", infos[0].Format)
	assert.Equal(t, "tango", infos[1].Name)
	assert.Equal(t, 10, infos[1].Steps)
	assert.Equal(t, "yaml", infos[1].Format)
	for _, info := range infos {
		assert.NotEmpty(t, info.Description, info.Name)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := demo.Lookup("nope")
	require.ErrorIs(t, err, demo.ErrUnknown)
	assert.Contains(t, err.Error(), "available: enrichment, tango, transform")
}

func TestResolve(t *testing.T) {
	s, err := demo.Resolve("builtin:transform", "")
	require.NoError(t, err)
	assert.Equal(t, "transform", s.Name())

	s, err = demo.Resolve("tango", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "tango", s.Name())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tango.yaml"), []byte(`
name: local
steps:
  - kind: terminal
    text: shadowed
`), 0o644))
	s, err = demo.Resolve("tango.yaml", dir)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name(), "a file wins over a built-in name")

	_, err = demo.Resolve("builtin:missing", "")
	assert.ErrorIs(t, err, demo.ErrUnknown)
	_, err = demo.Resolve("missing.yaml", dir)
	assert.ErrorContains(t, err, "no such file or built-in")
}

func TestBuiltins_RunToCompletion(t *testing.T) {
	for _, name := range demo.Names() {
		t.Run(name, func(t *testing.T) {
			s, err := demo.Lookup(name)
			require.NoError(t, err)

			tr, err := harness.Autoplay(s, nil)
			require.NoError(t, err)
			assert.Equal(t, 100, tr.Final.Confidence)

			last := tr.Events[len(tr.Events)-1]
			assert.Equal(t, trace.CallConfidence, last.Call)

			pct := 0
			for _, e := range tr.Events {
				if e.Call != trace.CallConfidence {
					continue
				}
				p := e.Args["pct"].(int)
				assert.GreaterOrEqual(t, p, pct, "confidence never decreases")
				pct = p
			}
		})
	}
}

func TestTango_Fields(t *testing.T) {
	s, err := demo.Lookup("tango")
	require.NoError(t, err)
	assert.Equal(t, []string{"field-project-type", "field-goal", "field-timeline", "field-team", "field-budget"}, s.Fields())

	tr, err := harness.Autoplay(s, []string{"Product Launch", "Compliance", "Q3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Product Launch", "Compliance", "Q3", "Yes, create demand"}, tr.Answers)
	assert.Equal(t, "Q3", tr.Final.Fields["field-timeline"])
	assert.Equal(t, "$420K – $480K", tr.Final.Fields["field-budget"])
	assert.Len(t, tr.Final.Populated(), 5)
}
