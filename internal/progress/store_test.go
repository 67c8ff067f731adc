package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_SetConfidenceClamps(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"in range", 45, 45},
		{"zero", 0, 0},
		{"max", 100, 100},
		{"negative", -5, 0},
		{"over", 130, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			assert.Equal(t, tt.want, s.SetConfidence(tt.in))
			assert.Equal(t, tt.want, s.Confidence())
		})
	}
}

func TestStore_SetConfidenceOverwrites(t *testing.T) {
	s := New()
	s.SetConfidence(80)
	s.SetConfidence(20)
	assert.Equal(t, 20, s.Confidence(), "not additive, not monotonic")
}

func TestStore_Fields(t *testing.T) {
	s := New("field-goal", "field-team")
	assert.Equal(t, "", s.Field("field-goal"))

	s.SetField("field-goal", "Compliance")
	s.SetField("field-goal", "Cost Reduction")
	s.SetField("extra", "x")

	assert.Equal(t, "Cost Reduction", s.Field("field-goal"))
	assert.Equal(t, "x", s.Field("extra"))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New("a")
	s.SetField("a", "1")
	snap := s.Snapshot()

	snap.Fields["a"] = "mutated"
	s.SetField("a", "2")

	assert.Equal(t, "mutated", snap.Fields["a"])
	assert.Equal(t, "2", s.Field("a"))
}

func TestStore_Reset(t *testing.T) {
	s := New("a", "b")
	s.SetConfidence(65)
	s.SetField("a", "1")
	s.SetField("undeclared", "z")

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Confidence)
	assert.Equal(t, map[string]string{"a": "", "b": ""}, snap.Fields)
	assert.Empty(t, snap.Populated())
}

func TestSnapshot_PopulatedSorted(t *testing.T) {
	s := New("z", "m", "a")
	s.SetField("z", "1")
	s.SetField("a", "2")
	assert.Equal(t, []string{"a", "z"}, s.Snapshot().Populated())
}
