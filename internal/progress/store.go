// Package progress holds the derived UI state of one engine run: the
// confidence gauge and the named output fields.
//
// The store is mutated only by the sequencer and read by renderers through
// Snapshot. It trusts its callers; the only validation is the confidence
// range clamp.
package progress

import "sort"

// MaxConfidence is the top of the confidence range.
const MaxConfidence = 100

// Store is the confidence metric plus the field map.
// Not safe for concurrent use.
type Store struct {
	confidence int
	declared   []string
	fields     map[string]string
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Confidence int               `json:"confidence"`
	Fields     map[string]string `json:"fields"`
}

// New creates a store with the given fields declared and unpopulated.
func New(fields ...string) *Store {
	s := &Store{
		declared: append([]string(nil), fields...),
		fields:   make(map[string]string, len(fields)),
	}
	s.Reset()
	return s
}

// SetConfidence overwrites the confidence with n clamped to [0, 100] and
// returns the stored value.
func (s *Store) SetConfidence(n int) int {
	switch {
	case n < 0:
		n = 0
	case n > MaxConfidence:
		n = MaxConfidence
	}
	s.confidence = n
	return n
}

// Confidence returns the current confidence.
func (s *Store) Confidence() int {
	return s.confidence
}

// SetField overwrites a field. Undeclared ids are accepted.
func (s *Store) SetField(id, value string) {
	s.fields[id] = value
}

// Field returns a field value; "" means unpopulated.
func (s *Store) Field(id string) string {
	return s.fields[id]
}

// Reset zeroes confidence and empties every field, keeping declared ids.
func (s *Store) Reset() {
	s.confidence = 0
	clear(s.fields)
	for _, id := range s.declared {
		s.fields[id] = ""
	}
}

// Snapshot returns a copy safe to hand to renderers.
func (s *Store) Snapshot() Snapshot {
	fields := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	return Snapshot{Confidence: s.confidence, Fields: fields}
}

// Populated returns the ids of non-empty fields in sorted order.
func (s Snapshot) Populated() []string {
	ids := make([]string, 0, len(s.Fields))
	for id, v := range s.Fields {
		if v != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
