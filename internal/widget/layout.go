package widget

// Layout names the elements the adapter drives.
type Layout struct {
	// Root must exist for Mount to wire anything.
	Root string
	// Messages receives the conversation: assistant messages, user echoes,
	// process titles and the terminal text.
	Messages   string
	Typing     string
	Choices    string
	Input      string
	Confidence string
	// Badge shows BadgeText once the terminal step is reached.
	Badge     string
	BadgeText string
	// FieldPrefix is prepended to a field id to find its element.
	FieldPrefix string
}

// DefaultLayout returns the element ids used by the built-in demos.
func DefaultLayout() Layout {
	return Layout{
		Root:       "widget",
		Messages:   "messages",
		Typing:     "typing",
		Choices:    "choices",
		Input:      "input",
		Confidence: "confidence",
		Badge:      "badge",
		BadgeText:  "Demand Created",
	}
}

// FieldElement returns the element id a script field writes to.
func (l Layout) FieldElement(field string) string {
	return l.FieldPrefix + field
}

// NewBoard builds a Board with every element the layout names plus one
// element per field.
func (l Layout) NewBoard(fields []string) *Board {
	b := NewBoard()
	for _, id := range []string{l.Root, l.Messages, l.Typing, l.Choices, l.Input, l.Confidence, l.Badge} {
		if id != "" {
			b.Add(id)
		}
	}
	for _, f := range fields {
		b.Add(l.FieldElement(f))
	}
	return b
}
