package widget

import "slices"

// Element is one addressable piece of the host UI.
type Element interface {
	Apply(state, value string)
}

// Surface looks up elements by id. A missing element is reported with
// ok == false and is skipped by the adapter.
type Surface interface {
	Element(id string) (Element, bool)
}

// Applied is one state change received by a Node.
type Applied struct {
	State string `json:"state"`
	Value string `json:"value,omitempty"`
}

// Node is an in-memory Element that remembers what it was told.
type Node struct {
	ID      string
	State   string
	Value   string
	History []Applied
}

// Apply implements Element.
func (n *Node) Apply(state, value string) {
	n.State = state
	n.Value = value
	n.History = append(n.History, Applied{State: state, Value: value})
}

// Board is an in-memory Surface. Terminal hosts and tests render from it.
type Board struct {
	// Grow makes Element create missing ids instead of reporting them
	// absent.
	Grow bool

	nodes map[string]*Node
	order []string
}

// NewBoard creates a board with the given element ids.
func NewBoard(ids ...string) *Board {
	b := &Board{nodes: make(map[string]*Node)}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Add creates the element if it does not exist and returns it.
func (b *Board) Add(id string) *Node {
	if n, ok := b.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id}
	b.nodes[id] = n
	b.order = append(b.order, id)
	return n
}

// Element implements Surface.
func (b *Board) Element(id string) (Element, bool) {
	n, ok := b.nodes[id]
	if !ok {
		if !b.Grow || id == "" {
			return nil, false
		}
		n = b.Add(id)
	}
	return n, true
}

// Node returns the element with the given id, or nil.
func (b *Board) Node(id string) *Node {
	return b.nodes[id]
}

// IDs returns element ids in creation order.
func (b *Board) IDs() []string {
	return slices.Clone(b.order)
}
