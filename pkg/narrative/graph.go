package narrative

import "fmt"

// Graph is a directed graph of story nodes with a single cursor.
// Vertices are identified by the index AddVertex assigned them.
type Graph struct {
	vertices []StoryNode
	edges    [][]int
	current  int
}

// NewGraph returns an empty graph with no cursor.
func NewGraph() *Graph {
	return &Graph{current: -1}
}

// AddVertex stores the node and returns its index.
func (g *Graph) AddVertex(n StoryNode) int {
	g.vertices = append(g.vertices, n)
	g.edges = append(g.edges, nil)
	return len(g.vertices) - 1
}

// AddEdge appends to as the next choice of from.
func (g *Graph) AddEdge(from, to int) error {
	if !g.valid(from) || !g.valid(to) {
		return fmt.Errorf("edge %d -> %d: %w", from, to, ErrIndexOutOfRange)
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// Len is the number of vertices.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Vertex returns the node stored at index i.
func (g *Graph) Vertex(i int) (StoryNode, bool) {
	if !g.valid(i) {
		return StoryNode{}, false
	}
	return g.vertices[i], true
}

// SetCurrent moves the cursor.
func (g *Graph) SetCurrent(i int) error {
	if !g.valid(i) {
		return fmt.Errorf("set current %d: %w", i, ErrIndexOutOfRange)
	}
	g.current = i
	return nil
}

// Current returns the node under the cursor; ok is false before SetCurrent.
func (g *Graph) Current() (StoryNode, bool) {
	if g.current < 0 {
		return StoryNode{}, false
	}
	return g.vertices[g.current], true
}

// CurrentIndex is the cursor position, -1 when unset.
func (g *Graph) CurrentIndex() int {
	return g.current
}

// ChoiceIndices returns the successor indices of the current node, or nil.
func (g *Graph) ChoiceIndices() []int {
	if g.current < 0 || len(g.edges[g.current]) == 0 {
		return nil
	}
	out := make([]int, len(g.edges[g.current]))
	copy(out, g.edges[g.current])
	return out
}

// Choices returns the successors of the current node, or nil when the node
// is terminal or there is no cursor.
func (g *Graph) Choices() []StoryNode {
	idx := g.ChoiceIndices()
	if idx == nil {
		return nil
	}
	out := make([]StoryNode, len(idx))
	for i, v := range idx {
		out[i] = g.vertices[v]
	}
	return out
}

func (g *Graph) valid(i int) bool {
	return i >= 0 && i < len(g.vertices)
}
