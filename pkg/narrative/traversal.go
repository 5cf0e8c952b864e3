package narrative

import (
	"fmt"
	"math/rand/v2"
)

// Outcome is the result of an Advance.
type Outcome int

const (
	NoTransition Outcome = iota
	Transitioned
)

func (o Outcome) String() string {
	switch o {
	case Transitioned:
		return "transitioned"
	default:
		return "no_transition"
	}
}

// Traversal walks a story graph in response to action symbols.
// It is not safe for concurrent use; callers drive it one input at a time.
type Traversal struct {
	graph        *Graph
	actions      *ActionSet
	responseCues []string
	intn         func(n int) int
}

// Option configures a Traversal.
type Option func(*Traversal)

// WithRand sets the source used to pick response cues.
func WithRand(r *rand.Rand) Option {
	return func(t *Traversal) {
		t.intn = r.IntN
	}
}

// NewTraversal validates the story, builds its graph and places the cursor on node 0.
func NewTraversal(story *Story, opts ...Option) (*Traversal, error) {
	if story == nil {
		return nil, fmt.Errorf("story cannot be nil")
	}
	if err := story.Validate(); err != nil {
		return nil, err
	}

	actions, err := NewActionSet(story.Actions)
	if err != nil {
		return nil, err
	}

	g := NewGraph()
	for _, n := range story.Nodes {
		g.AddVertex(n)
	}
	for from, n := range story.Nodes {
		for _, to := range n.Choices {
			if err := g.AddEdge(from, to); err != nil {
				return nil, err
			}
		}
	}
	if err := g.SetCurrent(0); err != nil {
		return nil, err
	}

	t := &Traversal{
		graph:        g,
		actions:      actions,
		responseCues: append([]string(nil), story.ResponseCues...),
		intn:         rand.IntN,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Actions returns the action symbols in slot order.
func (t *Traversal) Actions() []string {
	return t.actions.Symbols()
}

// CurrentIndex is the index of the node under the cursor.
func (t *Traversal) CurrentIndex() int {
	return t.graph.CurrentIndex()
}

// Current returns the node under the cursor.
func (t *Traversal) Current() StoryNode {
	n, _ := t.graph.Current()
	return n
}

// Restore moves the cursor to a previously persisted index.
func (t *Traversal) Restore(index int) error {
	return t.graph.SetCurrent(index)
}

// ChoicesOfCurrent returns the nodes reachable in one step, or nil when the
// current node is terminal.
func (t *Traversal) ChoicesOfCurrent() []StoryNode {
	return t.graph.Choices()
}

// IsTerminal reports whether the current node has no choices.
func (t *Traversal) IsTerminal() bool {
	return t.graph.ChoiceIndices() == nil
}

// Advance moves the cursor according to the action symbol.
//
// A single-choice node continues on any action. With two or more choices,
// slots 0 and 1 take the first choice and every other slot takes the second.
// Terminal nodes never transition.
func (t *Traversal) Advance(symbol string) (Outcome, error) {
	slot, ok := t.actions.Slot(symbol)
	if !ok {
		return NoTransition, fmt.Errorf("%q: %w", symbol, ErrUnknownAction)
	}

	next, ok := chooseNext(t.graph.ChoiceIndices(), slot)
	if !ok {
		return NoTransition, nil
	}
	if err := t.graph.SetCurrent(next); err != nil {
		return NoTransition, err
	}
	return Transitioned, nil
}

func chooseNext(choices []int, slot int) (int, bool) {
	switch {
	case len(choices) == 0:
		return 0, false
	case len(choices) == 1:
		return choices[0], true
	case slot == 0 || slot == 1:
		return choices[0], true
	default:
		return choices[1], true
	}
}

// ResponseCueFor picks one of the current node's choices uniformly at random and
// returns the response cue registered for that node's index. It is independent
// of the choice the player takes. ok is false on a terminal node.
func (t *Traversal) ResponseCueFor() (string, bool) {
	choices := t.graph.ChoiceIndices()
	if len(choices) == 0 {
		return "", false
	}
	pick := choices[t.intn(len(choices))]
	if pick >= len(t.responseCues) {
		return "", false
	}
	return t.responseCues[pick], true
}

// TextOfCurrent is the display text of the current node.
func (t *Traversal) TextOfCurrent() string {
	return t.Current().Text
}

// AudioCueOfCurrent is the audio cue of the current node; ok is false if none is set.
func (t *Traversal) AudioCueOfCurrent() (string, bool) {
	cue := t.Current().AudioCue
	return cue, cue != ""
}

// LightDeltaOfCurrent is the tint contribution of the current node.
func (t *Traversal) LightDeltaOfCurrent() Color {
	return t.Current().LightDelta()
}
