package narrative

import "fmt"

// ActionCount is the number of action symbols a story declares.
const ActionCount = 4

// StoryNode is a single narrative state.
type StoryNode struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Text     string `json:"text" yaml:"text"`
	AudioCue string `json:"audio_cue,omitempty" yaml:"audio_cue,omitempty"`

	// Tint is added to (or subtracted from) the scene light when the node is entered.
	Tint         Color   `json:"tint" yaml:"tint"`
	AddAmount    float32 `json:"add_amount" yaml:"add_amount"`
	AddDirection bool    `json:"add_direction" yaml:"add_direction"`

	// Choices are the indices of the nodes reachable in one step, in order.
	Choices []int `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// LightDelta is the tint contribution of entering this node.
func (n StoryNode) LightDelta() Color {
	sign := float32(-1)
	if n.AddDirection {
		sign = 1
	}
	return n.Tint.Scale(n.AddAmount * sign)
}

// Story is the static definition a traversal is built from.
type Story struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Actions are the input symbols, one per slot, in slot order.
	Actions []string    `json:"actions" yaml:"actions"`
	Nodes   []StoryNode `json:"nodes" yaml:"nodes"`

	// ResponseCues is indexed by node index, not by edge.
	ResponseCues []string `json:"response_cues" yaml:"response_cues"`

	BaseLight Color `json:"base_light" yaml:"base_light"`
}

// Validate checks the story for configuration errors that would otherwise
// surface during traversal. It returns a *ValidationError listing all of them.
func (s *Story) Validate() error {
	verr := &ValidationError{}

	if len(s.Nodes) == 0 {
		verr.add("story has no nodes")
	}

	if len(s.Actions) != ActionCount {
		verr.add(fmt.Sprintf("story declares %d actions, expected %d", len(s.Actions), ActionCount))
	}
	seen := make(map[string]bool, len(s.Actions))
	for i, a := range s.Actions {
		if a == "" {
			verr.add(fmt.Sprintf("action %d is empty", i))
			continue
		}
		if seen[a] {
			verr.add(fmt.Sprintf("action %q is declared more than once", a))
		}
		seen[a] = true
	}

	for i, n := range s.Nodes {
		for _, c := range n.Choices {
			if c < 0 || c >= len(s.Nodes) {
				verr.add(fmt.Sprintf("node %d has choice %d outside [0,%d)", i, c, len(s.Nodes)))
			}
		}
	}

	if len(s.ResponseCues) < len(s.Nodes) {
		verr.add(fmt.Sprintf("story has %d response cues for %d nodes", len(s.ResponseCues), len(s.Nodes)))
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
