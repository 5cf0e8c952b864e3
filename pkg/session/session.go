package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/pkg/narrative"
)

// Session is the persisted traversal state of one player in one story.
type Session struct {
	ID        uuid.UUID       `json:"id"`
	Story     string          `json:"story"` // story file name
	Cursor    int             `json:"cursor"`
	Turn      int             `json:"turn"`
	Light     narrative.Color `json:"light"`
	History   []Step          `json:"history,omitempty"`
	Ended     bool            `json:"ended"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Step records one accepted transition.
type Step struct {
	Action      string `json:"action"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	ResponseCue string `json:"response_cue,omitempty"`
}

// New starts a session at the story's first node.
func New(storyFile string, story *narrative.Story) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Story:     storyFile,
		Cursor:    0,
		Light:     story.BaseLight,
		Ended:     len(story.Nodes) > 0 && len(story.Nodes[0].Choices) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Record applies a transition to the session.
func (s *Session) Record(step Step, lightDelta narrative.Color, terminal bool) {
	s.History = append(s.History, step)
	s.Cursor = step.To
	s.Turn++
	s.Light = s.Light.Add(lightDelta)
	s.Ended = terminal
}
