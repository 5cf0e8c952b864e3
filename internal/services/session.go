package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/session"
)

const sessionLockTTL = 5 * time.Second

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is being advanced by another request")
)

// EventPublisher receives session lifecycle events.
type EventPublisher interface {
	PublishSessionCreated(ctx context.Context, sessionID uuid.UUID, story string) error
	PublishSessionAdvanced(ctx context.Context, sessionID uuid.UUID, turn, from, to int, text, responseCue string) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, turn int) error
}

// SessionView is a session together with the presentation data of its current node.
type SessionView struct {
	*session.Session
	Text     string   `json:"text"`
	AudioCue string   `json:"audio_cue,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Actions  []string `json:"actions"`
	Terminal bool     `json:"terminal"`
}

// AdvanceResult is the outcome of one Advance call.
type AdvanceResult struct {
	Outcome     narrative.Outcome `json:"-"`
	Transition  string            `json:"outcome"`
	ResponseCue string            `json:"response_cue,omitempty"`
	LightDelta  narrative.Color   `json:"light_delta"`
	View        *SessionView      `json:"session"`
}

// SessionService runs traversal steps against persisted sessions.
type SessionService struct {
	storage   storage.Storage
	publisher EventPublisher
	logger    *slog.Logger
	opts      []narrative.Option
}

// NewSessionService creates a session service. publisher may be nil.
func NewSessionService(store storage.Storage, publisher EventPublisher, logger *slog.Logger, opts ...narrative.Option) *SessionService {
	return &SessionService{
		storage:   store,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Create starts a new session at the first node of storyFile.
func (s *SessionService) Create(ctx context.Context, storyFile string) (*SessionView, error) {
	story, err := s.storage.GetStory(ctx, storyFile)
	if err != nil {
		return nil, err
	}
	t, err := narrative.NewTraversal(story, s.opts...)
	if err != nil {
		return nil, err
	}

	sess := session.New(storyFile, story)
	if err := s.storage.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Session created", "session_id", sess.ID, "story", storyFile)

	if s.publisher != nil {
		if err := s.publisher.PublishSessionCreated(ctx, sess.ID, storyFile); err != nil {
			s.logger.Warn("Failed to publish session created event", "session_id", sess.ID, "error", err)
		}
	}
	return newView(sess, t), nil
}

// Get returns the session and its current node.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newView(sess, t), nil
}

// Delete removes the session. If an Advance holds the session it returns
// ErrSessionBusy.
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.storage.LoadSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	return s.storage.DeleteSession(ctx, id)
}

// Advance applies one action to the session. Only one Advance or Delete per
// session runs at a time; a concurrent call gets ErrSessionBusy.
func (s *SessionService) Advance(ctx context.Context, id uuid.UUID, action string) (*AdvanceResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := t.CurrentIndex()
	out, err := t.Advance(action)
	if err != nil {
		return nil, err
	}

	result := &AdvanceResult{Outcome: out, Transition: out.String()}
	if out == narrative.NoTransition {
		s.logger.Debug("No transition", "session_id", id, "node", from, "action", action)
		result.View = newView(sess, t)
		return result, nil
	}

	// The listener's response is drawn from the new node's choices.
	result.ResponseCue, _ = t.ResponseCueFor()
	result.LightDelta = t.LightDeltaOfCurrent()

	sess.Record(session.Step{
		Action:      action,
		From:        from,
		To:          t.CurrentIndex(),
		ResponseCue: result.ResponseCue,
	}, result.LightDelta, t.IsTerminal())

	if err := s.storage.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Session advanced", "session_id", id, "from", from, "to", sess.Cursor, "turn", sess.Turn)

	s.publish(ctx, sess, from, t.TextOfCurrent(), result.ResponseCue)

	result.View = newView(sess, t)
	return result, nil
}

func (s *SessionService) publish(ctx context.Context, sess *session.Session, from int, text, responseCue string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionAdvanced(ctx, sess.ID, sess.Turn, from, sess.Cursor, text, responseCue); err != nil {
		s.logger.Warn("Failed to publish session advanced event", "session_id", sess.ID, "error", err)
	}
	if sess.Ended {
		if err := s.publisher.PublishSessionEnded(ctx, sess.ID, sess.Turn); err != nil {
			s.logger.Warn("Failed to publish session ended event", "session_id", sess.ID, "error", err)
		}
	}
}

// lock takes the session lock and returns its release func.
func (s *SessionService) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	owner := uuid.NewString()
	locked, err := s.storage.AcquireSessionLock(ctx, id, owner, sessionLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrSessionBusy
	}
	return func() {
		if err := s.storage.ReleaseSessionLock(context.WithoutCancel(ctx), id, owner); err != nil {
			s.logger.Error("Failed to release session lock", "session_id", id, "error", err)
		}
	}, nil
}

func (s *SessionService) load(ctx context.Context, id uuid.UUID) (*session.Session, *narrative.Traversal, error) {
	sess, err := s.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, ErrSessionNotFound
	}

	story, err := s.storage.GetStory(ctx, sess.Story)
	if err != nil {
		return nil, nil, err
	}
	t, err := narrative.NewTraversal(story, s.opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := t.Restore(sess.Cursor); err != nil {
		return nil, nil, fmt.Errorf("session %s no longer fits story %s: %w", id, sess.Story, err)
	}
	return sess, t, nil
}

func newView(sess *session.Session, t *narrative.Traversal) *SessionView {
	v := &SessionView{
		Session:  sess,
		Text:     t.TextOfCurrent(),
		Actions:  t.Actions(),
		Terminal: t.IsTerminal(),
	}
	v.AudioCue, _ = t.AudioCueOfCurrent()
	for _, c := range t.ChoicesOfCurrent() {
		v.Choices = append(v.Choices, c.Text)
	}
	return v
}
