package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	kind string
	turn int
	to   int
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) PublishSessionCreated(ctx context.Context, id uuid.UUID, story string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "created"})
	return p.err
}

func (p *fakePublisher) PublishSessionAdvanced(ctx context.Context, id uuid.UUID, turn, from, to int, text, cue string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "advanced", turn: turn, to: to})
	return p.err
}

func (p *fakePublisher) PublishSessionEnded(ctx context.Context, id uuid.UUID, turn int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "ended", turn: turn})
	return p.err
}

func forestStory() *narrative.Story {
	return &narrative.Story{
		Name:    "Forest",
		Actions: []string{"1", "2", "3", "4"},
		Nodes: []narrative.StoryNode{
			{Text: "A fork.", AudioCue: "fork.wav", Choices: []int{1, 2}},
			{Text: "Left.", Tint: narrative.Color{R: 1}, AddAmount: 0.5, AddDirection: true, Choices: []int{3}},
			{Text: "Right."},
			{Text: "Clearing."},
		},
		ResponseCues: []string{"r0", "r1", "r2", "r3"},
		BaseLight:    narrative.Color{R: 0.1, A: 1},
	}
}

func newTestService(t *testing.T) (*SessionService, *storage.MockStorage, *fakePublisher) {
	t.Helper()
	store := storage.NewMockStorage()
	store.AddStory("forest.json", forestStory())
	pub := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSessionService(store, pub, logger, narrative.WithRand(rand.New(rand.NewPCG(3, 4))))
	return svc, store, pub
}

func TestSessionService_CreateAndGet(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Cursor)
	assert.Equal(t, "A fork.", view.Text)
	assert.Equal(t, "fork.wav", view.AudioCue)
	assert.Equal(t, []string{"Left.", "Right."}, view.Choices)
	assert.False(t, view.Terminal)

	got, err := svc.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
	assert.Equal(t, "A fork.", got.Text)

	assert.Equal(t, []recordedEvent{{kind: "created"}}, pub.events)
}

func TestSessionService_CreateUnknownStory(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "nope.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionService_AdvanceToEnd(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)

	res, err := svc.Advance(ctx, view.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, narrative.Transitioned, res.Outcome)
	assert.Equal(t, "transitioned", res.Transition)
	assert.Equal(t, "Left.", res.View.Text)
	assert.Equal(t, "r3", res.ResponseCue)
	assert.InDelta(t, 0.5, res.LightDelta.R, 1e-6)
	assert.InDelta(t, 0.6, res.View.Light.R, 1e-6)
	assert.Equal(t, 1, res.View.Turn)

	res, err = svc.Advance(ctx, view.ID, "4")
	require.NoError(t, err)
	assert.Equal(t, "Clearing.", res.View.Text)
	assert.True(t, res.View.Terminal)
	assert.True(t, res.View.Ended)
	assert.Empty(t, res.ResponseCue)

	res, err = svc.Advance(ctx, view.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, narrative.NoTransition, res.Outcome)
	assert.Equal(t, 3, res.View.Cursor)
	assert.Equal(t, 2, res.View.Turn)

	stored, err := store.LoadSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
	assert.Equal(t, 3, stored.Cursor)

	assert.Equal(t, []recordedEvent{
		{kind: "created"},
		{kind: "advanced", turn: 1, to: 1},
		{kind: "advanced", turn: 2, to: 3},
		{kind: "ended", turn: 2},
	}, pub.events)
}

func TestSessionService_AdvanceErrors(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Advance(ctx, uuid.New(), "1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)

	_, err = svc.Advance(ctx, view.ID, "9")
	assert.ErrorIs(t, err, narrative.ErrUnknownAction)

	locked, err := store.AcquireSessionLock(ctx, view.ID, "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	_, err = svc.Advance(ctx, view.ID, "1")
	assert.ErrorIs(t, err, ErrSessionBusy)
}

func TestSessionService_PublisherFailureIsNotFatal(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("redis down")
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)
	_, err = svc.Advance(ctx, view.ID, "1")
	assert.NoError(t, err)
}

func TestSessionService_Delete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, view.ID))

	_, err = svc.Get(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, view.ID), ErrSessionNotFound)
}

// interleavingStorage runs during once, from inside the GetStory call that
// Advance makes while it holds the session lock.
type interleavingStorage struct {
	*storage.MockStorage
	during func()
}

func (s *interleavingStorage) GetStory(ctx context.Context, filename string) (*narrative.Story, error) {
	if s.during != nil {
		during := s.during
		s.during = nil
		during()
	}
	return s.MockStorage.GetStory(ctx, filename)
}

func TestSessionService_DeleteDuringAdvance(t *testing.T) {
	mock := storage.NewMockStorage()
	mock.AddStory("forest.json", forestStory())
	store := &interleavingStorage{MockStorage: mock}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSessionService(store, nil, logger)
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)

	var deleteErr error
	store.during = func() { deleteErr = svc.Delete(ctx, view.ID) }

	_, err = svc.Advance(ctx, view.ID, "1")
	require.NoError(t, err)
	assert.ErrorIs(t, deleteErr, ErrSessionBusy)

	// Once the advance is done the delete goes through and stays done.
	require.NoError(t, svc.Delete(ctx, view.ID))
	stored, err := store.LoadSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSessionService_DeleteWhileLocked(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "forest.json")
	require.NoError(t, err)

	locked, err := store.AcquireSessionLock(ctx, view.ID, "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	assert.ErrorIs(t, svc.Delete(ctx, view.ID), ErrSessionBusy)
	_, err = svc.Get(ctx, view.ID)
	assert.NoError(t, err)
}
