package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/session"
)

var (
	// ErrNotFound is returned when a story file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName is returned for story file names that leave the stories directory.
	ErrInvalidName = errors.New("invalid story filename")
)

// Storage combines session persistence (Redis) with story loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, s *session.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// AcquireSessionLock returns false if another owner holds the lock.
	AcquireSessionLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	ReleaseSessionLock(ctx context.Context, id uuid.UUID, owner string) error

	// Story operations (filesystem-backed)
	ListStories(ctx context.Context) (map[string]string, error)
	GetStory(ctx context.Context, filename string) (*narrative.Story, error)
}
