package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/session"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Session
	stories   map[string]*narrative.Story
	locks     map[uuid.UUID]string
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*session.Session),
		stories:  make(map[string]*narrative.Story),
		locks:    make(map[uuid.UUID]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddStory registers a story under filename
func (m *MockStorage) AddStory(filename string, s *narrative.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[filename] = s
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.History = append([]session.Step(nil), s.History...)
	cp.UpdatedAt = time.Now()
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.History = append([]session.Step(nil), s.History...)
	return &cp, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) AcquireSessionLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return false, nil
	}
	m.locks[id] = owner
	return true, nil
}

func (m *MockStorage) ReleaseSessionLock(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == owner {
		delete(m.locks, id)
	}
	return nil
}

func (m *MockStorage) ListStories(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := make([]string, 0, len(m.stories))
	for file := range m.stories {
		files = append(files, file)
	}
	sort.Strings(files)

	out := make(map[string]string, len(m.stories))
	for _, file := range files {
		name := m.stories[file].Name
		if _, dup := out[name]; !dup {
			out[name] = file
		}
	}
	return out, nil
}

func (m *MockStorage) GetStory(ctx context.Context, filename string) (*narrative.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !validStoryFilename(filename) {
		return nil, fmt.Errorf("story filename %q: %w", filename, ErrInvalidName)
	}
	s, ok := m.stories[filename]
	if !ok {
		return nil, fmt.Errorf("story %s: %w", filename, ErrNotFound)
	}
	return s, nil
}
