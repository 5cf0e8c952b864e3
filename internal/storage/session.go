package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/pkg/session"
	"github.com/redis/go-redis/v9"
)

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func lockKey(id uuid.UUID) string {
	return "session-lock:" + id.String()
}

// Session operations (Redis-backed)

func (r *RedisStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns nil, nil when the session does not exist.
func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Session not found", "session_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisStorage) AcquireSessionLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(id), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

// Only deletes the lock if owner still holds it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func (r *RedisStorage) ReleaseSessionLock(ctx context.Context, id uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{lockKey(id)}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}
