package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionCreated  EventType = "session.created"
	EventTypeSessionAdvanced EventType = "session.advanced"
	EventTypeSessionEnded    EventType = "session.ended"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return "session-events:" + sessionID.String()
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishSessionCreated publishes a session.created event
func (b *Broadcaster) PublishSessionCreated(ctx context.Context, sessionID uuid.UUID, story string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionCreated,
		Data: map[string]interface{}{
			"story": story,
		},
	})
}

// PublishSessionAdvanced publishes a session.advanced event
func (b *Broadcaster) PublishSessionAdvanced(ctx context.Context, sessionID uuid.UUID, turn, from, to int, text, responseCue string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionAdvanced,
		Data: map[string]interface{}{
			"turn":         turn,
			"from":         from,
			"to":           to,
			"text":         text,
			"response_cue": responseCue,
		},
	})
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, turn int) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionEnded,
		Data: map[string]interface{}{
			"turn": turn,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", event.Type)
	return nil
}
