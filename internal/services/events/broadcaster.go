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
	EventTypeRequestQueued     EventType = "request.queued"
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeJourneyUpdated    EventType = "journey.updated"
	EventTypeImageReady        EventType = "image.ready"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	JourneyID string         `json:"journey_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying one journey's events.
func Channel(journeyID uuid.UUID) string {
	return fmt.Sprintf("journey-events:%s", journeyID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
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

func (b *Broadcaster) PublishRequestQueued(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string) error {
	return b.publish(ctx, journeyID, Event{
		Type:      EventTypeRequestQueued,
		RequestID: requestID,
		Data: map[string]any{
			"status": "queued",
			"type":   requestType,
		},
	})
}

func (b *Broadcaster) PublishRequestProcessing(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string, action string) error {
	return b.publish(ctx, journeyID, Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		Data: map[string]any{
			"status": "processing",
			"type":   requestType,
			"action": action,
		},
	})
}

func (b *Broadcaster) PublishRequestCompleted(ctx context.Context, journeyID uuid.UUID, requestID string, result map[string]any) error {
	return b.publish(ctx, journeyID, Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishRequestFailed carries the message shown to the player in the error
// banner.
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, journeyID uuid.UUID, requestID string, errorMsg string) error {
	return b.publish(ctx, journeyID, Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

func (b *Broadcaster) PublishJourneyUpdated(ctx context.Context, journeyID uuid.UUID, moduleIndex int, module string, gameOver bool) error {
	return b.publish(ctx, journeyID, Event{
		Type: EventTypeJourneyUpdated,
		Data: map[string]any{
			"module_index": moduleIndex,
			"module":       module,
			"is_game_over": gameOver,
		},
	})
}

// PublishImageReady announces a new scene image. The image itself is read
// from the journey, not sent over pub/sub.
func (b *Broadcaster) PublishImageReady(ctx context.Context, journeyID uuid.UUID, requestID string) error {
	return b.publish(ctx, journeyID, Event{
		Type:      EventTypeImageReady,
		RequestID: requestID,
	})
}

func (b *Broadcaster) publish(ctx context.Context, journeyID uuid.UUID, event Event) error {
	channel := Channel(journeyID)
	event.JourneyID = journeyID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
