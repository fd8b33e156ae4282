package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

// SessionEndedTopic carries SessionEndedEvent payloads
const SessionEndedTopic = "recipebook.session.ended"

// SessionEndedEvent tells subscribers that the user must sign in again
type SessionEndedEvent struct {
	Username string                `json:"username"`
	Reason   core.SessionEndReason `json:"reason"`
	EndedAt  time.Time             `json:"ended_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SessionEndedTopic,
	}
}

// PublishSessionEnded publishes a session-ended event
func (p *WatermillPublisher) PublishSessionEnded(ctx context.Context, username string, reason core.SessionEndReason) error {
	event := SessionEndedEvent{
		Username: username,
		Reason:   reason,
		EndedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// DecodeSessionEnded decodes a message published by WatermillPublisher
func DecodeSessionEnded(msg *message.Message) (SessionEndedEvent, error) {
	var event SessionEndedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return SessionEndedEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
