package service

import (
	"context"
	"encoding/json"

	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/logger"
	"notesync-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ChangeDelivery pushes a change notice to the owner's connected clients.
type ChangeDelivery interface {
	Send(userId uuid.UUID, msg dto.NoteChangedMessage)
}

// EventPublisher forwards events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   ChangeDelivery
	events     EventPublisher
	logger     logger.ILogger
}

// NewConsumerService wires the in-process note change topic to the websocket hub
// and, when configured, the external event bus. Either target may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery ChangeDelivery,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		events:     eventPublisher,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Always ack: redelivery of a malformed or already fanned-out notice helps nobody.
	defer msg.Ack()

	var payload dto.NoteChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal note change", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}

	if cs.delivery != nil {
		cs.delivery.Send(payload.UserId, payload)
	}

	if cs.events != nil {
		evt := events.NoteEvent{
			Type:       payload.Type,
			UserId:     payload.UserId,
			NoteIds:    payload.NoteIds,
			OccurredAt: payload.OccurredAt,
		}
		if err := cs.events.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to forward note event", map[string]interface{}{
				"type":  payload.Type,
				"error": err,
			})
		}
	}
}
