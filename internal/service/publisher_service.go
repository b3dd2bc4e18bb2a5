package service

import (
	"context"
	"encoding/json"
	"time"

	"notesync-be/internal/cache"
	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPublisherService interface {
	Publish(ctx context.Context, msg dto.NoteChangedMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, msg dto.NoteChangedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	return p.publisher.Publish(p.topicName, m)
}

// noteChanges runs after every committed write: the owner's cached pages are dropped
// so the next read re-derives from the store, then the change is announced.
type noteChanges struct {
	listCache cache.NoteListCache
	publisher IPublisherService
	logger    logger.ILogger
}

func (c *noteChanges) committed(ctx context.Context, userId uuid.UUID, eventType string, noteIds ...uuid.UUID) {
	if err := c.listCache.Invalidate(ctx, userId); err != nil {
		c.logger.Error("NoteService", "Failed to invalidate list cache", map[string]interface{}{
			"user_id": userId,
			"error":   err,
		})
	}

	if c.publisher == nil {
		return
	}
	msg := dto.NoteChangedMessage{
		Type:       eventType,
		UserId:     userId,
		NoteIds:    noteIds,
		OccurredAt: time.Now(),
	}
	// The write already committed; a lost announcement only delays other devices.
	if err := c.publisher.Publish(ctx, msg); err != nil {
		c.logger.Warn("NoteService", "Failed to publish note change", map[string]interface{}{
			"user_id": userId,
			"type":    eventType,
			"error":   err,
		})
	}
}
