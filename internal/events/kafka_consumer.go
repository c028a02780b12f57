package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/pkg/kafka"
	"github.com/roomdesk/service-booking/internal/proto/events"
)

// RoomDirectory applies room records coming from the facilities feed.
type RoomDirectory interface {
	UpsertRoom(ctx context.Context, id uuid.UUID, name string, capacity int, description string, active bool) error
	DeactivateRoom(ctx context.Context, id uuid.UUID) error
}

// RoomEventConsumer keeps the room registry in sync with the facilities
// directory by consuming room events.
type RoomEventConsumer struct {
	consumer  *kafka.Consumer
	directory RoomDirectory
	logger    *zap.Logger
}

// NewRoomEventConsumer creates a new RoomEventConsumer.
func NewRoomEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	directory RoomDirectory,
	logger *zap.Logger,
) *RoomEventConsumer {
	if topic == "" {
		topic = events.TopicRoomEvents
	}
	return &RoomEventConsumer{
		consumer:  kafka.NewConsumer(brokers, groupID, topic, logger),
		directory: directory,
		logger:    logger,
	}
}

// Start begins consuming room events. This blocks until the context is cancelled.
func (c *RoomEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *RoomEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *RoomEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := events.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from room topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.RoomUpserted:
		return c.handleUpserted(ctx, cloudEvent)
	case events.RoomDeactivated:
		return c.handleDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled room event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *RoomEventConsumer) handleUpserted(ctx context.Context, cloudEvent events.CloudEvent) error {
	var evt events.RoomUpsertedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RoomUpsertedEvent data", zap.Error(err))
		return nil
	}

	err := c.directory.UpsertRoom(ctx, evt.RoomID, evt.Name, evt.Capacity, evt.Description, evt.Active)
	if err != nil {
		// Invalid payloads and name clashes will never succeed on redelivery.
		if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
			c.logger.Warn("rejected room upsert",
				zap.String("room_id", evt.RoomID.String()),
				zap.String("code", string(e.Code)),
			)
			return nil
		}
		return err
	}

	c.logger.Info("room upserted from directory", zap.String("room_id", evt.RoomID.String()))
	return nil
}

func (c *RoomEventConsumer) handleDeactivated(ctx context.Context, cloudEvent events.CloudEvent) error {
	var evt events.RoomDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RoomDeactivatedEvent data", zap.Error(err))
		return nil
	}

	if err := c.directory.DeactivateRoom(ctx, evt.RoomID); err != nil {
		if apperr.IsCode(err, apperr.CodeRoomNotFound) {
			c.logger.Warn("deactivation for unknown room", zap.String("room_id", evt.RoomID.String()))
			return nil
		}
		return err
	}

	c.logger.Info("room deactivated from directory", zap.String("room_id", evt.RoomID.String()))
	return nil
}
