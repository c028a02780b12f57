package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/proto/events"
)

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// PublishEvent logs the event at debug level and returns nil.
func (p *NoopPublisher) PublishEvent(_ context.Context, topic string, ce events.CloudEvent) error {
	p.logger.Debug("event dropped, no broker configured",
		zap.String("topic", topic),
		zap.String("event_type", ce.Type),
		zap.String("event_id", ce.ID),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error { return nil }

var _ application.EventPublisher = (*NoopPublisher)(nil)
