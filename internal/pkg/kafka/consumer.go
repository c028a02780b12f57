package kafka

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// HandlerFunc processes one message. A returned error is logged and the same
// message is handed back after a backoff, so offsets never move past it.
type HandlerFunc func(ctx context.Context, msg kafkago.Message) error

// reader is the subset of *kafkago.Reader the consumer loop needs.
type reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader    reader
	topic     string
	logger    *zap.Logger
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewConsumer creates a Consumer for topic in groupID.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			StartOffset:    kafkago.FirstOffset,
			CommitInterval: 0,
		}),
		topic:     topic,
		logger:    logger,
		baseDelay: retryBaseDelay,
		maxDelay:  retryMaxDelay,
	}
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Warn("kafka fetch failed", zap.String("topic", c.topic), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handleWithRetry(ctx, handler, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("kafka commit failed", zap.Error(err))
		}
	}
}

// handleWithRetry runs handler on msg until it succeeds. It only gives up
// when ctx is done, leaving msg uncommitted for the next group member.
func (c *Consumer) handleWithRetry(ctx context.Context, handler HandlerFunc, msg kafkago.Message) error {
	delay := c.baseDelay
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("kafka handler failed, retrying",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
