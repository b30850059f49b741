package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/movesmart/service-route/internal/resilience"
)

// MessageHandler processes one message. A returned error is retried with
// backoff; the message is committed only once the handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// DefaultHandlerRetry is the policy applied to failing handlers.
func DefaultHandlerRetry() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		Attempts:  5,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Jitter:    0.2,
	}
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	reader messageReader
	retry  resilience.RetryPolicy
	logger *zap.Logger
}

// NewConsumer creates a group Consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, DefaultHandlerRetry(), logger)
}

func newConsumer(reader messageReader, retry resilience.RetryPolicy, logger *zap.Logger) *Consumer {
	// Handlers drop malformed input by returning nil, so every error is retried.
	retry.Retryable = func(error) bool { return true }
	retry.Logger = logger
	retry.Operation = "kafka message handler"
	return &Consumer{reader: reader, retry: retry, logger: logger}
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
// When a message still fails after all retries, Consume returns without
// committing it so the group redelivers it after a restart.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		err = resilience.Do(ctx, c.retry, func(ctx context.Context) error {
			return handler(ctx, msg)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("message handler failed, stopping consumer",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return fmt.Errorf("handle message at offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
