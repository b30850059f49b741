// Package events consumes integration events published by other services.
package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/kafka"
)

// AccountEventConsumer listens to account events and removes the routes of
// deleted users.
type AccountEventConsumer struct {
	consumer *kafka.Consumer
	purger   application.RoutePurger
	logger   *zap.Logger
}

// NewAccountEventConsumer creates a new AccountEventConsumer.
func NewAccountEventConsumer(
	brokers []string,
	groupID string,
	purger application.RoutePurger,
	logger *zap.Logger,
) *AccountEventConsumer {
	return &AccountEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, application.TopicAccountEvents, logger),
		purger:   purger,
		logger:   logger,
	}
}

// Start begins consuming account events. This blocks until the context is cancelled.
func (c *AccountEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *AccountEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *AccountEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from account topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case application.EventUserDeleted:
		return c.handleUserDeleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled account event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *AccountEventConsumer) handleUserDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt application.UserDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.UserID == 0 {
		c.logger.Error("failed to parse UserDeletedEvent data",
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return nil
	}

	n, err := c.purger.PurgeUserRoutes(ctx, evt.UserID)
	if err != nil {
		c.logger.Error("failed to purge routes of deleted user",
			zap.Uint("user_id", evt.UserID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("routes purged after account deletion",
		zap.Uint("user_id", evt.UserID),
		zap.Int64("count", n),
	)
	return nil
}
