package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/movesmart/service-route/internal/platform/kafka"
)

// EventSource identifies this service in published CloudEvents.
const EventSource = "movesmart/service-route"

// Topics.
const (
	TopicRouteEvents   = "route.events"
	TopicAccountEvents = "account.events"
)

// Event types.
const (
	EventRouteCreated = "route.created"
	EventRouteDeleted = "route.deleted"
	EventUserDeleted  = "user.deleted"
)

// RouteCreatedEvent is published after a route is stored.
type RouteCreatedEvent struct {
	RouteID         uint      `json:"route_id"`
	UserID          uint      `json:"user_id"`
	StartLocation   string    `json:"start_location"`
	EndLocation     string    `json:"end_location"`
	DistanceKm      float64   `json:"distance_km"`
	DurationMin     float64   `json:"duration_min"`
	CongestionLevel string    `json:"congestion_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// RouteDeletedEvent is published after a route is removed by its owner.
type RouteDeletedEvent struct {
	RouteID   uint      `json:"route_id"`
	UserID    uint      `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// UserDeletedEvent is published when an account is closed.
type UserDeletedEvent struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	DeletedAt time.Time `json:"deleted_at"`
}

// EventPublisher writes CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

// PublishEvent implements EventPublisher.
func (NopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// publish builds and writes an event. Failures are logged and never fail the
// calling use case.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, topic, eventType, subject string, data interface{}) {
	ce, err := kafka.NewCloudEvent(EventSource, eventType, data)
	if err != nil {
		log.Error("failed to build cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	ce.Subject = subject
	if err := p.PublishEvent(ctx, topic, ce); err != nil {
		log.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
