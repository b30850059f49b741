package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/kafka"
)

type fakePurger struct {
	calls []uint
	err   error
}

func (p *fakePurger) PurgeUserRoutes(_ context.Context, userID uint) (int64, error) {
	p.calls = append(p.calls, userID)
	return 3, p.err
}

func newTestConsumer(p application.RoutePurger) *AccountEventConsumer {
	return &AccountEventConsumer{purger: p, logger: zap.NewNop()}
}

func message(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("movesmart/service-account", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: application.TopicAccountEvents, Value: raw}
}

func TestHandleMessage_UserDeletedPurges(t *testing.T) {
	p := &fakePurger{}
	c := newTestConsumer(p)

	err := c.handleMessage(context.Background(), message(t, application.EventUserDeleted, application.UserDeletedEvent{UserID: 9}))
	require.NoError(t, err)
	assert.Equal(t, []uint{9}, p.calls)
}

func TestHandleMessage_PurgeFailureReturnsError(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	c := newTestConsumer(p)

	err := c.handleMessage(context.Background(), message(t, application.EventUserDeleted, application.UserDeletedEvent{UserID: 9}))
	assert.Error(t, err)
}

func TestHandleMessage_IgnoresOtherTypes(t *testing.T) {
	p := &fakePurger{}
	c := newTestConsumer(p)

	err := c.handleMessage(context.Background(), message(t, "user.created", map[string]int{"user_id": 1}))
	require.NoError(t, err)
	assert.Empty(t, p.calls)
}

func TestHandleMessage_MalformedIsDropped(t *testing.T) {
	p := &fakePurger{}
	c := newTestConsumer(p)

	require.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("{not json")}))
	require.NoError(t, c.handleMessage(context.Background(), message(t, application.EventUserDeleted, map[string]string{"user_id": "x"})))
	assert.Empty(t, p.calls)
}
