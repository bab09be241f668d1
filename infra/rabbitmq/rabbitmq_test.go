package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayoungplace/pkg/events"
)

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error {
	a.nacked++
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, event *events.Event) amqp.Delivery {
	t.Helper()
	body := []byte("{not json")
	if event != nil {
		var err error
		body, err = json.Marshal(event)
		require.NoError(t, err)
	}
	return amqp.Delivery{
		Acknowledger: ack,
		Body:         body,
		RoutingKey:   "comment.created.v1",
		Headers:      amqp.Table{"x-trace-id": "trace-1"},
	}
}

func TestNewPublishing(t *testing.T) {
	headers := events.NewHeaders("places")
	event, err := events.NewEvent(events.PlaceCreatedEvent, events.EventVersionV1, events.PlaceCreatedPayload{ID: "p1"}, headers)
	require.NoError(t, err)

	msg, err := newPublishing(event, headers, "places")
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, headers.TraceID, msg.Headers["x-trace-id"])
	assert.Equal(t, "places", msg.Headers["x-service"])

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, events.PlaceCreatedEvent, decoded.Event)
}

func TestHandleDelivery(t *testing.T) {
	event, err := events.NewEvent(events.CommentCreatedEvent, events.EventVersionV1,
		events.CommentPayload{ID: "c1", PlaceID: "p1"}, events.NewHeaders("test"))
	require.NoError(t, err)

	t.Run("acks handled events", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		var seen string
		handleDelivery(context.Background(), "q", delivery(t, ack, event), func(_ context.Context, e *events.Event) error {
			seen = e.Event
			return nil
		})
		assert.Equal(t, events.CommentCreatedEvent, seen)
		assert.Equal(t, 1, ack.acked)
		assert.Zero(t, ack.nacked)
	})

	t.Run("dead-letters handler failures", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		handleDelivery(context.Background(), "q", delivery(t, ack, event), func(context.Context, *events.Event) error {
			return errors.New("boom")
		})
		assert.Zero(t, ack.acked)
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("dead-letters malformed bodies", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		called := false
		handleDelivery(context.Background(), "q", delivery(t, ack, nil), func(context.Context, *events.Event) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.Equal(t, 1, ack.nacked)
	})
}

func TestIsHealthy_NilPublisher(t *testing.T) {
	var p *Publisher
	assert.False(t, p.IsHealthy())
}
