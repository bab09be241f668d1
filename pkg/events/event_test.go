package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	exchange string
	events   []*Event
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, exchange string, event *Event, _ Headers) error {
	p.exchange = exchange
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestNewEvent_RoundTripsPayload(t *testing.T) {
	headers := NewHeaders("test")
	event, err := NewEvent(CommentDeletedEvent, EventVersionV1, CommentPayload{ID: "c1", PlaceID: "p1", Affected: 3}, headers)
	require.NoError(t, err)

	assert.Equal(t, "comment.deleted.v1", event.GetRoutingKey())
	assert.Equal(t, headers.TraceID, event.TraceID)

	var payload CommentPayload
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, "p1", payload.PlaceID)
	assert.EqualValues(t, 3, payload.Affected)
}

func TestDecode_EmptyPayload(t *testing.T) {
	event := &Event{Event: PlaceDeletedEvent}
	assert.Error(t, event.Decode(&PlaceDeletedPayload{}))
}

func TestEmit(t *testing.T) {
	Emit(context.Background(), nil, "test", PlaceExchange, PlaceCreatedEvent, PlaceCreatedPayload{ID: "p1"})

	p := &recordingPublisher{}
	Emit(context.Background(), p, "test", PlaceExchange, PlaceCreatedEvent, PlaceCreatedPayload{ID: "p1"})
	require.Len(t, p.events, 1)
	assert.Equal(t, PlaceExchange, p.exchange)
	assert.Equal(t, PlaceCreatedEvent, p.events[0].Event)

	p.err = errors.New("broker down")
	assert.NotPanics(t, func() {
		Emit(context.Background(), p, "test", PlaceExchange, PlaceCreatedEvent, PlaceCreatedPayload{ID: "p2"})
	})
}
