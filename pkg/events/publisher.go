package events

import (
	"context"

	"go.uber.org/zap"
)

// Publisher defines the interface for publishing domain events
type Publisher interface {
	// Publish publishes an event to the message broker
	Publish(ctx context.Context, exchange string, event *Event, headers Headers) error

	// Close closes the publisher connection
	Close() error
}

// Emit builds and publishes an event, logging instead of failing. A nil
// publisher is a no-op so services can run without a broker.
func Emit(ctx context.Context, publisher Publisher, service, exchange, name string, payload any) {
	if publisher == nil {
		return
	}

	headers := NewHeaders(service)

	event, err := NewEvent(name, EventVersionV1, payload, headers)
	if err != nil {
		zap.L().Error("Failed to build event", zap.String("event", name), zap.Error(err))
		return
	}

	if err := publisher.Publish(ctx, exchange, event, headers); err != nil {
		zap.L().Error("Failed to publish event",
			zap.String("event", name),
			zap.String("traceId", headers.TraceID),
			zap.Error(err),
		)
	}
}
