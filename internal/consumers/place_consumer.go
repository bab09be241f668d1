package consumers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hayoungplace/domain"
	"hayoungplace/pkg/events"
)

// RoutingKeys are the place exchange bindings the reconcile worker needs.
var RoutingKeys = []string{
	events.CommentCreatedEvent + "." + events.EventVersionV1,
	events.CommentDeletedEvent + "." + events.EventVersionV1,
	events.PlaceDeletedEvent + "." + events.EventVersionV1,
}

// CommentReconciler is the part of the comment service the worker drives.
type CommentReconciler interface {
	Recount(ctx context.Context, placeID string) (int64, error)
	PurgePlace(ctx context.Context, placeID string) (int64, error)
}

// PlaceEventHandler keeps place comment counts and threads consistent after
// the synchronous path failed part way.
type PlaceEventHandler struct {
	comments CommentReconciler
}

func NewPlaceEventHandler(comments CommentReconciler) *PlaceEventHandler {
	return &PlaceEventHandler{comments: comments}
}

func (h *PlaceEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	zap.L().Debug("Place event received",
		zap.String("event", event.Event),
		zap.String("version", event.Version),
		zap.String("traceId", event.TraceID),
	)

	switch event.Event {
	case events.CommentCreatedEvent, events.CommentDeletedEvent:
		return h.handleCommentChanged(ctx, event)
	case events.PlaceDeletedEvent:
		return h.handlePlaceDeleted(ctx, event)
	default:
		zap.L().Warn("Unknown place event type", zap.String("event", event.Event))
		return nil
	}
}

func (h *PlaceEventHandler) handleCommentChanged(ctx context.Context, event *events.Event) error {
	var payload events.CommentPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if payload.PlaceID == "" {
		return fmt.Errorf("malformed payload - placeId missing")
	}

	count, err := h.comments.Recount(ctx, payload.PlaceID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			// Place is gone; place.deleted handles the thread.
			zap.L().Info("Skipping recount of deleted place", zap.String("placeId", payload.PlaceID))
			return nil
		}
		return fmt.Errorf("recount comments of place %s: %w", payload.PlaceID, err)
	}

	zap.L().Info("Place comment count reconciled",
		zap.String("placeId", payload.PlaceID),
		zap.Int64("commentCount", count),
		zap.String("traceId", event.TraceID),
	)
	return nil
}

func (h *PlaceEventHandler) handlePlaceDeleted(ctx context.Context, event *events.Event) error {
	var payload events.PlaceDeletedPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if payload.ID == "" {
		return fmt.Errorf("malformed payload - id missing")
	}

	removed, err := h.comments.PurgePlace(ctx, payload.ID)
	if err != nil {
		return err
	}

	zap.L().Info("Comments of deleted place purged",
		zap.String("placeId", payload.ID),
		zap.Int64("comments", removed),
		zap.String("traceId", event.TraceID),
	)
	return nil
}
