package comment

import (
	"context"
	"time"

	"hayoungplace/domain"
)

type Repository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Get(ctx context.Context, id string) (domain.Comment, error)
	// FindRoots returns the root comments of a place, newest first, deleted ones included.
	FindRoots(ctx context.Context, placeID string, page domain.PageRequest) ([]domain.Comment, error)
	CountRoots(ctx context.Context, placeID string) (int64, error)
	// FindReplies returns the live replies of the given roots, oldest first.
	FindReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error)
	UpdateContent(ctx context.Context, id, content string, at time.Time) error
	// SoftDelete marks the comment deleted. With cascade set, its live replies
	// are marked in the same write. Returns the number of comments marked.
	SoftDelete(ctx context.Context, id string, cascade bool, at time.Time) (int64, error)
	SoftDeleteByPlace(ctx context.Context, placeID string, at time.Time) (int64, error)
	CountActive(ctx context.Context, placeID string) (int64, error)
}

// PlaceDirectory is the part of the place service comments depend on.
type PlaceDirectory interface {
	GetPlace(ctx context.Context, id string) (domain.Place, error)
	UpdateCommentCount(ctx context.Context, id string, count int64) (domain.Place, error)
}
