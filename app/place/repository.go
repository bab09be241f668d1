package place

import (
	"context"
	"time"

	"hayoungplace/domain"
)

type Repository interface {
	Create(ctx context.Context, place *domain.Place) error
	Get(ctx context.Context, id string) (domain.Place, error)
	ExistsByPlaceURL(ctx context.Context, placeURL string) (bool, error)
	ExistsByNameAndAddress(ctx context.Context, name, address string) (bool, error)
	Find(ctx context.Context, query domain.PlaceQuery, page domain.PageRequest) ([]domain.Place, error)
	Count(ctx context.Context, query domain.PlaceQuery) (int64, error)
	Update(ctx context.Context, place domain.Place) error
	Delete(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) (domain.Place, error)
	SetCommentCount(ctx context.Context, id string, count int64) (domain.Place, error)
	AddImage(ctx context.Context, id string, imageURL string) (domain.Place, error)
}

// ThreadCleaner soft deletes the comments left behind by a deleted place.
type ThreadCleaner interface {
	SoftDeleteByPlace(ctx context.Context, placeID string, at time.Time) (int64, error)
}

// PageCache stores rendered listing pages. Invalidate drops every entry.
// GetPage returns the generation it read, and SetPage writes under it so a
// page loaded before an invalidation is never served.
type PageCache interface {
	GetPage(ctx context.Context, key string, dst any) (bool, int64, error)
	SetPage(ctx context.Context, generation int64, key string, value any) error
	Invalidate(ctx context.Context) error
}

type ImageStorage interface {
	Upload(key string, data []byte) error
	Delete(key string) error
	URL(key string) string
}
