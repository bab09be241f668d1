package place

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hayoungplace/domain"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/secret"
)

const (
	DefaultListPageSize  = 5
	DefaultQueryPageSize = 20
	DefaultMaxDistance   = 1000.0
)

type Service struct {
	repository Repository
	gate       secret.Gate
	cleaner    ThreadCleaner
	cache      PageCache
	images     ImageStorage
	publisher  events.Publisher
	service    string
	now        func() time.Time
}

type Option func(*Service)

func WithThreadCleaner(cleaner ThreadCleaner) Option {
	return func(s *Service) { s.cleaner = cleaner }
}

func WithPageCache(cache PageCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithImageStorage(images ImageStorage) Option {
	return func(s *Service) { s.images = images }
}

func WithPublisher(publisher events.Publisher, service string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.service = service
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repository Repository, gate secret.Gate, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		gate:       gate,
		service:    "hayoungplace",
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Name        string
	Address     string
	PlaceURL    string
	Longitude   float64
	Latitude    float64
	Category    string
	SubCategory *string
	Description string
	Password    string
}

// UpdateInput overwrites category, subcategory and description. Identity and
// location fields are only changed when set.
type UpdateInput struct {
	Name        *string
	Address     *string
	PlaceURL    *string
	Longitude   *float64
	Latitude    *float64
	Category    string
	SubCategory *string
	Description string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Place, error) {
	if strings.TrimSpace(in.Password) == "" {
		return domain.Place{}, domain.NewValidationError("password is required")
	}
	if err := validateCoordinates(in.Longitude, in.Latitude); err != nil {
		return domain.Place{}, err
	}

	category, subCategory, err := domain.ResolveCategories(in.Category, in.SubCategory)
	if err != nil {
		return domain.Place{}, err
	}

	if err := s.ensureUnique(ctx, nil, in.Name, in.Address, in.PlaceURL); err != nil {
		return domain.Place{}, err
	}

	digest, err := s.gate.Hash(in.Password)
	if err != nil {
		return domain.Place{}, fmt.Errorf("hash place password: %w", err)
	}

	now := s.now()
	place := domain.Place{
		Name:        in.Name,
		Address:     in.Address,
		Location:    domain.NewPoint(in.Longitude, in.Latitude),
		PlaceURL:    in.PlaceURL,
		Category:    category,
		SubCategory: subCategory,
		Description: in.Description,
		ImageURLs:   []string{},
		Password:    digest,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.Create(ctx, &place); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Place{}, domain.NewDuplicateError("place is already registered")
		}
		return domain.Place{}, fmt.Errorf("create place: %w", err)
	}

	s.invalidate(ctx)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.PlaceCreatedEvent, events.PlaceCreatedPayload{
		ID:          place.ID,
		Name:        place.Name,
		Address:     place.Address,
		PlaceURL:    place.PlaceURL,
		Category:    string(place.Category),
		SubCategory: string(place.SubCategory),
		Longitude:   place.Location.Longitude(),
		Latitude:    place.Location.Latitude(),
		CreatedAt:   place.CreatedAt,
	})

	return place, nil
}

func (s *Service) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	place, err := s.repository.Get(ctx, id)
	if err != nil {
		return domain.Place{}, placeError(err, id)
	}
	return place, nil
}

// IncrementViewCount bumps the view counter by one. UpdatedAt is untouched.
// IncrementViewCount leaves the listing cache alone, so cached pages show the
// previous viewCount until their TTL expires.
func (s *Service) IncrementViewCount(ctx context.Context, id string) (domain.Place, error) {
	place, err := s.repository.IncrementViewCount(ctx, id)
	if err != nil {
		return domain.Place{}, placeError(err, id)
	}

	zap.L().Debug("Place view count incremented",
		zap.String("placeId", id),
		zap.Int64("viewCount", place.ViewCount),
	)

	return place, nil
}

func (s *Service) VerifyPassword(ctx context.Context, id, password string) error {
	_, err := s.authorize(ctx, id, password)
	return err
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput, password string) (domain.Place, error) {
	place, err := s.authorize(ctx, id, password)
	if err != nil {
		return domain.Place{}, err
	}

	category, subCategory, err := domain.ResolveCategories(in.Category, in.SubCategory)
	if err != nil {
		return domain.Place{}, err
	}

	name, address, placeURL := place.Name, place.Address, place.PlaceURL
	if in.Name != nil {
		name = *in.Name
	}
	if in.Address != nil {
		address = *in.Address
	}
	if in.PlaceURL != nil {
		placeURL = *in.PlaceURL
	}

	if (in.Longitude == nil) != (in.Latitude == nil) {
		return domain.Place{}, domain.NewValidationError("longitude and latitude must be given together")
	}
	if in.Longitude != nil {
		if err := validateCoordinates(*in.Longitude, *in.Latitude); err != nil {
			return domain.Place{}, err
		}
		place.Location = domain.NewPoint(*in.Longitude, *in.Latitude)
	}

	if err := s.ensureUnique(ctx, &place, name, address, placeURL); err != nil {
		return domain.Place{}, err
	}

	place.Name = name
	place.Address = address
	place.PlaceURL = placeURL
	place.Category = category
	place.SubCategory = subCategory
	place.Description = in.Description
	place.UpdatedAt = s.now()

	if err := s.repository.Update(ctx, place); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Place{}, domain.NewDuplicateError("place is already registered")
		}
		return domain.Place{}, placeError(err, id)
	}

	s.invalidate(ctx)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.PlaceUpdatedEvent, events.PlaceUpdatedPayload{
		ID:          place.ID,
		Name:        place.Name,
		Category:    string(place.Category),
		SubCategory: string(place.SubCategory),
		UpdatedAt:   place.UpdatedAt,
	})

	return place, nil
}

// Delete removes the place and soft deletes every comment attached to it.
func (s *Service) Delete(ctx context.Context, id, password string) error {
	if _, err := s.authorize(ctx, id, password); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return placeError(err, id)
	}

	now := s.now()
	if s.cleaner != nil {
		removed, err := s.cleaner.SoftDeleteByPlace(ctx, id, now)
		if err != nil {
			// The worker repeats the cleanup when it sees place.deleted.
			zap.L().Error("Failed to soft delete comments of deleted place", zap.String("placeId", id), zap.Error(err))
		} else if removed > 0 {
			zap.L().Info("Soft deleted comments of deleted place", zap.String("placeId", id), zap.Int64("comments", removed))
		}
	}

	s.invalidate(ctx)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.PlaceDeletedEvent, events.PlaceDeletedPayload{
		ID:        id,
		DeletedAt: now,
	})

	return nil
}

// UpdateCommentCount overwrites the mirrored comment count without touching UpdatedAt.
func (s *Service) UpdateCommentCount(ctx context.Context, id string, count int64) (domain.Place, error) {
	place, err := s.repository.SetCommentCount(ctx, id, count)
	if err != nil {
		return domain.Place{}, placeError(err, id)
	}

	s.invalidate(ctx)

	return place, nil
}

type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// AttachImage stores an image and appends its URL to the place.
func (s *Service) AttachImage(ctx context.Context, id, password string, image Image) (domain.Place, error) {
	if s.images == nil {
		return domain.Place{}, errors.New("image storage is not configured")
	}

	if _, err := s.authorize(ctx, id, password); err != nil {
		return domain.Place{}, err
	}

	key := fmt.Sprintf("places/%s/%s%s", id, uuid.New().String(), image.Extension)
	if err := s.images.Upload(key, image.Data); err != nil {
		return domain.Place{}, fmt.Errorf("upload place image: %w", err)
	}

	imageURL := s.images.URL(key)

	place, err := s.repository.AddImage(ctx, id, imageURL)
	if err != nil {
		_ = s.images.Delete(key)
		return domain.Place{}, placeError(err, id)
	}

	s.invalidate(ctx)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.PlaceImageAddedEvent, events.PlaceImageAddedPayload{
		ID:       id,
		ImageURL: imageURL,
	})

	return place, nil
}

func (s *Service) GetAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Place], error) {
	return s.list(ctx, domain.PlaceQuery{}, page)
}

func (s *Service) GetByCategory(ctx context.Context, rawCategory string, page domain.PageRequest) (domain.Page[domain.Place], error) {
	category, err := domain.ParseCategory(rawCategory)
	if err != nil {
		return domain.Page[domain.Place]{}, err
	}
	return s.list(ctx, domain.PlaceQuery{Category: category}, page)
}

func (s *Service) GetByCategoryAndSubCategory(ctx context.Context, rawCategory, rawSubCategory string, page domain.PageRequest) (domain.Page[domain.Place], error) {
	category, subCategory, err := domain.ResolveCategories(rawCategory, &rawSubCategory)
	if err != nil {
		return domain.Page[domain.Place]{}, err
	}
	return s.list(ctx, domain.PlaceQuery{Category: category, SubCategory: subCategory}, page)
}

func (s *Service) Search(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Place], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Page[domain.Place]{}, domain.NewValidationError("search query is required")
	}
	return s.list(ctx, domain.PlaceQuery{Name: name}, page)
}

func (s *Service) GetNearby(ctx context.Context, longitude, latitude, maxDistance float64, page domain.PageRequest) (domain.Page[domain.Place], error) {
	if err := validateCoordinates(longitude, latitude); err != nil {
		return domain.Page[domain.Place]{}, err
	}
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	return s.list(ctx, domain.PlaceQuery{
		Near: &domain.GeoQuery{Longitude: longitude, Latitude: latitude, MaxDistance: maxDistance},
	}, page)
}

func (s *Service) list(ctx context.Context, query domain.PlaceQuery, page domain.PageRequest) (domain.Page[domain.Place], error) {
	key := cacheKey(query, page)

	var generation int64
	fill := s.cache != nil
	if s.cache != nil {
		var cached domain.Page[domain.Place]
		hit, gen, err := s.cache.GetPage(ctx, key, &cached)
		generation = gen
		if err != nil {
			fill = false
			zap.L().Warn("Place page cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	places, err := s.repository.Find(ctx, query, page)
	if err != nil {
		return domain.Page[domain.Place]{}, fmt.Errorf("find places: %w", err)
	}

	total, err := s.repository.Count(ctx, query)
	if err != nil {
		return domain.Page[domain.Place]{}, fmt.Errorf("count places: %w", err)
	}

	result := domain.NewPage(places, page, total)

	if fill {
		if err := s.cache.SetPage(ctx, generation, key, result); err != nil {
			zap.L().Warn("Place page cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return result, nil
}

func (s *Service) authorize(ctx context.Context, id, password string) (domain.Place, error) {
	place, err := s.repository.Get(ctx, id)
	if err != nil {
		return domain.Place{}, placeError(err, id)
	}

	if !s.gate.Verify(password, place.Password) {
		zap.L().Warn("Place password mismatch", zap.String("placeId", id))
		return domain.Place{}, domain.NewInvalidPasswordError("password does not match")
	}

	return place, nil
}

// ensureUnique rejects a place whose url or name and address are taken.
// On update only the keys that changed are checked.
func (s *Service) ensureUnique(ctx context.Context, current *domain.Place, name, address, placeURL string) error {
	if current == nil || current.PlaceURL != placeURL {
		exists, err := s.repository.ExistsByPlaceURL(ctx, placeURL)
		if err != nil {
			return fmt.Errorf("check place url: %w", err)
		}
		if exists {
			return domain.NewDuplicateError("place is already registered")
		}
	}

	if current == nil || current.Name != name || current.Address != address {
		exists, err := s.repository.ExistsByNameAndAddress(ctx, name, address)
		if err != nil {
			return fmt.Errorf("check place name and address: %w", err)
		}
		if exists {
			return domain.NewDuplicateError("place is already registered")
		}
	}

	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		zap.L().Warn("Place page cache invalidation failed", zap.Error(err))
	}
}

func validateCoordinates(longitude, latitude float64) error {
	if longitude < -180 || longitude > 180 {
		return domain.NewValidationError("longitude %v out of range", longitude)
	}
	if latitude < -90 || latitude > 90 {
		return domain.NewValidationError("latitude %v out of range", latitude)
	}
	return nil
}

func placeError(err error, id string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewNotFoundError("place %s not found", id)
	}
	return fmt.Errorf("place %s: %w", id, err)
}

func cacheKey(q domain.PlaceQuery, page domain.PageRequest) string {
	near := "-"
	if q.Near != nil {
		near = fmt.Sprintf("%.6f,%.6f,%.0f", q.Near.Longitude, q.Near.Latitude, q.Near.MaxDistance)
	}
	return fmt.Sprintf("places:c=%s:s=%s:n=%s:g=%s:p=%d:%d",
		q.Category, q.SubCategory, strings.ToLower(q.Name), near, page.Page, page.Size)
}

// CategoryOption pairs a category with the subcategories it accepts.
type CategoryOption struct {
	Category      domain.Category      `json:"category"`
	SubCategories []domain.SubCategory `json:"subCategories"`
}

func (s *Service) Categories() []CategoryOption {
	out := make([]CategoryOption, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, CategoryOption{Category: c, SubCategories: domain.SubCategoriesOf(c)})
	}
	return out
}

func (s *Service) SubCategories(rawCategory string) ([]domain.SubCategory, error) {
	category, err := domain.ParseCategory(rawCategory)
	if err != nil {
		return nil, err
	}
	return domain.SubCategoriesOf(category), nil
}
