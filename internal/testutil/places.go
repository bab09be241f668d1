// Package testutil holds in-memory stores and fakes shared by service and
// HTTP tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hayoungplace/domain"
)

type storedPlace struct {
	place domain.Place
	seq   int
}

// PlaceStore is an in-memory place.Repository.
type PlaceStore struct {
	mu     sync.Mutex
	places map[string]*storedPlace
	seq    int
}

func NewPlaceStore() *PlaceStore {
	return &PlaceStore{places: make(map[string]*storedPlace)}
}

func clonePlace(p domain.Place) domain.Place {
	p.ImageURLs = append([]string{}, p.ImageURLs...)
	p.Location.Coordinates = append([]float64(nil), p.Location.Coordinates...)
	return p
}

func (s *PlaceStore) conflicts(p domain.Place) bool {
	for id, sp := range s.places {
		if id == p.ID {
			continue
		}
		if sp.place.PlaceURL == p.PlaceURL || (sp.place.Name == p.Name && sp.place.Address == p.Address) {
			return true
		}
	}
	return false
}

func (s *PlaceStore) Create(_ context.Context, p *domain.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(*p) {
		return domain.ErrDuplicateKey
	}

	p.ID = uuid.NewString()
	s.seq++
	s.places[p.ID] = &storedPlace{place: clonePlace(*p), seq: s.seq}
	return nil
}

func (s *PlaceStore) Get(_ context.Context, id string) (domain.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.places[id]
	if !ok {
		return domain.Place{}, domain.ErrRecordNotFound
	}
	return clonePlace(sp.place), nil
}

func (s *PlaceStore) ExistsByPlaceURL(_ context.Context, placeURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.places {
		if sp.place.PlaceURL == placeURL {
			return true, nil
		}
	}
	return false, nil
}

func (s *PlaceStore) ExistsByNameAndAddress(_ context.Context, name, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.places {
		if sp.place.Name == name && sp.place.Address == address {
			return true, nil
		}
	}
	return false, nil
}

func (s *PlaceStore) matching(q domain.PlaceQuery) []*storedPlace {
	out := make([]*storedPlace, 0)
	for _, sp := range s.places {
		p := sp.place
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.SubCategory != "" && p.SubCategory != q.SubCategory {
			continue
		}
		if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Near != nil && distance(q.Near, p) > q.Near.MaxDistance {
			continue
		}
		out = append(out, sp)
	}

	sort.Slice(out, func(i, j int) bool {
		if q.Near != nil {
			return distance(q.Near, out[i].place) < distance(q.Near, out[j].place)
		}
		if !out[i].place.CreatedAt.Equal(out[j].place.CreatedAt) {
			return out[i].place.CreatedAt.After(out[j].place.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func distance(g *domain.GeoQuery, p domain.Place) float64 {
	return domain.DistanceMeters(g.Longitude, g.Latitude, p.Location.Longitude(), p.Location.Latitude())
}

func (s *PlaceStore) Find(_ context.Context, q domain.PlaceQuery, page domain.PageRequest) ([]domain.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Place, 0)
	for _, sp := range paginate(s.matching(q), page) {
		out = append(out, clonePlace(sp.place))
	}
	return out, nil
}

func (s *PlaceStore) Count(_ context.Context, q domain.PlaceQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.matching(q))), nil
}

func (s *PlaceStore) Update(_ context.Context, p domain.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.places[p.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if s.conflicts(p) {
		return domain.ErrDuplicateKey
	}

	// Counters and images are owned by their own operations.
	p.ViewCount = sp.place.ViewCount
	p.CommentCount = sp.place.CommentCount
	p.ImageURLs = sp.place.ImageURLs
	p.Password = sp.place.Password
	p.CreatedAt = sp.place.CreatedAt
	sp.place = clonePlace(p)
	return nil
}

func (s *PlaceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.places[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(s.places, id)
	return nil
}

func (s *PlaceStore) modify(id string, fn func(*domain.Place)) (domain.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.places[id]
	if !ok {
		return domain.Place{}, domain.ErrRecordNotFound
	}
	fn(&sp.place)
	return clonePlace(sp.place), nil
}

func (s *PlaceStore) IncrementViewCount(_ context.Context, id string) (domain.Place, error) {
	return s.modify(id, func(p *domain.Place) { p.ViewCount++ })
}

func (s *PlaceStore) SetCommentCount(_ context.Context, id string, count int64) (domain.Place, error) {
	return s.modify(id, func(p *domain.Place) { p.CommentCount = count })
}

func (s *PlaceStore) AddImage(_ context.Context, id string, imageURL string) (domain.Place, error) {
	return s.modify(id, func(p *domain.Place) { p.ImageURLs = append(p.ImageURLs, imageURL) })
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
