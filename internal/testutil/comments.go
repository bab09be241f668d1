package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hayoungplace/domain"
)

type storedComment struct {
	comment domain.Comment
	seq     int
}

// CommentStore is an in-memory comment.Repository.
type CommentStore struct {
	mu       sync.Mutex
	comments map[string]*storedComment
	seq      int
}

func NewCommentStore() *CommentStore {
	return &CommentStore{comments: make(map[string]*storedComment)}
}

func (s *CommentStore) Create(_ context.Context, c *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	s.seq++
	s.comments[c.ID] = &storedComment{comment: *c, seq: s.seq}
	return nil
}

func (s *CommentStore) Get(_ context.Context, id string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrRecordNotFound
	}
	return sc.comment, nil
}

func (s *CommentStore) roots(placeID string) []*storedComment {
	out := make([]*storedComment, 0)
	for _, sc := range s.comments {
		if sc.comment.PlaceID == placeID && sc.comment.IsRoot() {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].comment.CreatedAt.Equal(out[j].comment.CreatedAt) {
			return out[i].comment.CreatedAt.After(out[j].comment.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (s *CommentStore) FindRoots(_ context.Context, placeID string, page domain.PageRequest) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Comment, 0)
	for _, sc := range paginate(s.roots(placeID), page) {
		out = append(out, sc.comment)
	}
	return out, nil
}

func (s *CommentStore) CountRoots(_ context.Context, placeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.roots(placeID))), nil
}

func (s *CommentStore) FindReplies(_ context.Context, parentIDs []string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}

	matched := make([]*storedComment, 0)
	for _, sc := range s.comments {
		c := sc.comment
		if c.ParentID != nil && wanted[*c.ParentID] && !c.IsDeleted {
			matched = append(matched, sc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].comment.CreatedAt.Equal(matched[j].comment.CreatedAt) {
			return matched[i].comment.CreatedAt.Before(matched[j].comment.CreatedAt)
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]domain.Comment, 0, len(matched))
	for _, sc := range matched {
		out = append(out, sc.comment)
	}
	return out, nil
}

func (s *CommentStore) UpdateContent(_ context.Context, id, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.comments[id]
	if !ok || sc.comment.IsDeleted {
		return domain.ErrRecordNotFound
	}
	sc.comment.Content = content
	sc.comment.UpdatedAt = at
	return nil
}

func (s *CommentStore) SoftDelete(_ context.Context, id string, cascade bool, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, sc := range s.comments {
		c := &sc.comment
		hit := c.ID == id || (cascade && c.ParentID != nil && *c.ParentID == id)
		if hit && !c.IsDeleted {
			c.IsDeleted = true
			c.UpdatedAt = at
			n++
		}
	}
	if n == 0 {
		return 0, domain.ErrRecordNotFound
	}
	return n, nil
}

func (s *CommentStore) SoftDeleteByPlace(_ context.Context, placeID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, sc := range s.comments {
		c := &sc.comment
		if c.PlaceID == placeID && !c.IsDeleted {
			c.IsDeleted = true
			c.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *CommentStore) CountActive(_ context.Context, placeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, sc := range s.comments {
		if sc.comment.PlaceID == placeID && !sc.comment.IsDeleted {
			n++
		}
	}
	return n, nil
}
