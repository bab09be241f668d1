package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hayoungplace/domain"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/secret"
)

const DefaultPageSize = 5

type Service struct {
	repository Repository
	places     PlaceDirectory
	gate       secret.Gate
	publisher  events.Publisher
	service    string
	now        func() time.Time
}

type Option func(*Service)

func WithPublisher(publisher events.Publisher, service string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.service = service
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repository Repository, places PlaceDirectory, gate secret.Gate, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		places:     places,
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
	ParentID *string
	Nickname string
	Password string
	Content  string
}

// View is a comment as shown to clients. Replies are only set on roots.
type View struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"placeId"`
	ParentID  *string   `json:"parentId"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
	Replies   []View    `json:"replies"`
}

func NewView(c domain.Comment) View {
	return View{
		ID:        c.ID,
		PlaceID:   c.PlaceID,
		ParentID:  c.ParentID,
		Nickname:  c.Nickname,
		Content:   c.DisplayContent(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		IsDeleted: c.IsDeleted,
		Replies:   []View{},
	}
}

func (s *Service) Create(ctx context.Context, placeID string, in CreateInput) (View, error) {
	if strings.TrimSpace(in.Password) == "" {
		return View{}, domain.NewValidationError("password is required")
	}

	if _, err := s.places.GetPlace(ctx, placeID); err != nil {
		return View{}, err
	}

	if in.ParentID != nil && *in.ParentID == "" {
		in.ParentID = nil
	}

	if in.ParentID != nil {
		parent, err := s.repository.Get(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return View{}, domain.NewValidationError("parent comment %s not found", *in.ParentID)
			}
			return View{}, fmt.Errorf("get parent comment: %w", err)
		}
		if parent.PlaceID != placeID {
			return View{}, domain.NewValidationError("parent comment belongs to another place")
		}
		if parent.IsDeleted {
			return View{}, domain.NewValidationError("cannot reply to a deleted comment")
		}
		if !parent.IsRoot() {
			return View{}, domain.NewValidationError("cannot reply to a reply")
		}
		in.ParentID = &parent.ID
	}

	digest, err := s.gate.Hash(in.Password)
	if err != nil {
		return View{}, fmt.Errorf("hash comment password: %w", err)
	}

	now := s.now()
	comment := domain.Comment{
		PlaceID:   placeID,
		ParentID:  in.ParentID,
		Nickname:  in.Nickname,
		Password:  digest,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.Create(ctx, &comment); err != nil {
		return View{}, fmt.Errorf("create comment: %w", err)
	}

	s.recountAfterMutation(ctx, placeID)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.CommentCreatedEvent, events.CommentPayload{
		ID:        comment.ID,
		PlaceID:   placeID,
		ParentID:  comment.ParentID,
		Nickname:  comment.Nickname,
		Affected:  1,
		Timestamp: now,
	})

	return NewView(comment), nil
}

// Update replaces the content of a live comment. An empty placeID skips the
// ownership check against the route.
func (s *Service) Update(ctx context.Context, placeID, commentID, password, content string) (View, error) {
	comment, err := s.authorize(ctx, placeID, commentID, password)
	if err != nil {
		return View{}, err
	}

	now := s.now()
	if err := s.repository.UpdateContent(ctx, comment.ID, content, now); err != nil {
		return View{}, commentError(err, commentID)
	}

	comment.Content = content
	comment.UpdatedAt = now

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.CommentUpdatedEvent, events.CommentPayload{
		ID:        comment.ID,
		PlaceID:   comment.PlaceID,
		ParentID:  comment.ParentID,
		Nickname:  comment.Nickname,
		Timestamp: now,
	})

	return NewView(comment), nil
}

// Delete soft deletes a comment. Deleting a root also deletes its live replies.
func (s *Service) Delete(ctx context.Context, placeID, commentID, password string) error {
	comment, err := s.authorize(ctx, placeID, commentID, password)
	if err != nil {
		return err
	}

	now := s.now()
	affected, err := s.repository.SoftDelete(ctx, comment.ID, comment.IsRoot(), now)
	if err != nil {
		return commentError(err, commentID)
	}

	zap.L().Info("Comment deleted",
		zap.String("commentId", comment.ID),
		zap.String("placeId", comment.PlaceID),
		zap.Bool("root", comment.IsRoot()),
		zap.Int64("affected", affected),
	)

	s.recountAfterMutation(ctx, comment.PlaceID)

	events.Emit(ctx, s.publisher, s.service, events.PlaceExchange, events.CommentDeletedEvent, events.CommentPayload{
		ID:        comment.ID,
		PlaceID:   comment.PlaceID,
		ParentID:  comment.ParentID,
		Nickname:  comment.Nickname,
		Affected:  affected,
		Timestamp: now,
	})

	return nil
}

// List returns a page of root comments with their live replies attached.
func (s *Service) List(ctx context.Context, placeID string, page domain.PageRequest) (domain.Page[View], error) {
	roots, err := s.repository.FindRoots(ctx, placeID, page)
	if err != nil {
		return domain.Page[View]{}, fmt.Errorf("find root comments: %w", err)
	}

	total, err := s.repository.CountRoots(ctx, placeID)
	if err != nil {
		return domain.Page[View]{}, fmt.Errorf("count root comments: %w", err)
	}

	views := make([]View, 0, len(roots))
	index := make(map[string]int, len(roots))
	parentIDs := make([]string, 0, len(roots))
	for i, root := range roots {
		views = append(views, NewView(root))
		index[root.ID] = i
		if !root.IsDeleted {
			parentIDs = append(parentIDs, root.ID)
		}
	}

	if len(parentIDs) > 0 {
		replies, err := s.repository.FindReplies(ctx, parentIDs)
		if err != nil {
			return domain.Page[View]{}, fmt.Errorf("find replies: %w", err)
		}
		for _, reply := range replies {
			if reply.ParentID == nil {
				continue
			}
			if i, ok := index[*reply.ParentID]; ok {
				views[i].Replies = append(views[i].Replies, NewView(reply))
			}
		}
	}

	return domain.NewPage(views, page, total), nil
}

// Count returns the number of live comments of a place, replies included.
func (s *Service) Count(ctx context.Context, placeID string) (int64, error) {
	count, err := s.repository.CountActive(ctx, placeID)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

// Recount recomputes the live comment count and writes it through to the place.
func (s *Service) Recount(ctx context.Context, placeID string) (int64, error) {
	count, err := s.Count(ctx, placeID)
	if err != nil {
		return 0, err
	}

	if _, err := s.places.UpdateCommentCount(ctx, placeID, count); err != nil {
		return 0, err
	}

	return count, nil
}

// PurgePlace soft deletes every comment of a removed place.
func (s *Service) PurgePlace(ctx context.Context, placeID string) (int64, error) {
	affected, err := s.repository.SoftDeleteByPlace(ctx, placeID, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge comments of place %s: %w", placeID, err)
	}
	return affected, nil
}

func (s *Service) recountAfterMutation(ctx context.Context, placeID string) {
	if _, err := s.Recount(ctx, placeID); err != nil {
		// The worker reconciles the count from the published event.
		zap.L().Error("Failed to update place comment count", zap.String("placeId", placeID), zap.Error(err))
	}
}

func (s *Service) authorize(ctx context.Context, placeID, commentID, password string) (domain.Comment, error) {
	comment, err := s.repository.Get(ctx, commentID)
	if err != nil {
		return domain.Comment{}, commentError(err, commentID)
	}

	if placeID != "" && comment.PlaceID != placeID {
		return domain.Comment{}, domain.NewNotFoundError("comment %s not found", commentID)
	}

	if comment.IsDeleted {
		return domain.Comment{}, domain.NewValidationError("comment %s is deleted", commentID)
	}

	if !s.gate.Verify(password, comment.Password) {
		zap.L().Warn("Comment password mismatch", zap.String("commentId", commentID))
		return domain.Comment{}, domain.NewInvalidPasswordError("password does not match")
	}

	return comment, nil
}

func commentError(err error, id string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewNotFoundError("comment %s not found", id)
	}
	return fmt.Errorf("comment %s: %w", id, err)
}
