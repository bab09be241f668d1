package party

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

// updateAttempts bounds the optimistic retries of Update.
const updateAttempts = 3

type Service struct {
	repository Repository
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

// View is a party with the days left until it takes place.
type View struct {
	domain.Party
	DDay int64 `json:"dDay"`
}

type CreateInput struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
	MaxMembers  *int
	Tags        []string
	Nickname    string
	Password    string
}

type UpdateInput struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
	MaxMembers  *int
	Tags        []string
	Status      *domain.PartyStatus
}

func (s *Service) view(p domain.Party) View {
	return View{Party: p, DDay: p.DDay(s.now())}
}

func (s *Service) List(ctx context.Context, page domain.PageRequest) (domain.Page[View], error) {
	parties, err := s.repository.List(ctx, page)
	if err != nil {
		return domain.Page[View]{}, fmt.Errorf("list parties: %w", err)
	}

	total, err := s.repository.Count(ctx)
	if err != nil {
		return domain.Page[View]{}, fmt.Errorf("count parties: %w", err)
	}

	return domain.MapPage(domain.NewPage(parties, page, total), s.view), nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	p, err := s.repository.Get(ctx, id)
	if err != nil {
		return View{}, partyError(err, id)
	}
	return s.view(p), nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	if strings.TrimSpace(in.Password) == "" {
		return View{}, domain.NewValidationError("password is required")
	}
	if in.MaxMembers != nil && *in.MaxMembers < 1 {
		return View{}, domain.NewValidationError("maxMembers must be at least 1")
	}

	digest, err := s.gate.Hash(in.Password)
	if err != nil {
		return View{}, fmt.Errorf("hash party password: %w", err)
	}

	now := s.now()
	status := domain.PartyStatusRecruiting
	if in.MaxMembers != nil && *in.MaxMembers == 1 {
		status = domain.PartyStatusCompleted
	}

	p := domain.Party{
		Title:       in.Title,
		Status:      status,
		Description: in.Description,
		Location:    in.Location,
		Date:        in.Date,
		MaxMembers:  in.MaxMembers,
		MemberCount: 1,
		Tags:        normalizeTags(in.Tags),
		Nickname:    in.Nickname,
		Password:    digest,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	creator := domain.PartyMember{
		Nickname:  in.Nickname,
		Password:  digest,
		IsCreator: true,
		JoinedAt:  now,
	}

	if err := s.repository.Create(ctx, &p, &creator); err != nil {
		return View{}, fmt.Errorf("create party: %w", err)
	}

	s.emit(ctx, events.PartyCreatedEvent, p, p.Nickname)

	return s.view(p), nil
}

// Update edits a party. The write is conditional on the membership it was
// checked against, and is retried on a fresh read when a join or leave
// landed in between.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, password string) (View, error) {
	if in.Status != nil {
		switch *in.Status {
		case domain.PartyStatusRecruiting, domain.PartyStatusCompleted:
		default:
			return View{}, domain.NewValidationError("unknown party status %q", *in.Status)
		}
	}

	for attempt := 0; attempt < updateAttempts; attempt++ {
		seen, err := s.authorize(ctx, id, password)
		if err != nil {
			return View{}, err
		}

		if in.MaxMembers != nil && *in.MaxMembers < seen.MemberCount {
			return View{}, domain.NewValidationError("maxMembers %d is below the current %d members", *in.MaxMembers, seen.MemberCount)
		}

		p := seen
		p.Title = in.Title
		p.Description = in.Description
		p.Location = in.Location
		p.Date = in.Date
		p.MaxMembers = in.MaxMembers
		p.Tags = normalizeTags(in.Tags)
		if in.Status != nil {
			p.Status = *in.Status
		}
		p.UpdatedAt = s.now()

		err = s.repository.Update(ctx, p, seen)
		if errors.Is(err, domain.ErrPartyChanged) {
			zap.L().Info("Party changed during update, retrying", zap.String("partyId", id), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return View{}, partyError(err, id)
		}

		s.emit(ctx, events.PartyUpdatedEvent, p, "")

		return s.view(p), nil
	}

	return View{}, domain.NewDuplicateError("party %s keeps changing, retry the update", id)
}

func (s *Service) Delete(ctx context.Context, id, password string) error {
	p, err := s.authorize(ctx, id, password)
	if err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return partyError(err, id)
	}

	s.emit(ctx, events.PartyDeletedEvent, p, "")

	return nil
}

// Join adds a member. The seat check and the increment happen in the store
// so two concurrent joins cannot both take the last seat.
func (s *Service) Join(ctx context.Context, partyID, nickname, password string) (domain.PartyMember, error) {
	if strings.TrimSpace(password) == "" {
		return domain.PartyMember{}, domain.NewValidationError("password is required")
	}

	digest, err := s.gate.Hash(password)
	if err != nil {
		return domain.PartyMember{}, fmt.Errorf("hash member password: %w", err)
	}

	now := s.now()
	member := domain.PartyMember{
		PartyID:  partyID,
		Nickname: nickname,
		Password: digest,
		JoinedAt: now,
	}

	p, err := s.repository.AddMember(ctx, &member, now)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPartyClosed):
		return domain.PartyMember{}, domain.NewValidationError("party %s is no longer recruiting", partyID)
	case errors.Is(err, domain.ErrPartyFull):
		return domain.PartyMember{}, domain.NewValidationError("party %s is full", partyID)
	case errors.Is(err, domain.ErrDuplicateKey):
		return domain.PartyMember{}, domain.NewDuplicateError("%s already joined party %s", nickname, partyID)
	default:
		return domain.PartyMember{}, partyError(err, partyID)
	}

	zap.L().Info("Party member joined",
		zap.String("partyId", partyID),
		zap.Int("memberCount", p.MemberCount),
		zap.String("status", string(p.Status)),
	)

	s.emit(ctx, events.PartyMemberJoinedEvent, p, nickname)

	return member, nil
}

// Leave removes a member after checking their password. The creator cannot leave.
func (s *Service) Leave(ctx context.Context, partyID, nickname, password string) error {
	member, err := s.repository.FindMember(ctx, partyID, nickname)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewNotFoundError("member %s not found in party %s", nickname, partyID)
		}
		return fmt.Errorf("find party member: %w", err)
	}

	if !s.gate.Verify(password, member.Password) {
		zap.L().Warn("Party member password mismatch", zap.String("partyId", partyID))
		return domain.NewInvalidPasswordError("password does not match")
	}

	if member.IsCreator {
		return domain.NewValidationError("the party creator cannot leave the party")
	}

	p, err := s.repository.RemoveMember(ctx, partyID, nickname, s.now())
	if err != nil {
		return partyError(err, partyID)
	}

	s.emit(ctx, events.PartyMemberLeftEvent, p, nickname)

	return nil
}

func (s *Service) Members(ctx context.Context, partyID string) ([]domain.PartyMember, error) {
	if _, err := s.repository.Get(ctx, partyID); err != nil {
		return nil, partyError(err, partyID)
	}

	members, err := s.repository.Members(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("list party members: %w", err)
	}
	if members == nil {
		members = []domain.PartyMember{}
	}
	return members, nil
}

func (s *Service) authorize(ctx context.Context, id, password string) (domain.Party, error) {
	p, err := s.repository.Get(ctx, id)
	if err != nil {
		return domain.Party{}, partyError(err, id)
	}

	if !s.gate.Verify(password, p.Password) {
		zap.L().Warn("Party password mismatch", zap.String("partyId", id))
		return domain.Party{}, domain.NewInvalidPasswordError("password does not match")
	}

	return p, nil
}

func (s *Service) emit(ctx context.Context, name string, p domain.Party, nickname string) {
	events.Emit(ctx, s.publisher, s.service, events.PartyExchange, name, events.PartyPayload{
		ID:          p.ID,
		Title:       p.Title,
		Status:      string(p.Status),
		MemberCount: p.MemberCount,
		Nickname:    nickname,
		Timestamp:   s.now(),
	})
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func partyError(err error, id string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewNotFoundError("party %s not found", id)
	}
	return fmt.Errorf("party %s: %w", id, err)
}
