package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hayoungplace/domain"
)

type storedParty struct {
	party   domain.Party
	members []domain.PartyMember
	seq     int
}

// PartyStore is an in-memory party.Repository. Membership changes happen
// under one lock, the way the database backends make them atomic.
type PartyStore struct {
	mu      sync.Mutex
	parties map[string]*storedParty
	seq     int
}

func NewPartyStore() *PartyStore {
	return &PartyStore{parties: make(map[string]*storedParty)}
}

func cloneParty(p domain.Party) domain.Party {
	p.Tags = append([]string{}, p.Tags...)
	if p.MaxMembers != nil {
		m := *p.MaxMembers
		p.MaxMembers = &m
	}
	return p
}

func (s *PartyStore) Create(_ context.Context, p *domain.Party, creator *domain.PartyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	creator.ID = uuid.NewString()
	creator.PartyID = p.ID

	s.seq++
	s.parties[p.ID] = &storedParty{
		party:   cloneParty(*p),
		members: []domain.PartyMember{*creator},
		seq:     s.seq,
	}
	return nil
}

func (s *PartyStore) Get(_ context.Context, id string) (domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[id]
	if !ok {
		return domain.Party{}, domain.ErrRecordNotFound
	}
	return cloneParty(sp.party), nil
}

func (s *PartyStore) List(_ context.Context, page domain.PageRequest) ([]domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*storedParty, 0, len(s.parties))
	for _, sp := range s.parties {
		all = append(all, sp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].party.CreatedAt.Equal(all[j].party.CreatedAt) {
			return all[i].party.CreatedAt.After(all[j].party.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})

	out := make([]domain.Party, 0)
	for _, sp := range paginate(all, page) {
		out = append(out, cloneParty(sp.party))
	}
	return out, nil
}

func (s *PartyStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.parties)), nil
}

func (s *PartyStore) Update(_ context.Context, p domain.Party, seen domain.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[p.ID]
	if !ok || sp.party.Status != seen.Status || sp.party.MemberCount != seen.MemberCount {
		return domain.ErrPartyChanged
	}
	p.MemberCount = sp.party.MemberCount
	p.Password = sp.party.Password
	p.CreatedAt = sp.party.CreatedAt
	sp.party = cloneParty(p)
	return nil
}

func (s *PartyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.parties[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(s.parties, id)
	return nil
}

func (s *PartyStore) AddMember(_ context.Context, m *domain.PartyMember, at time.Time) (domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[m.PartyID]
	if !ok {
		return domain.Party{}, domain.ErrRecordNotFound
	}
	if sp.party.Status != domain.PartyStatusRecruiting {
		return domain.Party{}, domain.ErrPartyClosed
	}
	if sp.party.IsFull() {
		return domain.Party{}, domain.ErrPartyFull
	}
	for _, existing := range sp.members {
		if existing.Nickname == m.Nickname {
			return domain.Party{}, domain.ErrDuplicateKey
		}
	}

	m.ID = uuid.NewString()
	sp.members = append(sp.members, *m)
	sp.party.MemberCount++
	if sp.party.IsFull() {
		sp.party.Status = domain.PartyStatusCompleted
	}
	sp.party.UpdatedAt = at
	return cloneParty(sp.party), nil
}

func (s *PartyStore) FindMember(_ context.Context, partyID, nickname string) (domain.PartyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[partyID]
	if !ok {
		return domain.PartyMember{}, domain.ErrRecordNotFound
	}
	for _, m := range sp.members {
		if m.Nickname == nickname {
			return m, nil
		}
	}
	return domain.PartyMember{}, domain.ErrRecordNotFound
}

func (s *PartyStore) RemoveMember(_ context.Context, partyID, nickname string, at time.Time) (domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[partyID]
	if !ok {
		return domain.Party{}, domain.ErrRecordNotFound
	}

	idx := -1
	for i, m := range sp.members {
		if m.Nickname == nickname {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Party{}, domain.ErrRecordNotFound
	}

	sp.members = append(sp.members[:idx], sp.members[idx+1:]...)
	sp.party.MemberCount--
	if sp.party.Status == domain.PartyStatusCompleted {
		sp.party.Status = domain.PartyStatusRecruiting
	}
	sp.party.UpdatedAt = at
	return cloneParty(sp.party), nil
}

func (s *PartyStore) Members(_ context.Context, partyID string) ([]domain.PartyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.parties[partyID]
	if !ok {
		return []domain.PartyMember{}, nil
	}
	return append([]domain.PartyMember{}, sp.members...), nil
}
