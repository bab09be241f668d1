package party

import (
	"context"
	"time"

	"hayoungplace/domain"
)

type Repository interface {
	// Create stores the party together with its creator as the first member.
	Create(ctx context.Context, party *domain.Party, creator *domain.PartyMember) error
	Get(ctx context.Context, id string) (domain.Party, error)
	// List returns parties newest first.
	List(ctx context.Context, page domain.PageRequest) ([]domain.Party, error)
	Count(ctx context.Context) (int64, error)
	// Update writes the editable fields only while the stored status and
	// member count still equal those of seen. Otherwise it returns
	// domain.ErrPartyChanged.
	Update(ctx context.Context, party domain.Party, seen domain.Party) error
	// Delete removes the party and all of its members.
	Delete(ctx context.Context, id string) error

	// AddMember admits a member in one atomic step. It fails with
	// ErrPartyClosed, ErrPartyFull or ErrDuplicateKey, and marks the party
	// COMPLETED when the new member fills the last seat.
	AddMember(ctx context.Context, member *domain.PartyMember, at time.Time) (domain.Party, error)
	FindMember(ctx context.Context, partyID, nickname string) (domain.PartyMember, error)
	// RemoveMember deletes a member and reopens a COMPLETED party.
	RemoveMember(ctx context.Context, partyID, nickname string, at time.Time) (domain.Party, error)
	// Members returns the members of a party in join order.
	Members(ctx context.Context, partyID string) ([]domain.PartyMember, error)
}
