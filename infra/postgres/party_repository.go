package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hayoungplace/domain"
)

const partyColumns = `id, title, status, description, location, date, max_members, member_count,
	tags, nickname, password, created_at, updated_at`

const memberColumns = `id, party_id, nickname, password, is_creator, joined_at`

type partyRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Status      string         `db:"status"`
	Description string         `db:"description"`
	Location    string         `db:"location"`
	Date        time.Time      `db:"date"`
	MaxMembers  *int           `db:"max_members"`
	MemberCount int            `db:"member_count"`
	Tags        pq.StringArray `db:"tags"`
	Nickname    string         `db:"nickname"`
	Password    string         `db:"password"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newPartyRow(p domain.Party) partyRow {
	return partyRow{
		ID:          p.ID,
		Title:       p.Title,
		Status:      string(p.Status),
		Description: p.Description,
		Location:    p.Location,
		Date:        p.Date,
		MaxMembers:  p.MaxMembers,
		MemberCount: p.MemberCount,
		Tags:        append(pq.StringArray{}, p.Tags...),
		Nickname:    p.Nickname,
		Password:    p.Password,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r partyRow) toDomain() domain.Party {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.Party{
		ID:          r.ID,
		Title:       r.Title,
		Status:      domain.PartyStatus(r.Status),
		Description: r.Description,
		Location:    r.Location,
		Date:        r.Date,
		MaxMembers:  r.MaxMembers,
		MemberCount: r.MemberCount,
		Tags:        tags,
		Nickname:    r.Nickname,
		Password:    r.Password,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type memberRow struct {
	ID        string    `db:"id"`
	PartyID   string    `db:"party_id"`
	Nickname  string    `db:"nickname"`
	Password  string    `db:"password"`
	IsCreator bool      `db:"is_creator"`
	JoinedAt  time.Time `db:"joined_at"`
}

type PartyRepository struct {
	db *sqlx.DB
}

func NewPartyRepository(db *sqlx.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) Create(ctx context.Context, p *domain.Party, creator *domain.PartyMember) error {
	p.ID = uuid.NewString()
	creator.ID = uuid.NewString()
	creator.PartyID = p.ID

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO parties (
				id, title, status, description, location, date, max_members, member_count,
				tags, nickname, password, created_at, updated_at
			) VALUES (
				:id, :title, :status, :description, :location, :date, :max_members, :member_count,
				:tags, :nickname, :password, :created_at, :updated_at
			)`, newPartyRow(*p)); err != nil {
			return err
		}
		return insertMember(ctx, tx, *creator)
	})
	if err != nil {
		p.ID, creator.ID, creator.PartyID = "", "", ""
		return translate(err)
	}
	return nil
}

func (r *PartyRepository) Get(ctx context.Context, id string) (domain.Party, error) {
	var row partyRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id); err != nil {
		return domain.Party{}, translate(err)
	}
	return row.toDomain(), nil
}

func (r *PartyRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Party, error) {
	rows := make([]partyRow, 0)
	query := `SELECT ` + partyColumns + ` FROM parties ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx, &rows, query, page.Size, page.Offset()); err != nil {
		return nil, err
	}

	parties := make([]domain.Party, 0, len(rows))
	for _, row := range rows {
		parties = append(parties, row.toDomain())
	}
	return parties, nil
}

func (r *PartyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM parties`)
	return count, err
}

type partyUpdateRow struct {
	partyRow
	SeenStatus      string `db:"seen_status"`
	SeenMemberCount int    `db:"seen_member_count"`
}

func (r *PartyRepository) Update(ctx context.Context, p domain.Party, seen domain.Party) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE parties SET
			title = :title, description = :description, location = :location, date = :date,
			max_members = :max_members, tags = :tags, status = :status, updated_at = :updated_at
		WHERE id = :id AND status = :seen_status AND member_count = :seen_member_count`,
		partyUpdateRow{
			partyRow:        newPartyRow(p),
			SeenStatus:      string(seen.Status),
			SeenMemberCount: seen.MemberCount,
		})
	if err != nil {
		return translate(err)
	}
	if err := requireAffected(res); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrPartyChanged
		}
		return err
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for the members.
func (r *PartyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AddMember locks the party row so the seat check and the increment cannot interleave.
func (r *PartyRepository) AddMember(ctx context.Context, m *domain.PartyMember, at time.Time) (domain.Party, error) {
	var party domain.Party

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := lockParty(ctx, tx, m.PartyID)
		if err != nil {
			return err
		}

		if p.Status != domain.PartyStatusRecruiting {
			return domain.ErrPartyClosed
		}
		if p.IsFull() {
			return domain.ErrPartyFull
		}

		m.ID = uuid.NewString()
		if err := insertMember(ctx, tx, *m); err != nil {
			return err
		}

		p.MemberCount++
		if p.IsFull() {
			p.Status = domain.PartyStatusCompleted
		}
		p.UpdatedAt = at

		party = p
		return saveMembership(ctx, tx, p)
	})
	if err != nil {
		m.ID = ""
		return domain.Party{}, translate(err)
	}
	return party, nil
}

func (r *PartyRepository) FindMember(ctx context.Context, partyID, nickname string) (domain.PartyMember, error) {
	var row memberRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+memberColumns+` FROM party_members WHERE party_id = $1 AND nickname = $2`, partyID, nickname)
	if err != nil {
		return domain.PartyMember{}, translate(err)
	}
	return domain.PartyMember(row), nil
}

func (r *PartyRepository) RemoveMember(ctx context.Context, partyID, nickname string, at time.Time) (domain.Party, error) {
	var party domain.Party

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := lockParty(ctx, tx, partyID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM party_members WHERE party_id = $1 AND nickname = $2`, partyID, nickname)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		p.MemberCount--
		if p.Status == domain.PartyStatusCompleted {
			p.Status = domain.PartyStatusRecruiting
		}
		p.UpdatedAt = at

		party = p
		return saveMembership(ctx, tx, p)
	})
	if err != nil {
		return domain.Party{}, translate(err)
	}
	return party, nil
}

func (r *PartyRepository) Members(ctx context.Context, partyID string) ([]domain.PartyMember, error) {
	rows := make([]memberRow, 0)
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+memberColumns+` FROM party_members WHERE party_id = $1 ORDER BY joined_at ASC`, partyID)
	if err != nil {
		return nil, err
	}

	members := make([]domain.PartyMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, domain.PartyMember(row))
	}
	return members, nil
}

func lockParty(ctx context.Context, tx *sqlx.Tx, id string) (domain.Party, error) {
	var row partyRow
	if err := tx.GetContext(ctx, &row, `SELECT `+partyColumns+` FROM parties WHERE id = $1 FOR UPDATE`, id); err != nil {
		return domain.Party{}, err
	}
	return row.toDomain(), nil
}

func insertMember(ctx context.Context, tx *sqlx.Tx, m domain.PartyMember) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO party_members (id, party_id, nickname, password, is_creator, joined_at)
		VALUES (:id, :party_id, :nickname, :password, :is_creator, :joined_at)`, memberRow(m))
	return err
}

func saveMembership(ctx context.Context, tx *sqlx.Tx, p domain.Party) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE parties SET member_count = $1, status = $2, updated_at = $3 WHERE id = $4`,
		p.MemberCount, string(p.Status), p.UpdatedAt, p.ID)
	return err
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
