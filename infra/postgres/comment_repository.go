package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hayoungplace/domain"
)

const commentColumns = `id, place_id, parent_id, nickname, password, content, is_deleted, created_at, updated_at`

type commentRow struct {
	ID        string    `db:"id"`
	PlaceID   string    `db:"place_id"`
	ParentID  *string   `db:"parent_id"`
	Nickname  string    `db:"nickname"`
	Password  string    `db:"password"`
	Content   string    `db:"content"`
	IsDeleted bool      `db:"is_deleted"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r commentRow) toDomain() domain.Comment {
	return domain.Comment(r)
}

type CommentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	c.ID = uuid.NewString()

	query := `
		INSERT INTO comments (
			id, place_id, parent_id, nickname, password, content, is_deleted, created_at, updated_at
		) VALUES (
			:id, :place_id, :parent_id, :nickname, :password, :content, :is_deleted, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, commentRow(*c)); err != nil {
		c.ID = ""
		return translate(err)
	}
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id string) (domain.Comment, error) {
	var row commentRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id); err != nil {
		return domain.Comment{}, translate(err)
	}
	return row.toDomain(), nil
}

func (r *CommentRepository) FindRoots(ctx context.Context, placeID string, page domain.PageRequest) ([]domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + ` FROM comments
		WHERE place_id = $1 AND parent_id IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.selectComments(ctx, query, placeID, page.Size, page.Offset())
}

func (r *CommentRepository) CountRoots(ctx context.Context, placeID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM comments WHERE place_id = $1 AND parent_id IS NULL`, placeID)
	return count, err
}

func (r *CommentRepository) FindReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error) {
	if len(parentIDs) == 0 {
		return []domain.Comment{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+commentColumns+` FROM comments
		WHERE parent_id IN (?) AND is_deleted = FALSE
		ORDER BY created_at ASC`, parentIDs)
	if err != nil {
		return nil, err
	}

	return r.selectComments(ctx, r.db.Rebind(query), args...)
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3 AND is_deleted = FALSE`,
		content, at, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SoftDelete marks the comment and, with cascade, its live replies in one statement.
func (r *CommentRepository) SoftDelete(ctx context.Context, id string, cascade bool, at time.Time) (int64, error) {
	query := `UPDATE comments SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`
	if cascade {
		query = `UPDATE comments SET is_deleted = TRUE, updated_at = $1 WHERE (id = $2 OR parent_id = $2) AND is_deleted = FALSE`
	}

	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrRecordNotFound
	}
	return n, nil
}

func (r *CommentRepository) SoftDeleteByPlace(ctx context.Context, placeID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE, updated_at = $1 WHERE place_id = $2 AND is_deleted = FALSE`,
		at, placeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CommentRepository) CountActive(ctx context.Context, placeID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM comments WHERE place_id = $1 AND is_deleted = FALSE`, placeID)
	return count, err
}

func (r *CommentRepository) selectComments(ctx context.Context, query string, args ...any) ([]domain.Comment, error) {
	rows := make([]commentRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toDomain())
	}
	return comments, nil
}
