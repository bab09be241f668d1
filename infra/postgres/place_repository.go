package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hayoungplace/domain"
)

const placeColumns = `id, name, address, place_url, longitude, latitude, category, sub_category,
	description, image_urls, view_count, comment_count, password, created_at, updated_at`

// Haversine distance in meters from (?, ?) to the row. Binds latitude, latitude, longitude.
var distanceExpr = fmt.Sprintf(`(%f * 2 * ASIN(SQRT(
	POWER(SIN(RADIANS(latitude - ?) / 2), 2) +
	COS(RADIANS(?)) * COS(RADIANS(latitude)) * POWER(SIN(RADIANS(longitude - ?) / 2), 2))))`,
	domain.EarthRadiusMeters)

type placeRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Address      string         `db:"address"`
	PlaceURL     string         `db:"place_url"`
	Longitude    float64        `db:"longitude"`
	Latitude     float64        `db:"latitude"`
	Category     string         `db:"category"`
	SubCategory  string         `db:"sub_category"`
	Description  string         `db:"description"`
	ImageURLs    pq.StringArray `db:"image_urls"`
	ViewCount    int64          `db:"view_count"`
	CommentCount int64          `db:"comment_count"`
	Password     string         `db:"password"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newPlaceRow(p domain.Place) placeRow {
	return placeRow{
		ID:           p.ID,
		Name:         p.Name,
		Address:      p.Address,
		PlaceURL:     p.PlaceURL,
		Longitude:    p.Location.Longitude(),
		Latitude:     p.Location.Latitude(),
		Category:     string(p.Category),
		SubCategory:  string(p.SubCategory),
		Description:  p.Description,
		ImageURLs:    append(pq.StringArray{}, p.ImageURLs...),
		ViewCount:    p.ViewCount,
		CommentCount: p.CommentCount,
		Password:     p.Password,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r placeRow) toDomain() domain.Place {
	sub := domain.SubCategory(r.SubCategory)
	if sub == "" {
		sub = domain.SubCategoryNone
	}
	images := []string(r.ImageURLs)
	if images == nil {
		images = []string{}
	}
	return domain.Place{
		ID:           r.ID,
		Name:         r.Name,
		Address:      r.Address,
		Location:     domain.NewPoint(r.Longitude, r.Latitude),
		PlaceURL:     r.PlaceURL,
		Category:     domain.Category(r.Category),
		SubCategory:  sub,
		Description:  r.Description,
		ImageURLs:    images,
		ViewCount:    r.ViewCount,
		CommentCount: r.CommentCount,
		Password:     r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type PlaceRepository struct {
	db *sqlx.DB
}

func NewPlaceRepository(db *sqlx.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

func (r *PlaceRepository) Create(ctx context.Context, p *domain.Place) error {
	p.ID = uuid.NewString()

	query := `
		INSERT INTO places (
			id, name, address, place_url, longitude, latitude, category, sub_category,
			description, image_urls, view_count, comment_count, password, created_at, updated_at
		) VALUES (
			:id, :name, :address, :place_url, :longitude, :latitude, :category, :sub_category,
			:description, :image_urls, :view_count, :comment_count, :password, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, newPlaceRow(*p)); err != nil {
		p.ID = ""
		return translate(err)
	}
	return nil
}

func (r *PlaceRepository) Get(ctx context.Context, id string) (domain.Place, error) {
	var row placeRow
	query := `SELECT ` + placeColumns + ` FROM places WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return domain.Place{}, translate(err)
	}
	return row.toDomain(), nil
}

func (r *PlaceRepository) ExistsByPlaceURL(ctx context.Context, placeURL string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM places WHERE place_url = $1)`, placeURL)
	return exists, err
}

func (r *PlaceRepository) ExistsByNameAndAddress(ctx context.Context, name, address string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM places WHERE name = $1 AND address = $2)`, name, address)
	return exists, err
}

func (r *PlaceRepository) Find(ctx context.Context, q domain.PlaceQuery, page domain.PageRequest) ([]domain.Place, error) {
	where, args := placeFilter(q)

	order := "created_at DESC"
	if q.Near != nil {
		order = distanceExpr + " ASC"
		args = append(args, q.Near.Latitude, q.Near.Latitude, q.Near.Longitude)
	}
	args = append(args, page.Size, page.Offset())

	query := r.db.Rebind(`SELECT ` + placeColumns + ` FROM places` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`)

	rows := make([]placeRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(rows))
	for _, row := range rows {
		places = append(places, row.toDomain())
	}
	return places, nil
}

func (r *PlaceRepository) Count(ctx context.Context, q domain.PlaceQuery) (int64, error) {
	where, args := placeFilter(q)

	var count int64
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM places`+where), args...)
	return count, err
}

func (r *PlaceRepository) Update(ctx context.Context, p domain.Place) error {
	query := `
		UPDATE places SET
			name = :name, address = :address, place_url = :place_url,
			longitude = :longitude, latitude = :latitude,
			category = :category, sub_category = :sub_category,
			description = :description, updated_at = :updated_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, newPlaceRow(p))
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PlaceRepository) IncrementViewCount(ctx context.Context, id string) (domain.Place, error) {
	return r.updateReturning(ctx, `UPDATE places SET view_count = view_count + 1 WHERE id = $1`, id)
}

func (r *PlaceRepository) SetCommentCount(ctx context.Context, id string, count int64) (domain.Place, error) {
	return r.updateReturning(ctx, `UPDATE places SET comment_count = $2 WHERE id = $1`, id, count)
}

func (r *PlaceRepository) AddImage(ctx context.Context, id string, imageURL string) (domain.Place, error) {
	return r.updateReturning(ctx, `UPDATE places SET image_urls = array_append(image_urls, $2) WHERE id = $1`, id, imageURL)
}

func (r *PlaceRepository) updateReturning(ctx context.Context, stmt string, args ...any) (domain.Place, error) {
	var row placeRow
	if err := r.db.GetContext(ctx, &row, stmt+` RETURNING `+placeColumns, args...); err != nil {
		return domain.Place{}, translate(err)
	}
	return row.toDomain(), nil
}

// placeFilter builds a WHERE clause with ? placeholders.
func placeFilter(q domain.PlaceQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.SubCategory != "" {
		conds = append(conds, "sub_category = ?")
		args = append(args, string(q.SubCategory))
	}
	if q.Name != "" {
		conds = append(conds, "name ILIKE ?")
		args = append(args, "%"+escapeLike(q.Name)+"%")
	}
	if q.Near != nil {
		conds = append(conds, distanceExpr+" <= ?")
		args = append(args, q.Near.Latitude, q.Near.Latitude, q.Near.Longitude, q.Near.MaxDistance)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
