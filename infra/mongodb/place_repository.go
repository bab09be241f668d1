package mongodb

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"hayoungplace/domain"
)

type placeDocument struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	Name         string          `bson:"name"`
	Address      string          `bson:"address"`
	Location     domain.Location `bson:"location"`
	PlaceURL     string          `bson:"placeUrl"`
	Category     string          `bson:"category"`
	SubCategory  string          `bson:"subCategory"`
	Description  string          `bson:"description"`
	ImageURLs    []string        `bson:"imageUrls"`
	ViewCount    int64           `bson:"viewCount"`
	CommentCount int64           `bson:"commentCount"`
	Password     string          `bson:"password"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

func newPlaceDocument(p domain.Place) placeDocument {
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return placeDocument{
		Name:         p.Name,
		Address:      p.Address,
		Location:     p.Location,
		PlaceURL:     p.PlaceURL,
		Category:     string(p.Category),
		SubCategory:  string(p.SubCategory),
		Description:  p.Description,
		ImageURLs:    images,
		ViewCount:    p.ViewCount,
		CommentCount: p.CommentCount,
		Password:     p.Password,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d placeDocument) toDomain() domain.Place {
	sub := domain.SubCategory(d.SubCategory)
	if sub == "" {
		sub = domain.SubCategoryNone
	}
	images := d.ImageURLs
	if images == nil {
		images = []string{}
	}
	return domain.Place{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Address:      d.Address,
		Location:     d.Location,
		PlaceURL:     d.PlaceURL,
		Category:     domain.Category(d.Category),
		SubCategory:  sub,
		Description:  d.Description,
		ImageURLs:    images,
		ViewCount:    d.ViewCount,
		CommentCount: d.CommentCount,
		Password:     d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type PlaceRepository struct {
	collection *mongo.Collection
}

func NewPlaceRepository(db *mongo.Database) *PlaceRepository {
	return &PlaceRepository{collection: db.Collection(placesCollection)}
}

func (r *PlaceRepository) Create(ctx context.Context, p *domain.Place) error {
	doc := newPlaceDocument(*p)
	doc.ID = bson.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}

	p.ID = doc.ID.Hex()
	return nil
}

func (r *PlaceRepository) Get(ctx context.Context, id string) (domain.Place, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Place{}, err
	}

	var doc placeDocument
	if err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return domain.Place{}, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *PlaceRepository) ExistsByPlaceURL(ctx context.Context, placeURL string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "placeUrl", Value: placeURL}})
}

func (r *PlaceRepository) ExistsByNameAndAddress(ctx context.Context, name, address string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "name", Value: name}, {Key: "address", Value: address}})
}

func (r *PlaceRepository) exists(ctx context.Context, filter bson.D) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Find pages through matching places. Nearby queries come back closest first,
// everything else newest first.
func (r *PlaceRepository) Find(ctx context.Context, q domain.PlaceQuery, page domain.PageRequest) ([]domain.Place, error) {
	opts := pageOptions(page)
	if q.Near == nil {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, findFilter(q), opts)
	if err != nil {
		return nil, err
	}

	docs := make([]placeDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(docs))
	for _, doc := range docs {
		places = append(places, doc.toDomain())
	}
	return places, nil
}

func (r *PlaceRepository) Count(ctx context.Context, q domain.PlaceQuery) (int64, error) {
	return r.collection.CountDocuments(ctx, countFilter(q))
}

func (r *PlaceRepository) Update(ctx context.Context, p domain.Place) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: p.Name},
			{Key: "address", Value: p.Address},
			{Key: "placeUrl", Value: p.PlaceURL},
			{Key: "location", Value: p.Location},
			{Key: "category", Value: string(p.Category)},
			{Key: "subCategory", Value: string(p.SubCategory)},
			{Key: "description", Value: p.Description},
			{Key: "updatedAt", Value: p.UpdatedAt},
		}}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PlaceRepository) IncrementViewCount(ctx context.Context, id string) (domain.Place, error) {
	return r.findAndUpdate(ctx, id, bson.D{{Key: "$inc", Value: bson.D{{Key: "viewCount", Value: 1}}}})
}

func (r *PlaceRepository) SetCommentCount(ctx context.Context, id string, count int64) (domain.Place, error) {
	return r.findAndUpdate(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "commentCount", Value: count}}}})
}

func (r *PlaceRepository) AddImage(ctx context.Context, id string, imageURL string) (domain.Place, error) {
	return r.findAndUpdate(ctx, id, bson.D{{Key: "$push", Value: bson.D{{Key: "imageUrls", Value: imageURL}}}})
}

func (r *PlaceRepository) findAndUpdate(ctx context.Context, id string, update bson.D) (domain.Place, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Place{}, err
	}

	var doc placeDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return domain.Place{}, translate(err)
	}
	return doc.toDomain(), nil
}

func attributeFilter(q domain.PlaceQuery) bson.D {
	filter := bson.D{}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: string(q.Category)})
	}
	if q.SubCategory != "" {
		filter = append(filter, bson.E{Key: "subCategory", Value: string(q.SubCategory)})
	}
	if q.Name != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.Regex{
			Pattern: regexp.QuoteMeta(q.Name),
			Options: "i",
		}})
	}
	return filter
}

// findFilter uses $near, which sorts by distance but is rejected by count.
func findFilter(q domain.PlaceQuery) bson.D {
	filter := attributeFilter(q)
	if q.Near != nil {
		filter = append(filter, bson.E{Key: "location", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: bson.D{
					{Key: "type", Value: "Point"},
					{Key: "coordinates", Value: bson.A{q.Near.Longitude, q.Near.Latitude}},
				}},
				{Key: "$maxDistance", Value: q.Near.MaxDistance},
			}},
		}})
	}
	return filter
}

// countFilter selects the same places as findFilter with $geoWithin, whose
// radius is given in radians.
func countFilter(q domain.PlaceQuery) bson.D {
	filter := attributeFilter(q)
	if q.Near != nil {
		filter = append(filter, bson.E{Key: "location", Value: bson.D{
			{Key: "$geoWithin", Value: bson.D{
				{Key: "$centerSphere", Value: bson.A{
					bson.A{q.Near.Longitude, q.Near.Latitude},
					q.Near.MaxDistance / domain.EarthRadiusMeters,
				}},
			}},
		}})
	}
	return filter
}
