package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"hayoungplace/domain"
)

type commentDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	PlaceID   string        `bson:"placeId"`
	ParentID  *string       `bson:"parentId"`
	Nickname  string        `bson:"nickname"`
	Password  string        `bson:"password"`
	Content   string        `bson:"content"`
	IsDeleted bool          `bson:"isDeleted"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d commentDocument) toDomain() domain.Comment {
	return domain.Comment{
		ID:        d.ID.Hex(),
		PlaceID:   d.PlaceID,
		ParentID:  d.ParentID,
		Nickname:  d.Nickname,
		Password:  d.Password,
		Content:   d.Content,
		IsDeleted: d.IsDeleted,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type CommentRepository struct {
	collection *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{collection: db.Collection(commentsCollection)}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	doc := commentDocument{
		ID:        bson.NewObjectID(),
		PlaceID:   c.PlaceID,
		ParentID:  c.ParentID,
		Nickname:  c.Nickname,
		Password:  c.Password,
		Content:   c.Content,
		IsDeleted: c.IsDeleted,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}

	c.ID = doc.ID.Hex()
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id string) (domain.Comment, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Comment{}, err
	}

	var doc commentDocument
	if err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return domain.Comment{}, translate(err)
	}
	return doc.toDomain(), nil
}

func rootsFilter(placeID string) bson.D {
	return bson.D{
		{Key: "placeId", Value: placeID},
		{Key: "parentId", Value: nil},
	}
}

// rootsOptions pages roots newest first.
func rootsOptions(page domain.PageRequest) *options.FindOptionsBuilder {
	return pageOptions(page).SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *CommentRepository) FindRoots(ctx context.Context, placeID string, page domain.PageRequest) ([]domain.Comment, error) {
	return r.find(ctx, rootsFilter(placeID), rootsOptions(page))
}

func (r *CommentRepository) CountRoots(ctx context.Context, placeID string) (int64, error) {
	return r.collection.CountDocuments(ctx, rootsFilter(placeID))
}

func (r *CommentRepository) FindReplies(ctx context.Context, parentIDs []string) ([]domain.Comment, error) {
	if len(parentIDs) == 0 {
		return []domain.Comment{}, nil
	}
	return r.find(ctx, repliesFilter(parentIDs), repliesOptions())
}

func repliesFilter(parentIDs []string) bson.D {
	return bson.D{
		{Key: "parentId", Value: bson.D{{Key: "$in", Value: parentIDs}}},
		{Key: "isDeleted", Value: false},
	}
}

// repliesOptions keeps replies in conversation order, oldest first.
func repliesOptions() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "isDeleted", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updatedAt", Value: at},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// SoftDelete marks the comment and, with cascade, its live replies in a single
// UpdateMany.
func (r *CommentRepository) SoftDelete(ctx context.Context, id string, cascade bool, at time.Time) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}

	n, err := r.markDeleted(ctx, softDeleteFilter(oid, cascade), at)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrRecordNotFound
	}
	return n, nil
}

// softDeleteFilter matches the live comment and, with cascade, its live
// replies. Replies reference their parent by hex id.
func softDeleteFilter(oid bson.ObjectID, cascade bool) bson.D {
	if !cascade {
		return bson.D{
			{Key: "_id", Value: oid},
			{Key: "isDeleted", Value: false},
		}
	}
	return bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "_id", Value: oid}},
			bson.D{{Key: "parentId", Value: oid.Hex()}},
		}},
		{Key: "isDeleted", Value: false},
	}
}

func (r *CommentRepository) SoftDeleteByPlace(ctx context.Context, placeID string, at time.Time) (int64, error) {
	return r.markDeleted(ctx, bson.D{
		{Key: "placeId", Value: placeID},
		{Key: "isDeleted", Value: false},
	}, at)
}

func (r *CommentRepository) CountActive(ctx context.Context, placeID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.D{
		{Key: "placeId", Value: placeID},
		{Key: "isDeleted", Value: false},
	})
}

func (r *CommentRepository) markDeleted(ctx context.Context, filter bson.D, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "isDeleted", Value: true},
		{Key: "updatedAt", Value: at},
	}}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *CommentRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]domain.Comment, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	docs := make([]commentDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, doc.toDomain())
	}
	return comments, nil
}
