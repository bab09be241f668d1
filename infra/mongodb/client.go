package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"hayoungplace/domain"
)

const (
	placesCollection       = "places"
	commentsCollection     = "comments"
	partiesCollection      = "parties"
	partyMembersCollection = "party_members"
)

// Connect dials the cluster and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(2 * time.Minute))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	zap.L().Info("Connected to MongoDB", zap.String("database", database))

	return client, client.Database(database), nil
}

// EnsureIndexes creates the geo, uniqueness and lookup indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		placesCollection: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{
				Keys:    bson.D{{Key: "placeUrl", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("place_url_unique"),
			},
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "address", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("name_address_unique"),
			},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subCategory", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "placeId", Value: 1}, {Key: "parentId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "isDeleted", Value: 1}}},
		},
		partiesCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		partyMembersCollection: {
			{
				Keys:    bson.D{{Key: "partyId", Value: 1}, {Key: "nickname", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("party_nickname_unique"),
			},
			{Keys: bson.D{{Key: "partyId", Value: 1}, {Key: "joinedAt", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}

	return nil
}

// Backfill fills fields that documents written by older releases may lack.
func Backfill(ctx context.Context, db *mongo.Database, defaultPasswordDigest string) error {
	places := db.Collection(placesCollection)

	fills := []struct {
		field string
		value any
	}{
		{field: "viewCount", value: int64(0)},
		{field: "commentCount", value: int64(0)},
		{field: "password", value: defaultPasswordDigest},
		{field: "subCategory", value: string(domain.SubCategoryNone)},
		{field: "imageUrls", value: bson.A{}},
	}

	for _, fill := range fills {
		res, err := places.UpdateMany(ctx,
			bson.D{{Key: fill.field, Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "$set", Value: bson.D{{Key: fill.field, Value: fill.value}}}},
		)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", fill.field, err)
		}
		if res.ModifiedCount > 0 {
			zap.L().Info("Backfilled place field", zap.String("field", fill.field), zap.Int64("documents", res.ModifiedCount))
		}
	}

	return nil
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Ids that are not ObjectIDs cannot exist in the collection.
		return bson.NilObjectID, domain.ErrRecordNotFound
	}
	return oid, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
	default:
		return err
	}
}

func pageOptions(page domain.PageRequest) *options.FindOptionsBuilder {
	return options.Find().
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))
}
