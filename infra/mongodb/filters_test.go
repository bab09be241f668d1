package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"hayoungplace/domain"
)

func lookup(t *testing.T, d bson.D, key string) any {
	t.Helper()
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("key %q not found in %v", key, d)
	return nil
}

func TestAttributeFilter(t *testing.T) {
	filter := attributeFilter(domain.PlaceQuery{
		Category:    domain.CategoryCafe,
		SubCategory: domain.SubCategoryBakery,
		Name:        "a.b(c)",
	})

	assert.Equal(t, "CAFE", lookup(t, filter, "category"))
	assert.Equal(t, "BAKERY", lookup(t, filter, "subCategory"))
	assert.Equal(t, bson.Regex{Pattern: `a\.b\(c\)`, Options: "i"}, lookup(t, filter, "name"))

	assert.Empty(t, attributeFilter(domain.PlaceQuery{}))
}

func TestGeoFilters(t *testing.T) {
	q := domain.PlaceQuery{Near: &domain.GeoQuery{Longitude: 127.0, Latitude: 37.5, MaxDistance: 2000}}

	near := lookup(t, findFilter(q), "location").(bson.D)
	require.Equal(t, "$near", near[0].Key)
	nearSpec := near[0].Value.(bson.D)
	assert.Equal(t, 2000.0, lookup(t, nearSpec, "$maxDistance"))
	geometry := lookup(t, nearSpec, "$geometry").(bson.D)
	assert.Equal(t, bson.A{127.0, 37.5}, lookup(t, geometry, "coordinates"))

	within := lookup(t, countFilter(q), "location").(bson.D)
	require.Equal(t, "$geoWithin", within[0].Key)
	sphere := lookup(t, within[0].Value.(bson.D), "$centerSphere").(bson.A)
	assert.Equal(t, bson.A{127.0, 37.5}, sphere[0])
	assert.InDelta(t, 2000/domain.EarthRadiusMeters, sphere[1], 1e-12)
}

func TestPlaceDocumentRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	place := domain.Place{
		Name:        "Gallery",
		Address:     "Jongno",
		Location:    domain.NewPoint(126.98, 37.57),
		PlaceURL:    "https://map/g",
		Category:    domain.CategoryGallery,
		SubCategory: domain.SubCategoryMuseum,
		Password:    "digest",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doc := newPlaceDocument(place)
	assert.NotNil(t, doc.ImageURLs)

	doc.ID = bson.NewObjectID()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded placeDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := decoded.toDomain()
	assert.Equal(t, doc.ID.Hex(), got.ID)
	assert.Equal(t, "Point", got.Location.Type)
	assert.Equal(t, 126.98, got.Location.Longitude())
	assert.Equal(t, domain.SubCategoryMuseum, got.SubCategory)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestLegacyPlaceDocumentDefaults(t *testing.T) {
	got := placeDocument{ID: bson.NewObjectID()}.toDomain()

	assert.Equal(t, domain.SubCategoryNone, got.SubCategory)
	assert.Equal(t, []string{}, got.ImageURLs)
}

func TestObjectIDRejectsForeignIDs(t *testing.T) {
	_, err := objectID("not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	oid := bson.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}

func TestSeatPipelines(t *testing.T) {
	at := time.Now()

	reserve := reserveSeatPipeline(at)
	require.Len(t, reserve, 2)
	assert.Equal(t, "$set", reserve[0][0].Key)

	release := releaseSeatPipeline(at)
	require.Len(t, release, 1)
	status := lookup(t, release[0][0].Value.(bson.D), "status").(bson.D)
	cond := status[0].Value.(bson.A)
	assert.Equal(t, "RECRUITING", cond[1])

	filter := seatAvailableFilter(bson.NewObjectID())
	assert.Equal(t, "RECRUITING", lookup(t, filter, "status"))
}

func applyFind(t *testing.T, b *options.FindOptionsBuilder) options.FindOptions {
	t.Helper()
	var opts options.FindOptions
	for _, set := range b.Opts {
		require.NoError(t, set(&opts))
	}
	return opts
}

func TestSoftDeleteFilter(t *testing.T) {
	oid := bson.NewObjectID()

	single := softDeleteFilter(oid, false)
	assert.Equal(t, oid, lookup(t, single, "_id"))
	assert.Equal(t, false, lookup(t, single, "isDeleted"))

	cascade := softDeleteFilter(oid, true)
	require.Len(t, cascade, 2)
	assert.Equal(t, false, lookup(t, cascade, "isDeleted"))
	branches := lookup(t, cascade, "$or").(bson.A)
	require.Len(t, branches, 2)
	assert.Equal(t, oid, lookup(t, branches[0].(bson.D), "_id"))
	assert.Equal(t, oid.Hex(), lookup(t, branches[1].(bson.D), "parentId"))
}

func TestCommentListingQueries(t *testing.T) {
	roots := rootsFilter("p1")
	assert.Equal(t, "p1", lookup(t, roots, "placeId"))
	assert.Nil(t, lookup(t, roots, "parentId"))

	rootOpts := applyFind(t, rootsOptions(domain.NewPageRequest(2, 5, 5)))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, rootOpts.Sort)
	require.NotNil(t, rootOpts.Skip)
	assert.EqualValues(t, 10, *rootOpts.Skip)
	assert.EqualValues(t, 5, *rootOpts.Limit)

	replies := repliesFilter([]string{"a", "b"})
	in := lookup(t, replies, "parentId").(bson.D)
	assert.Equal(t, bson.D{{Key: "$in", Value: []string{"a", "b"}}}, in)
	assert.Equal(t, false, lookup(t, replies, "isDeleted"))

	replyOpts := applyFind(t, repliesOptions())
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, replyOpts.Sort)
	assert.Nil(t, replyOpts.Limit)
}

func TestUnchangedPartyFilter(t *testing.T) {
	oid := bson.NewObjectID()
	filter := unchangedPartyFilter(oid, domain.Party{Status: domain.PartyStatusCompleted, MemberCount: 4})

	assert.Equal(t, oid, lookup(t, filter, "_id"))
	assert.Equal(t, "COMPLETED", lookup(t, filter, "status"))
	assert.Equal(t, 4, lookup(t, filter, "memberCount"))
}
