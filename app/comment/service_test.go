package comment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayoungplace/app/comment"
	"hayoungplace/app/place"
	"hayoungplace/domain"
	"hayoungplace/internal/testutil"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/secret"
)

type fixture struct {
	service   *comment.Service
	places    *place.Service
	store     *testutil.CommentStore
	publisher *testutil.Publisher
	clock     *testutil.Clock
	placeID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gate := secret.SHA256Gate{}
	f := &fixture{
		store:     testutil.NewCommentStore(),
		publisher: &testutil.Publisher{},
		clock:     testutil.NewClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)),
	}
	f.places = place.NewService(testutil.NewPlaceStore(), gate, place.WithThreadCleaner(f.store))
	f.service = comment.NewService(f.store, f.places, gate,
		comment.WithPublisher(f.publisher, "test"),
		comment.WithClock(f.clock.Now),
	)

	p, err := f.places.Create(context.Background(), place.CreateInput{
		Name: "Onion", Address: "Seongsu", PlaceURL: "https://map/onion",
		Longitude: 127.05, Latitude: 37.54, Category: "CAFE", Password: "1234",
	})
	require.NoError(t, err)
	f.placeID = p.ID
	return f
}

func (f *fixture) create(t *testing.T, parentID *string, content string) comment.View {
	t.Helper()
	f.clock.Advance(time.Second)
	v, err := f.service.Create(context.Background(), f.placeID, comment.CreateInput{
		ParentID: parentID,
		Nickname: "kim",
		Password: "pw",
		Content:  content,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) commentCount(t *testing.T) int64 {
	t.Helper()
	p, err := f.places.GetPlace(context.Background(), f.placeID)
	require.NoError(t, err)
	return p.CommentCount
}

func TestCreate_KeepsCommentCountInSync(t *testing.T) {
	f := newFixture(t)

	root := f.create(t, nil, "first")
	assert.Nil(t, root.ParentID)
	assert.Equal(t, int64(1), f.commentCount(t))

	reply := f.create(t, &root.ID, "reply")
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, int64(2), f.commentCount(t))

	assert.Equal(t, []string{events.CommentCreatedEvent, events.CommentCreatedEvent}, f.publisher.Names())
}

func TestCreate_EmptyParentIsRoot(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, new(string), "root")
	assert.Nil(t, v.ParentID)
}

func TestCreate_ReplyRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.create(t, nil, "root")
	reply := f.create(t, &root.ID, "reply")
	gone := f.create(t, nil, "gone")
	require.NoError(t, f.service.Delete(ctx, f.placeID, gone.ID, "pw"))

	other, err := f.places.Create(ctx, place.CreateInput{
		Name: "Other", Address: "Elsewhere", PlaceURL: "https://map/other",
		Longitude: 127, Latitude: 37, Category: "CAFE", Password: "1234",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		placeID string
		parent  string
	}{
		{name: "reply to a reply", placeID: f.placeID, parent: reply.ID},
		{name: "missing parent", placeID: f.placeID, parent: "nope"},
		{name: "deleted parent", placeID: f.placeID, parent: gone.ID},
		{name: "parent of another place", placeID: other.ID, parent: root.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, tt.placeID, comment.CreateInput{
				ParentID: &tt.parent, Nickname: "lee", Password: "pw", Content: "x",
			})
			assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
		})
	}
}

func TestCreate_MissingPlace(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "missing", comment.CreateInput{Nickname: "kim", Password: "pw", Content: "hi"})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestDelete_RootCascadesToReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.create(t, nil, "root")
	f.create(t, &root.ID, "r1")
	f.create(t, &root.ID, "r2")
	f.create(t, nil, "other root")
	require.Equal(t, int64(4), f.commentCount(t))

	require.NoError(t, f.service.Delete(ctx, f.placeID, root.ID, "pw"))
	assert.Equal(t, int64(1), f.commentCount(t))

	deleted := f.publisher.Last(events.CommentDeletedEvent)
	require.NotNil(t, deleted)
	var payload events.CommentPayload
	require.NoError(t, deleted.Decode(&payload))
	assert.EqualValues(t, 3, payload.Affected)

	page, err := f.service.List(ctx, f.placeID, domain.NewPageRequest(0, 0, comment.DefaultPageSize))
	require.NoError(t, err)
	require.Len(t, page.Content, 2)

	dead := page.Content[1]
	assert.Equal(t, root.ID, dead.ID)
	assert.True(t, dead.IsDeleted)
	assert.Equal(t, domain.DeletedCommentContent, dead.Content)
	assert.Empty(t, dead.Replies)
}

func TestDelete_ReplyOnlyRemovesItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.create(t, nil, "root")
	reply := f.create(t, &root.ID, "r1")
	f.create(t, &root.ID, "r2")

	require.NoError(t, f.service.Delete(ctx, f.placeID, reply.ID, "pw"))
	assert.Equal(t, int64(2), f.commentCount(t))

	err := f.service.Delete(ctx, f.placeID, reply.ID, "pw")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestMutations_RequirePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.create(t, nil, "original")

	_, err := f.service.Update(ctx, f.placeID, root.ID, "wrong", "changed")
	assert.True(t, domain.IsKind(err, domain.KindInvalidPassword))

	err = f.service.Delete(ctx, f.placeID, root.ID, "wrong")
	assert.True(t, domain.IsKind(err, domain.KindInvalidPassword))

	stored, err := f.store.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content)
	assert.False(t, stored.IsDeleted)

	_, err = f.service.Update(ctx, "another-place", root.ID, "pw", "changed")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	f.clock.Advance(time.Minute)
	updated, err := f.service.Update(ctx, f.placeID, root.ID, "pw", "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Content)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestList_OrdersRootsAndReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := f.create(t, nil, "older")
	newer := f.create(t, nil, "newer")
	first := f.create(t, &older.ID, "first reply")
	second := f.create(t, &older.ID, "second reply")

	page, err := f.service.List(ctx, f.placeID, domain.NewPageRequest(0, 0, comment.DefaultPageSize))
	require.NoError(t, err)

	assert.EqualValues(t, 2, page.TotalElements)
	assert.Equal(t, comment.DefaultPageSize, page.Size)
	require.Len(t, page.Content, 2)
	assert.Equal(t, newer.ID, page.Content[0].ID)
	assert.Empty(t, page.Content[0].Replies)

	replies := page.Content[1].Replies
	require.Len(t, replies, 2)
	assert.Equal(t, first.ID, replies[0].ID)
	assert.Equal(t, second.ID, replies[1].ID)

	count, err := f.service.Count(ctx, f.placeID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestRecountAndPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, nil, "a")
	f.create(t, nil, "b")

	_, err := f.places.UpdateCommentCount(ctx, f.placeID, 99)
	require.NoError(t, err)

	n, err := f.service.Recount(ctx, f.placeID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, int64(2), f.commentCount(t))

	purged, err := f.service.PurgePlace(ctx, f.placeID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	_, err = f.service.Recount(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
