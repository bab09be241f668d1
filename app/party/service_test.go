package party_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayoungplace/app/party"
	"hayoungplace/domain"
	"hayoungplace/internal/testutil"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/secret"
)

type fixture struct {
	service   *party.Service
	publisher *testutil.Publisher
	clock     *testutil.Clock
}

func newFixture() *fixture {
	f := &fixture{
		publisher: &testutil.Publisher{},
		clock:     testutil.NewClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)),
	}
	f.service = party.NewService(testutil.NewPartyStore(), secret.SHA256Gate{},
		party.WithPublisher(f.publisher, "test"),
		party.WithClock(f.clock.Now),
	)
	return f
}

func (f *fixture) create(t *testing.T, maxMembers *int) party.View {
	t.Helper()
	v, err := f.service.Create(context.Background(), party.CreateInput{
		Title:      "Board games",
		Location:   "Hongdae",
		Date:       time.Date(2026, 4, 4, 18, 0, 0, 0, time.UTC),
		MaxMembers: maxMembers,
		Tags:       []string{" games ", ""},
		Nickname:   "host",
		Password:   "pw",
	})
	require.NoError(t, err)
	return v
}

func intPtr(v int) *int { return &v }

func TestCreate(t *testing.T) {
	f := newFixture()

	v := f.create(t, intPtr(3))
	assert.Equal(t, domain.PartyStatusRecruiting, v.Status)
	assert.Equal(t, 1, v.MemberCount)
	assert.Equal(t, []string{"games"}, v.Tags)
	assert.EqualValues(t, 3, v.DDay)

	members, err := f.service.Members(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.True(t, members[0].IsCreator)

	solo := f.create(t, intPtr(1))
	assert.Equal(t, domain.PartyStatusCompleted, solo.Status)

	_, err = f.service.Create(context.Background(), party.CreateInput{Title: "x", Password: "pw", MaxMembers: intPtr(0)})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestJoin_FillsAndCloses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.create(t, intPtr(2))

	member, err := f.service.Join(ctx, v.ID, "guest", "g")
	require.NoError(t, err)
	assert.False(t, member.IsCreator)

	got, err := f.service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
	assert.Equal(t, domain.PartyStatusCompleted, got.Status)

	_, err = f.service.Join(ctx, v.ID, "late", "l")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = f.service.Join(ctx, "missing", "late", "l")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	assert.NotNil(t, f.publisher.Last(events.PartyMemberJoinedEvent))
}

func TestJoin_DuplicateNickname(t *testing.T) {
	f := newFixture()
	v := f.create(t, nil)

	_, err := f.service.Join(context.Background(), v.ID, "host", "x")
	assert.True(t, domain.IsKind(err, domain.KindDuplicate))
}

func TestJoin_ConcurrentJoinsNeverOverfill(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.create(t, intPtr(3))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Join(ctx, v.ID, string(rune('a'+i)), "pw")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	joined := 0
	for err := range results {
		if err == nil {
			joined++
		}
	}
	assert.Equal(t, 2, joined)

	got, err := f.service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MemberCount)
}

func TestLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.create(t, intPtr(2))

	_, err := f.service.Join(ctx, v.ID, "guest", "g")
	require.NoError(t, err)

	assert.True(t, domain.IsKind(f.service.Leave(ctx, v.ID, "guest", "wrong"), domain.KindInvalidPassword))
	assert.True(t, domain.IsKind(f.service.Leave(ctx, v.ID, "host", "pw"), domain.KindValidation))
	assert.True(t, domain.IsKind(f.service.Leave(ctx, v.ID, "ghost", "pw"), domain.KindNotFound))

	require.NoError(t, f.service.Leave(ctx, v.ID, "guest", "g"))

	got, err := f.service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)
	assert.Equal(t, domain.PartyStatusRecruiting, got.Status)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.create(t, intPtr(4))

	_, err := f.service.Join(ctx, v.ID, "guest", "g")
	require.NoError(t, err)

	in := party.UpdateInput{Title: "Renamed", Location: "Sinchon", Date: v.Date, MaxMembers: intPtr(1)}

	_, err = f.service.Update(ctx, v.ID, in, "wrong")
	assert.True(t, domain.IsKind(err, domain.KindInvalidPassword))

	_, err = f.service.Update(ctx, v.ID, in, "pw")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	in.MaxMembers = intPtr(5)
	completed := domain.PartyStatusCompleted
	in.Status = &completed
	got, err := f.service.Update(ctx, v.ID, in, "pw")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, domain.PartyStatusCompleted, got.Status)
	assert.Equal(t, 2, got.MemberCount)

	assert.True(t, domain.IsKind(f.service.Delete(ctx, v.ID, "wrong"), domain.KindInvalidPassword))
	require.NoError(t, f.service.Delete(ctx, v.ID, "pw"))

	_, err = f.service.Get(ctx, v.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.service.Members(ctx, v.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

// interleavedStore runs beforeUpdate ahead of the next Update, once.
type interleavedStore struct {
	*testutil.PartyStore
	beforeUpdate func()
}

func (s *interleavedStore) Update(ctx context.Context, p domain.Party, seen domain.Party) error {
	if hook := s.beforeUpdate; hook != nil {
		s.beforeUpdate = nil
		hook()
	}
	return s.PartyStore.Update(ctx, p, seen)
}

func newInterleaved(t *testing.T, maxMembers *int) (*party.Service, *interleavedStore, party.View) {
	t.Helper()
	store := &interleavedStore{PartyStore: testutil.NewPartyStore()}
	service := party.NewService(store, secret.SHA256Gate{})
	v, err := service.Create(context.Background(), party.CreateInput{
		Title:      "Hike",
		Location:   "Bukhansan",
		Date:       time.Now().Add(48 * time.Hour),
		MaxMembers: maxMembers,
		Nickname:   "host",
		Password:   "pw",
	})
	require.NoError(t, err)
	return service, store, v
}

func TestUpdate_KeepsStatusSetByConcurrentJoin(t *testing.T) {
	service, store, v := newInterleaved(t, intPtr(2))
	ctx := context.Background()

	store.beforeUpdate = func() {
		_, err := service.Join(ctx, v.ID, "kim", "k")
		require.NoError(t, err)
	}

	got, err := service.Update(ctx, v.ID, party.UpdateInput{Title: "Night hike", Location: "Bukhansan", Date: v.Date, MaxMembers: intPtr(2)}, "pw")
	require.NoError(t, err)
	assert.Equal(t, "Night hike", got.Title)
	assert.Equal(t, domain.PartyStatusCompleted, got.Status)
	assert.Equal(t, 2, got.MemberCount)

	stored, err := service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PartyStatusCompleted, stored.Status)
	assert.Equal(t, "Night hike", stored.Title)
}

func TestUpdate_RechecksMaxMembersAfterConcurrentJoin(t *testing.T) {
	service, store, v := newInterleaved(t, intPtr(3))
	ctx := context.Background()

	store.beforeUpdate = func() {
		_, err := service.Join(ctx, v.ID, "kim", "k")
		require.NoError(t, err)
	}

	_, err := service.Update(ctx, v.ID, party.UpdateInput{Title: "Small", Location: "Bukhansan", Date: v.Date, MaxMembers: intPtr(1)}, "pw")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	stored, err := service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hike", stored.Title)
	assert.Equal(t, 2, stored.MemberCount)
}

func TestUpdate_DeletedMidway(t *testing.T) {
	service, store, v := newInterleaved(t, nil)
	ctx := context.Background()

	store.beforeUpdate = func() {
		require.NoError(t, service.Delete(ctx, v.ID, "pw"))
	}

	_, err := service.Update(ctx, v.ID, party.UpdateInput{Title: "Gone", Location: "x", Date: v.Date}, "pw")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		f.clock.Advance(time.Minute)
		f.create(t, nil)
	}

	page, err := f.service.List(ctx, domain.NewPageRequest(1, 0, party.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 7, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Content, 2)
}
