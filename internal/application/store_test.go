package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

func testSnapshot() domain.Snapshot {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Snapshot{
		Items: []domain.Item{
			{ID: "1", Kind: domain.KindBot, Name: "ModGuard Pro", CategoryID: "moderation", Likes: 10, Downloads: 20, Rating: 4.5, Featured: true, CreatedAt: created},
			{ID: "2", Kind: domain.KindBot, Name: "Harmony Music", CategoryID: "music", Tags: []string{"music"}, Likes: 3, Downloads: 4, Rating: 4.9, CreatedAt: created.AddDate(0, 0, 1)},
		},
		Reviews: []domain.Review{
			{ID: "r1", ItemID: "1", Author: "Discord User", Rating: 5, Comment: "Great", Status: domain.ReviewApproved, CreatedAt: created},
			{ID: "r2", ItemID: "1", Author: "ServerOwner123", Rating: 4, Comment: "Good", Status: domain.ReviewApproved, CreatedAt: created},
		},
		Categories: []domain.Category{
			{ID: "moderation", Name: "Moderation", ItemCount: 1},
			{ID: "music", Name: "Music", ItemCount: 1},
		},
		Selection: domain.NewSelection(),
	}
}

func newTestStore(policy domain.Policy) *Store {
	return NewStore(domain.NewReducer(policy), testSnapshot())
}

func TestStoreDispatchPublishesSnapshot(t *testing.T) {
	store := newTestStore(domain.Policy{StrictTransitions: true})
	before := store.State()

	next, err := store.Dispatch(context.Background(), domain.LikeItem{ItemID: "1"})
	require.NoError(t, err)

	assert.Equal(t, 11, next.Items[0].Likes)
	assert.Equal(t, 11, store.State().Items[0].Likes)
	assert.Equal(t, 10, before.Items[0].Likes, "published snapshots are immutable")
}

func TestStoreSubscribersRunInOrder(t *testing.T) {
	store := newTestStore(domain.Policy{})
	var calls []string
	store.Subscribe(func(_ context.Context, c Change) { calls = append(calls, "first:"+c.Action.Kind()) })
	unsubscribe := store.Subscribe(func(_ context.Context, c Change) { calls = append(calls, "second:"+c.Action.Kind()) })

	_, err := store.Dispatch(context.Background(), domain.ViewItem{ItemID: "2"})
	require.NoError(t, err)
	unsubscribe()
	_, err = store.Dispatch(context.Background(), domain.ViewItem{ItemID: "2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first:item.view", "second:item.view", "first:item.view"}, calls)
}

func TestStoreSubscriberSeesNewState(t *testing.T) {
	store := newTestStore(domain.Policy{})
	var seen int
	store.Subscribe(func(_ context.Context, c Change) {
		seen = store.State().Items[1].Downloads
		assert.Equal(t, c.Next.Items[1].Downloads, seen)
		assert.Equal(t, 4, c.Prev.Items[1].Downloads)
	})

	_, err := store.Dispatch(context.Background(), domain.DownloadItem{ItemID: "2"})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
}

func TestStoreDispatchHonoursCancelledContext(t *testing.T) {
	store := newTestStore(domain.Policy{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Dispatch(ctx, domain.LikeItem{ItemID: "1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, store.State().Items[0].Likes)
}

func TestStoreConcurrentDispatchesAreSerialized(t *testing.T) {
	store := newTestStore(domain.Policy{})
	const workers, perWorker = 8, 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, _ = store.Dispatch(context.Background(), domain.LikeItem{ItemID: "2"})
				_ = store.State()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3+workers*perWorker, store.State().Items[1].Likes)
}

func TestChangeChanged(t *testing.T) {
	store := newTestStore(domain.Policy{})
	var changes []bool
	store.Subscribe(func(_ context.Context, c Change) { changes = append(changes, c.Changed()) })

	ctx := context.Background()
	_, _ = store.Dispatch(ctx, domain.LikeItem{ItemID: "missing"})
	_, _ = store.Dispatch(ctx, domain.LikeItem{ItemID: "1"})
	_, _ = store.Dispatch(ctx, domain.SetSearch{Query: "music"})
	_, _ = store.Dispatch(ctx, domain.SetSearch{Query: "music"})

	assert.Equal(t, []bool{false, true, true, false}, changes)
}
