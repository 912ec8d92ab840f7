package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	"github.com/MFAIZAN20/dreamcanvas/internal/pool"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	p, err := pool.Open(pool.Options{MaxConns: 4, AcquireTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	s := New(p, opts...)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestInsertThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d, err := s.Insert(ctx, NewDream{Title: "Flying", Description: "over the sea", Tags: "sky,sea", CreatedAt: created})
	require.NoError(t, err)
	assert.Positive(t, d.ID)
	assert.Equal(t, DefaultUserID, d.UserID)
	assert.Equal(t, 0, d.Likes)
	assert.True(t, d.CreatedAt.Equal(created), "created_at %v", d.CreatedAt)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 999)
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Insert(ctx, NewDream{Title: "t", Description: "d", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	// Same timestamp as the newest: the higher id wins the tie.
	tie, err := s.Insert(ctx, NewDream{Title: "tie", Description: "d", CreatedAt: base.Add(4 * time.Minute)})
	require.NoError(t, err)

	got, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, tie.ID, got[0].ID)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.List(context.Background(), 20)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, NewDream{UserID: 7, Title: "a", Description: "d"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, NewDream{UserID: 8, Title: "b", Description: "d"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, NewDream{UserID: 7, Title: "c", Description: "d"})
	require.NoError(t, err)

	got, err := s.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, int64(7), d.UserID)
	}

	none, err := s.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIncrementLikes(t *testing.T) {
	s := newTestStore(t, WithConflictRetries(20))
	ctx := context.Background()
	d, err := s.Insert(ctx, NewDream{Title: "t", Description: "d"})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementLikes(ctx, d.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)

	likes, err := s.IncrementLikes(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, n+1, likes)
}

func TestIncrementLikesSequential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d, err := s.Insert(ctx, NewDream{Title: "t", Description: "d"})
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		likes, err := s.IncrementLikes(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, want, likes)
	}
	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Likes)
}

func TestIncrementLikesConcurrentDefaultRetries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d, err := s.Insert(ctx, NewDream{Title: "t", Description: "d"})
	require.NoError(t, err)
	other, err := s.Insert(ctx, NewDream{Title: "o", Description: "d"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	counts := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			likes, err := s.IncrementLikes(ctx, d.ID)
			assert.NoError(t, err)
			counts <- likes
		}()
	}
	wg.Wait()
	close(counts)

	seen := map[int]bool{}
	for c := range counts {
		seen[c] = true
	}
	assert.Len(t, seen, n, "every increment returns a distinct count")

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)

	untouched, err := s.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, untouched.Likes)
}

func TestIncrementLikesMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.IncrementLikes(context.Background(), 12345)
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestClosedPoolIsStorageFailure(t *testing.T) {
	p, err := pool.Open(pool.Options{MaxConns: 1})
	require.NoError(t, err)
	s := New(p)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, p.Close())

	_, err = s.IncrementLikes(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apierr.ErrNotFound)
}
