package ingestsvc

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/journal"
	"github.com/MFAIZAN20/dreamcanvas/internal/pool"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	"github.com/MFAIZAN20/dreamcanvas/internal/store"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// slowRepo delays inserts and can fail them, delegating everything else.
type slowRepo struct {
	store.Repository
	delay   time.Duration
	err     error
	inserts atomic.Int32
}

func (r *slowRepo) Insert(ctx context.Context, d store.NewDream) (store.Dream, error) {
	r.inserts.Add(1)
	time.Sleep(r.delay)
	if r.err != nil {
		return store.Dream{}, r.err
	}
	return r.Repository.Insert(ctx, d)
}

func newMemStore(t *testing.T) *store.Store {
	t.Helper()
	p, err := pool.Open(pool.Options{MaxConns: 4, AcquireTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	s := store.New(p)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestService(t *testing.T, repo store.Repository, deadline time.Duration) (*Service, *runtime.Runtime, *journal.Journal) {
	t.Helper()
	j, err := journal.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	cfg := cfgpkg.Default()
	cfg.Ingest.WriteDeadline = cfgpkg.Duration(deadline)
	rt := runtime.New(cfg, repo, j, nil)
	return New(rt), rt, j
}

func TestSubmitFastStoreIsCanonical(t *testing.T) {
	repo := newMemStore(t)
	svc, _, _ := newTestService(t, repo, time.Second)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, SubmitRequest{Title: "Flying", Description: "over Tokyo", Tags: "sky"})
	require.NoError(t, err)
	assert.False(t, sub.Provisional)
	assert.Equal(t, MessageStored, sub.Message)
	assert.Equal(t, StatusReceived, sub.Status)
	assert.Regexp(t, `^\d+ms$`, sub.ResponseTime)

	got, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flying", got.Title)
	assert.Equal(t, "over Tokyo", got.Description)
	assert.Equal(t, "sky", got.Tags)
	assert.Equal(t, sub.Timestamp, got.CreatedAt.UTC().Format(time.RFC3339Nano))
}

func TestSubmitSlowStoreIsProvisionalThenLands(t *testing.T) {
	repo := &slowRepo{Repository: newMemStore(t), delay: 150 * time.Millisecond}
	svc, rt, _ := newTestService(t, repo, 40*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	sub, err := svc.Submit(ctx, SubmitRequest{Title: "Library", Description: "of whispers"})
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.True(t, sub.Provisional)
	assert.Equal(t, MessageBackground, sub.Message)
	assert.Less(t, elapsed, 120*time.Millisecond, "response must not wait for the store")
	assert.Greater(t, sub.ID, int64(1_000_000_000_000), "provisional ids live in the millisecond space")

	require.NoError(t, rt.Detached().Wait(ctx))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Library", list[0].Title)
	assert.NotEqual(t, sub.ID, list[0].ID)
}

func TestSubmitValidationSkipsStorage(t *testing.T) {
	repo := &slowRepo{Repository: newMemStore(t)}
	svc, _, _ := newTestService(t, repo, time.Second)

	for _, req := range []SubmitRequest{
		{Title: "", Description: "x"},
		{Title: "x", Description: "   "},
		{},
	} {
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apierr.IsClientError(err))
		assert.Contains(t, err.Error(), "Title and description are required")
	}
	assert.Equal(t, int32(0), repo.inserts.Load())
}

func TestSubmitFastFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	repo := &slowRepo{Repository: newMemStore(t), err: boom}
	svc, _, j := newTestService(t, repo, time.Second)

	_, err := svc.Submit(context.Background(), SubmitRequest{Title: "t", Description: "d"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 500, apierr.Status(err))

	n, err := j.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a failure the caller saw is not journaled")
}

func TestSubmitSlowFailureIsJournaled(t *testing.T) {
	repo := &slowRepo{Repository: newMemStore(t), delay: 80 * time.Millisecond, err: errors.New("connection reset")}
	svc, rt, j := newTestService(t, repo, 20*time.Millisecond)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, SubmitRequest{Title: "Lost", Description: "dream", Tags: "x"})
	require.NoError(t, err)
	require.True(t, sub.Provisional)

	require.NoError(t, rt.Detached().Wait(ctx))
	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sub.ID, entries[0].ProvisionalID)
	assert.Equal(t, "Lost", entries[0].Title)
	assert.Equal(t, store.DefaultUserID, entries[0].UserID)
	assert.Contains(t, entries[0].Error, "connection reset")

	// Once the store recovers, replay lands the write and clears the entry.
	repo.err = nil
	repo.delay = 0
	res, err := j.Replay(ctx, svc.Replay)
	require.NoError(t, err)
	assert.Equal(t, journal.ReplayResult{Replayed: 1}, res)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestShutdownWithPendingFailureDoesNotCrash(t *testing.T) {
	repo := &slowRepo{Repository: newMemStore(t), delay: 200 * time.Millisecond, err: errors.New("connection reset")}
	j, err := journal.Open(t.TempDir(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NewWriterOutput(&buf)))
	cfg := cfgpkg.Default()
	cfg.Ingest.WriteDeadline = cfgpkg.Duration(20 * time.Millisecond)
	cfg.Ingest.ShutdownGrace = cfgpkg.Duration(30 * time.Millisecond)
	rt := runtime.New(cfg, repo, j, logger)
	svc := NewWithLogger(rt, logger)

	sub, err := svc.Submit(context.Background(), SubmitRequest{Title: "Late", Description: "dream", Tags: "x"})
	require.NoError(t, err)
	require.True(t, sub.Provisional)

	err = rt.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return rt.Detached().InFlight() == 0 },
		2*time.Second, 10*time.Millisecond)

	_, err = j.Count(context.Background())
	assert.Error(t, err, "journal is closed after shutdown")
	out := buf.String()
	assert.Contains(t, out, "Journal write failed")
	assert.Contains(t, out, "Late")
}

func TestSubmitDetachedWriteSurvivesCallerCancel(t *testing.T) {
	repo := &slowRepo{Repository: newMemStore(t), delay: 60 * time.Millisecond}
	svc, rt, _ := newTestService(t, repo, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := svc.Submit(ctx, SubmitRequest{Title: "t", Description: "d"})
	cancel()
	require.NoError(t, err)
	require.True(t, sub.Provisional)

	require.NoError(t, rt.Detached().Wait(context.Background()))
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDatabaseStatus(t *testing.T) {
	svc, _, _ := newTestService(t, newMemStore(t), time.Second)
	assert.Equal(t, "connected", svc.DatabaseStatus(context.Background()))
}
