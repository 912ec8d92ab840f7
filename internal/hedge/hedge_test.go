package hedge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceWorkWins(t *testing.T) {
	var detachedCalls atomic.Int32
	o, ok := Race(context.Background(), Options[int]{
		Deadline:   time.Second,
		OnDetached: func(Outcome[int]) { detachedCalls.Add(1) },
	}, func(context.Context) (int, error) { return 42, nil })

	require.True(t, ok)
	assert.Equal(t, 42, o.Value)
	assert.NoError(t, o.Err)
	assert.Equal(t, int32(0), detachedCalls.Load())
}

func TestRaceWorkErrorBeforeDeadlineIsReturned(t *testing.T) {
	boom := errors.New("boom")
	o, ok := Race(context.Background(), Options[int]{Deadline: time.Second},
		func(context.Context) (int, error) { return 0, boom })
	require.True(t, ok)
	assert.ErrorIs(t, o.Err, boom)
}

func TestRaceDeadlineWinsAndWorkContinues(t *testing.T) {
	var g Group
	release := make(chan struct{})
	got := make(chan Outcome[string], 1)

	start := time.Now()
	_, ok := Race(context.Background(), Options[string]{
		Deadline:   30 * time.Millisecond,
		Group:      &g,
		OnDetached: func(o Outcome[string]) { got <- o },
	}, func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, int64(1), g.InFlight())

	close(release)
	select {
	case o := <-got:
		assert.Equal(t, "late", o.Value)
		assert.GreaterOrEqual(t, o.Elapsed, 30*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("detached outcome never delivered")
	}
	require.NoError(t, g.Wait(context.Background()))
	assert.Equal(t, int64(0), g.InFlight())
}

func TestRaceWorkContextSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	workErr := make(chan error, 1)
	_, ok := Race(ctx, Options[int]{
		Deadline:   time.Second,
		OnDetached: func(o Outcome[int]) { workErr <- o.Err },
	}, func(wctx context.Context) (int, error) {
		cancel()
		time.Sleep(20 * time.Millisecond)
		return 1, wctx.Err()
	})

	// Either branch may win here; what matters is the work saw no cancellation.
	if ok {
		return
	}
	select {
	case err := <-workErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("work never finished")
	}
}

func TestRaceExactlyOneOutcome(t *testing.T) {
	// Deadline and work finish at about the same time; every run must
	// produce exactly one of (returned, detached).
	for i := 0; i < 200; i++ {
		var detachedCalls atomic.Int32
		var g Group
		_, ok := Race(context.Background(), Options[int]{
			Deadline:   time.Millisecond,
			Group:      &g,
			OnDetached: func(Outcome[int]) { detachedCalls.Add(1) },
		}, func(context.Context) (int, error) {
			time.Sleep(time.Millisecond)
			return 1, nil
		})
		require.NoError(t, g.Wait(context.Background()))
		if ok {
			assert.Equal(t, int32(0), detachedCalls.Load())
		} else {
			assert.Equal(t, int32(1), detachedCalls.Load())
		}
	}
}

func TestGroupWaitBounded(t *testing.T) {
	var g Group
	block := make(chan struct{})
	g.Go(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)

	close(block)
	require.NoError(t, g.Wait(context.Background()))
}
