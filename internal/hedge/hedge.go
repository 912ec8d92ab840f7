// Package hedge races a unit of work against a deadline.
//
// The work always runs to completion. When it finishes first its outcome is
// returned to the caller; when the deadline fires first the caller gets
// control back immediately and the outcome is later handed to an OnDetached
// callback instead. Exactly one of the two happens for every Race.
//
// Detached work is tracked by a Group so a process can wait for it before
// exiting.
package hedge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the result of one unit of work.
type Outcome[T any] struct {
	Value   T
	Err     error
	Elapsed time.Duration
}

// Options configures a Race.
type Options[T any] struct {
	// Deadline bounds how long the caller waits.
	Deadline time.Duration
	// Group tracks the work goroutine. Nil means untracked.
	Group *Group
	// OnDetached receives the outcome of work that lost the race. It runs on
	// the work goroutine.
	OnDetached func(Outcome[T])
}

const (
	pending int32 = iota
	completed
	detached
)

// Race runs work on a context detached from ctx's cancellation and waits for
// it up to opts.Deadline. It reports whether the work completed in time.
// Cancellation of ctx is treated like the deadline firing: the work is left
// running and its outcome goes to OnDetached.
func Race[T any](ctx context.Context, opts Options[T], work func(context.Context) (T, error)) (Outcome[T], bool) {
	var state atomic.Int32
	done := make(chan Outcome[T], 1)
	wctx := context.WithoutCancel(ctx)
	start := time.Now()

	run := func() {
		v, err := work(wctx)
		o := Outcome[T]{Value: v, Err: err, Elapsed: time.Since(start)}
		if state.CompareAndSwap(pending, completed) {
			done <- o
			return
		}
		if opts.OnDetached != nil {
			opts.OnDetached(o)
		}
	}
	if opts.Group != nil {
		opts.Group.Go(run)
	} else {
		go run()
	}

	timer := time.NewTimer(opts.Deadline)
	defer timer.Stop()

	select {
	case o := <-done:
		return o, true
	case <-timer.C:
	case <-ctx.Done():
	}
	if state.CompareAndSwap(pending, detached) {
		return Outcome[T]{Elapsed: time.Since(start)}, false
	}
	// The work won the CAS just before the timer did.
	return <-done, true
}

// Group tracks goroutines started by Race.
type Group struct {
	wg       sync.WaitGroup
	inflight atomic.Int64
}

// Go runs fn in a tracked goroutine.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	g.inflight.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.inflight.Add(-1)
		fn()
	}()
}

// InFlight returns the number of tracked goroutines still running.
func (g *Group) InFlight() int64 { return g.inflight.Load() }

// Wait blocks until every tracked goroutine has returned or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
