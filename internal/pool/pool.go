package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/semaphore"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("pool: closed")

// Options configures a Pool.
type Options struct {
	// Driver is the database/sql driver name. Defaults to "duckdb".
	Driver string
	// DSN is passed to sql.Open. Empty means an in-memory DuckDB database.
	DSN string
	// MaxConns bounds concurrent leases. Defaults to 10.
	MaxConns int
	// AcquireTimeout bounds the wait for a lease. Defaults to 2s.
	AcquireTimeout time.Duration
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	MaxConns        int   `json:"max_conns"`
	InUse           int64 `json:"in_use"`
	Idle            int   `json:"idle"`
	Acquired        int64 `json:"acquired"`
	AcquireTimeouts int64 `json:"acquire_timeouts"`
}

// Pool is a bounded set of reusable store connections.
type Pool struct {
	db             *sql.DB
	sem            *semaphore.Weighted
	maxConns       int
	acquireTimeout time.Duration

	inUse    atomic.Int64
	acquired atomic.Int64
	timeouts atomic.Int64
	closed   atomic.Bool
}

// Open opens the database and wraps it in a Pool.
func Open(opts Options) (*Pool, error) {
	if opts.Driver == "" {
		opts.Driver = "duckdb"
	}
	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}
	return New(db, opts.MaxConns, opts.AcquireTimeout), nil
}

// New wraps an already-open *sql.DB. The pool owns db from here on.
func New(db *sql.DB, maxConns int, acquireTimeout time.Duration) *Pool {
	if maxConns <= 0 {
		maxConns = 10
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 2 * time.Second
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return &Pool{
		db:             db,
		sem:            semaphore.NewWeighted(int64(maxConns)),
		maxConns:       maxConns,
		acquireTimeout: acquireTimeout,
	}
}

// Acquire leases a connection, waiting at most the configured acquire
// timeout. A caller-side cancellation is returned as ctx.Err(); running out
// of time waiting for a free slot is apierr.ErrPoolExhausted.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	if err := p.sem.Acquire(actx, 1); err != nil {
		return nil, p.acquireErr(ctx, err)
	}
	c, err := p.db.Conn(actx)
	if err != nil {
		p.sem.Release(1)
		return nil, p.acquireErr(ctx, err)
	}
	p.inUse.Add(1)
	p.acquired.Add(1)
	return &Conn{Conn: c, pool: p}, nil
}

func (p *Pool) acquireErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		p.timeouts.Add(1)
		return fmt.Errorf("no connection within %s: %w", p.acquireTimeout, apierr.ErrPoolExhausted)
	}
	return fmt.Errorf("%w: %v", apierr.ErrStorage, err)
}

// WithConn runs fn on a leased connection and releases it afterwards,
// whatever fn returns.
func (p *Pool) WithConn(ctx context.Context, fn func(c *Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}

// Ping checks that a connection can be leased and used.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(c *Conn) error {
		return c.PingContext(ctx)
	})
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		MaxConns:        p.maxConns,
		InUse:           p.inUse.Load(),
		Idle:            p.db.Stats().Idle,
		Acquired:        p.acquired.Load(),
		AcquireTimeouts: p.timeouts.Load(),
	}
}

// Close stops new acquisitions and closes the database.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

// Conn is a leased connection, owned by exactly one operation.
type Conn struct {
	*sql.Conn
	pool *Pool
	once sync.Once
}

// Release returns the connection to the pool. Safe to call more than once.
func (c *Conn) Release() {
	c.once.Do(func() {
		_ = c.Conn.Close()
		c.pool.inUse.Add(-1)
		c.pool.sem.Release(1)
	})
}
