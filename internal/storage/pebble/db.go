package pebblestore

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = pebble.ErrNotFound

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("pebble: store closed")

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed batch/write.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever leaves syncing entirely to Pebble.
	FsyncModeNever
)

// Options configures the Pebble store wrapper.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning. If nil, defaults are used.
	PebbleOptions *pebble.Options
	// Metrics observes read/write/commit latencies and sizes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// DB wraps a Pebble database with an fsync policy and prefix helpers.
// Operations after Close return ErrClosed.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook

	// mu is held for reading by every operation and for writing by Close.
	mu     sync.RWMutex
	closed bool
}

// Open creates or opens a Pebble database.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		iv := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return iv }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
	}, nil
}

// Close closes the database. Closing twice is a no-op.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.inner.Close()
}

// Closed reports whether Close has been called.
func (db *DB) Closed() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.closed
}

// acquire read-locks db and fails once it is closed. The caller must call
// release when err is nil.
func (db *DB) acquire() error {
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

func (db *DB) release() { db.mu.RUnlock() }

// NewBatch creates a new batch for atomic multi-key updates. It returns nil
// after Close.
func (db *DB) NewBatch() *pebble.Batch {
	if err := db.acquire(); err != nil {
		return nil
	}
	defer db.release()
	return db.inner.NewBatch()
}

// CommitBatch commits b with the configured fsync policy.
func (db *DB) CommitBatch(ctx context.Context, b *pebble.Batch) error {
	if err := db.acquire(); err != nil {
		return err
	}
	defer db.release()
	return db.commit(ctx, b)
}

func (db *DB) commit(ctx context.Context, b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	size := b.Len()
	ops := int(b.Count())
	defer func() { db.metrics.ObserveBatchCommit(time.Since(start), ops, size) }()

	syncMode := pebble.NoSync
	if db.writeSync {
		syncMode = pebble.Sync
	}
	return b.Commit(syncMode)
}

// Set writes one key.
func (db *DB) Set(key, value []byte) error {
	if err := db.acquire(); err != nil {
		return err
	}
	defer db.release()
	start := time.Now()
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Set(key, value, nil); err != nil {
		return err
	}
	if err := db.commit(context.Background(), b); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(key)+len(value))
	return nil
}

// Delete removes one key.
func (db *DB) Delete(key []byte) error {
	if err := db.acquire(); err != nil {
		return err
	}
	defer db.release()
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Delete(key, nil); err != nil {
		return err
	}
	return db.commit(context.Background(), b)
}

// Get copies the value for key, or returns ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	if err := db.acquire(); err != nil {
		return nil, err
	}
	defer db.release()
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Scan calls fn for every key with the given prefix, in key order, until fn
// returns false or an error. Key and value are copies. fn must not call
// back into db.
func (db *DB) Scan(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	if err := db.acquire(); err != nil {
		return err
	}
	defer db.release()
	return db.scan(prefix, fn)
}

func (db *DB) scan(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	it, err := db.inner.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer it.Close()
	for ok := it.First(); ok; ok = it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := append([]byte(nil), it.Value()...)
		db.metrics.ObserveRead(0, len(v))
		cont, err := fn(k, v)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return it.Error()
}

// DeletePrefix removes every key with the given prefix and returns how many
// were removed.
func (db *DB) DeletePrefix(ctx context.Context, prefix []byte) (int, error) {
	if err := db.acquire(); err != nil {
		return 0, err
	}
	defer db.release()
	b := db.inner.NewBatch()
	defer b.Close()
	n := 0
	err := db.scan(prefix, func(k, _ []byte) (bool, error) {
		n++
		return true, b.Delete(k, nil)
	})
	if err != nil || n == 0 {
		return 0, err
	}
	if err := db.commit(ctx, b); err != nil {
		return 0, err
	}
	return n, nil
}

// CompactPrefix requests compaction of every key with the given prefix so
// deleted entries stop occupying disk.
func (db *DB) CompactPrefix(prefix []byte) error {
	if err := db.acquire(); err != nil {
		return err
	}
	defer db.release()
	end := prefixEnd(prefix)
	if end == nil {
		end = []byte{0xff, 0xff, 0xff, 0xff}
	}
	return db.inner.Compact(prefix, end, true)
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
