// Package journal durably records detached writes that finally failed, so an
// operator can inspect and replay them. Entries live in Pebble under
// journal/failed/<id>, oldest first.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pebblestore "github.com/MFAIZAN20/dreamcanvas/internal/storage/pebble"
	"github.com/MFAIZAN20/dreamcanvas/pkg/id"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

var keyPrefix = []byte("journal/failed/")

// ErrNotFound is returned for an unknown entry key.
var ErrNotFound = errors.New("journal: entry not found")

// Entry is one failed background write.
type Entry struct {
	Key           id.ID     `json:"key"`
	ProvisionalID int64     `json:"provisional_id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Tags          string    `json:"tags"`
	Error         string    `json:"error"`
	FailedAt      time.Time `json:"failed_at"`
	Attempts      int       `json:"attempts"`
}

// ReplayFunc re-attempts one entry and returns the id the store assigned.
type ReplayFunc func(ctx context.Context, e Entry) (int64, error)

// ReplayResult summarizes a Replay run.
type ReplayResult struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
}

// Journal is safe for concurrent use.
type Journal struct {
	db     *pebblestore.DB
	gen    *id.Generator
	logger logpkg.Logger
	ownsDB bool
	stats  *ioStats
}

// Stats counts storage traffic of a journal opened with Open.
type Stats struct {
	Writes     int64 `json:"writes"`
	WriteBytes int64 `json:"write_bytes"`
	Reads      int64 `json:"reads"`
	Commits    int64 `json:"commits"`
}

// ioStats implements pebblestore.MetricsHook.
type ioStats struct {
	writes, writeBytes, reads, commits atomic.Int64
}

func (s *ioStats) ObserveWrite(_ time.Duration, n int) {
	s.writes.Add(1)
	s.writeBytes.Add(int64(n))
}

func (s *ioStats) ObserveRead(time.Duration, int) { s.reads.Add(1) }

func (s *ioStats) ObserveBatchCommit(time.Duration, int, int) { s.commits.Add(1) }

// Open opens (or creates) a journal in dir with synchronous WAL writes.
func Open(dir string, logger logpkg.Logger) (*Journal, error) {
	stats := &ioStats{}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Metrics: stats})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dir, err)
	}
	j := New(db, logger)
	j.ownsDB = true
	j.stats = stats
	return j, nil
}

// New wraps an already-open store. The caller keeps ownership of db.
func New(db *pebblestore.DB, logger logpkg.Logger) *Journal {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Journal{db: db, gen: id.NewGenerator(), logger: logger.WithComponent("journal")}
}

// Stats returns storage counters. A journal built with New reports zeros.
func (j *Journal) Stats() Stats {
	if j.stats == nil {
		return Stats{}
	}
	return Stats{
		Writes:     j.stats.writes.Load(),
		WriteBytes: j.stats.writeBytes.Load(),
		Reads:      j.stats.reads.Load(),
		Commits:    j.stats.commits.Load(),
	}
}

// Close releases the underlying store if Open created it.
func (j *Journal) Close() error {
	if !j.ownsDB {
		return nil
	}
	return j.db.Close()
}

func entryKey(k id.ID) []byte {
	return append(append([]byte(nil), keyPrefix...), k.Bytes()...)
}

// Record stores e under a fresh key and returns it with Key set.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e.Key = j.gen.Next()
	if e.FailedAt.IsZero() {
		e.FailedAt = time.Now().UTC()
	}
	if e.Attempts == 0 {
		e.Attempts = 1
	}
	if err := j.put(e); err != nil {
		return Entry{}, err
	}
	j.logger.Warn("Recorded failed write",
		logpkg.Str("key", e.Key.String()),
		logpkg.Int64("provisional_id", e.ProvisionalID),
		logpkg.Str("error", e.Error))
	return e, nil
}

func (j *Journal) put(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	return j.db.Set(entryKey(e.Key), b)
}

// Get returns one entry.
func (j *Journal) Get(key id.ID) (Entry, error) {
	b, err := j.db.Get(entryKey(key))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("decode journal entry %s: %w", key, err)
	}
	return e, nil
}

// List returns up to limit entries, oldest first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	out := []Entry{}
	err := j.db.Scan(keyPrefix, func(k, v []byte) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			j.logger.Warn("Skipping undecodable journal entry", logpkg.Err(err))
			return true, nil
		}
		out = append(out, e)
		return limit <= 0 || len(out) < limit, nil
	})
	return out, err
}

// Count returns the number of entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	n := 0
	err := j.db.Scan(keyPrefix, func(_, _ []byte) (bool, error) {
		n++
		return ctx.Err() == nil, ctx.Err()
	})
	return n, err
}

// Delete removes one entry. Deleting a missing entry is not an error.
func (j *Journal) Delete(key id.ID) error {
	return j.db.Delete(entryKey(key))
}

// Purge removes every entry and returns how many were removed.
func (j *Journal) Purge(ctx context.Context) (int, error) {
	n, err := j.db.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := j.db.CompactPrefix(keyPrefix); err != nil {
			j.logger.Warn("Journal compaction failed", logpkg.Err(err))
		}
		j.logger.Info("Purged journal", logpkg.Int("entries", n))
	}
	return n, nil
}

// Replay re-attempts every entry with fn, oldest first. Entries that succeed
// are deleted; entries that fail again keep their key with Attempts bumped
// and Error updated.
func (j *Journal) Replay(ctx context.Context, fn ReplayFunc) (ReplayResult, error) {
	var res ReplayResult
	entries, err := j.List(ctx, 0)
	if err != nil {
		return res, err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		storeID, err := fn(ctx, e)
		if err != nil {
			res.Failed++
			e.Attempts++
			e.Error = err.Error()
			e.FailedAt = time.Now().UTC()
			if perr := j.put(e); perr != nil {
				return res, perr
			}
			j.logger.Warn("Replay failed",
				logpkg.Str("key", e.Key.String()),
				logpkg.Int("attempts", e.Attempts),
				logpkg.Err(err))
			continue
		}
		if err := j.Delete(e.Key); err != nil {
			return res, err
		}
		res.Replayed++
		j.logger.Info("Replayed write",
			logpkg.Str("key", e.Key.String()),
			logpkg.Int64("provisional_id", e.ProvisionalID),
			logpkg.Int64("store_id", storeID))
	}
	return res, nil
}
