// Package pebblestore is a thin wrapper around Pebble with an fsync policy,
// batches, prefix scans and minimal metrics hooks. It backs the failure
// journal of detached writes.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./journal",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("journal/failed/01"), payload)
//	_ = db.Scan([]byte("journal/failed/"), func(k, v []byte) (bool, error) {
//	    return true, nil
//	})
package pebblestore
