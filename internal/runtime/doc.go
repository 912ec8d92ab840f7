// Package runtime wires the shared resources of a stateful DreamCanvas
// process: one connection pool over the SQL store, the dream repository on
// top of it, the failure journal, and the group tracking detached writes.
//
// DuckDB allows one writing process per database file, so every stateful
// service that runs in a process shares a single Runtime.
//
// Example:
//
//	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	dream, err := rt.Store().Get(ctx, 1)
package runtime
