// Package ingestsvc accepts dream submissions and serves the canonical
// listing and lookup.
//
// Submit answers within the configured write deadline whatever the store
// does. The insert races a timer: if the store confirms first the caller gets
// the canonical record; if the timer fires first the caller gets a
// provisional acknowledgment and the insert keeps running in the background.
// A background insert that finally fails is logged and written to the
// failure journal.
//
// A provisional id is current Unix milliseconds plus jitter in [0,1000). It
// is not the id the store eventually assigns, and nothing reconciles the two
// beyond the log line written when the background insert lands.
package ingestsvc
