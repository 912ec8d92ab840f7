// Package id provides a 128-bit, lexicographically sortable identifier.
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence],
// so byte-wise order is chronological order. The failure journal uses IDs as
// key suffixes, which makes a prefix scan return entries oldest first.
//
// The Generator is monotonic per process: a regressing clock pins to the last
// seen millisecond, and a sequence overflow waits for the next millisecond.
//
//	g := id.NewGenerator()
//	k := g.Next()
//	s := k.String()        // 32 hex chars
//	back, _ := id.Parse(s) // back == k
package id
