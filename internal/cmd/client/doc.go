// Package client provides the client half of the `dreamcanvas` CLI.
//
// Dream and health commands talk to the gateway over HTTP. The gateway base
// URL is discovered by the application that embeds the commands via a
// BaseURLFunc; the standalone binary reads DREAM_API (default
// http://127.0.0.1:8000). Journal commands open the local data directory and
// need the ingestor stopped, since both the store and the journal take an
// exclusive lock.
//
// Usage
//
//	dreamcanvas dream submit --title "Flying" --description "Over the sea" --tags sky,sea
//	dreamcanvas dream get 42
//	dreamcanvas dream like 42
//	dreamcanvas dream gallery --filter 'likes >= 10'
//	dreamcanvas dream portfolio 1
//
//	dreamcanvas health --deep
//	dreamcanvas health --grpc 127.0.0.1:50051 --service voting-service
//
//	dreamcanvas journal list
//	dreamcanvas journal replay
//	dreamcanvas journal purge --confirm
package client
