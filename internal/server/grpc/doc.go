// Package grpcserver serves the standard grpc.health.v1 service for a
// DreamCanvas process. Each hosted HTTP service registers a Checker under
// its name; the empty service name reports the process as a whole.
//
// Example:
//
//	s := grpcserver.New(logger)
//	s.Register("dream-ingestor", rt.CheckHealth)
//	_ = s.ListenAndServe(ctx, ":9090")
package grpcserver
