package grpcserver

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// Checker reports whether a service can serve. Nil means always serving.
type Checker func(ctx context.Context) error

// Register adds a named service to the health table. The empty name is the
// whole process and is derived from the others.
func (s *Server) Register(service string, check Checker) {
	s.mu.Lock()
	s.checks[service] = check
	s.mu.Unlock()
	s.health.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
}

// Refresh runs every check once and publishes the results.
func (s *Server) Refresh(ctx context.Context) {
	s.mu.Lock()
	checks := make(map[string]Checker, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.Unlock()

	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range checks {
		st := healthpb.HealthCheckResponse_SERVING
		if check != nil {
			cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := check(cctx); err != nil {
				st = healthpb.HealthCheckResponse_NOT_SERVING
				overall = healthpb.HealthCheckResponse_NOT_SERVING
				s.logger.Warn("Health check failed", logpkg.Service(name), logpkg.Err(err))
			}
			cancel()
		}
		s.health.SetServingStatus(name, st)
	}
	s.health.SetServingStatus("", overall)
}
