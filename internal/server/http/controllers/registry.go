package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/gateway"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	gallerysvc "github.com/MFAIZAN20/dreamcanvas/internal/services/gallery"
	ingestsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/ingest"
	portfoliosvc "github.com/MFAIZAN20/dreamcanvas/internal/services/portfolio"
	votingsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/voting"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// Controller registers a group of routes on a mux.
type Controller interface {
	RegisterRoutes(mux *http.ServeMux)
}

// NeedsRuntime reports whether the named service reads or writes the store.
func NeedsRuntime(name string) bool {
	switch name {
	case cfgpkg.ServiceIngestor, cfgpkg.ServiceGallery, cfgpkg.ServicePortfolio, cfgpkg.ServiceVoting:
		return true
	}
	return false
}

// ForService returns the controllers of one backend service. Stateful
// services need a non-nil runtime.
func ForService(name string, rt *runtime.Runtime, logger logpkg.Logger) ([]Controller, error) {
	if NeedsRuntime(name) && rt == nil {
		return nil, fmt.Errorf("service %s needs a runtime", name)
	}
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	logger = logger.With(logpkg.Service(name))

	switch name {
	case cfgpkg.ServiceIngestor:
		svc := ingestsvc.NewWithLogger(rt, logger)
		return []Controller{
			NewDreamsController(svc),
			NewHealthController(name, rt, func(ctx context.Context) map[string]any {
				out := map[string]any{
					"database":  svc.DatabaseStatus(ctx),
					"in_flight": svc.InFlight(),
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				}
				if j := rt.Journal(); j != nil {
					pending, err := j.Count(ctx)
					if err == nil {
						out["journal"] = map[string]any{"pending": pending, "io": j.Stats()}
					}
				}
				return out
			}),
		}, nil
	case cfgpkg.ServiceGallery:
		return []Controller{
			NewGalleryController(gallerysvc.NewWithLogger(rt, logger)),
			NewHealthController(name, rt),
		}, nil
	case cfgpkg.ServicePortfolio:
		return []Controller{
			NewPortfolioController(portfoliosvc.NewWithLogger(rt, logger)),
			NewHealthController(name, rt),
		}, nil
	case cfgpkg.ServiceVoting:
		return []Controller{
			NewVotingController(votingsvc.NewWithLogger(rt, logger)),
			NewHealthController(name, rt),
		}, nil
	case cfgpkg.ServiceStory:
		return []Controller{NewStoryController(), NewHealthController(name, nil)}, nil
	case cfgpkg.ServiceArt:
		return []Controller{NewArtController(), NewHealthController(name, nil)}, nil
	case cfgpkg.ServiceNotification:
		return []Controller{
			NewNotificationController(),
			NewHealthController(name, nil, func(context.Context) map[string]any {
				return map[string]any{"version": "1.0"}
			}),
		}, nil
	case cfgpkg.ServiceTrending:
		return []Controller{NewTrendingController(), NewHealthController(name, nil)}, nil
	case cfgpkg.ServiceRemix:
		return []Controller{NewRemixController(), NewHealthController(name, nil)}, nil
	}
	return nil, fmt.Errorf("unknown service %q", name)
}

// ForGateway builds the gateway's controllers from cfg.
func ForGateway(cfg cfgpkg.Config, logger logpkg.Logger) ([]Controller, error) {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	reg, err := gateway.NewRegistry(gateway.DefaultRoutes(), cfg.Services)
	if err != nil {
		return nil, err
	}
	proxy := gateway.NewProxy(cfg.Gateway.ProxyTimeout.D(), gateway.WithLogger(logger))
	handler := gateway.NewHandler(reg, proxy, logger)
	prober := gateway.NewProber(reg, 2*time.Second)
	return []Controller{NewGatewayController(reg, proxy, handler, prober)}, nil
}
