package serverrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	grpcserver "github.com/MFAIZAN20/dreamcanvas/internal/server/grpc"
	httpserver "github.com/MFAIZAN20/dreamcanvas/internal/server/http"
	"github.com/MFAIZAN20/dreamcanvas/internal/server/http/controllers"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// Options selects what one process hosts.
type Options struct {
	Config cfgpkg.Config
	// Services names what to start. cfgpkg.ServiceGateway is the gateway;
	// empty means the gateway plus every backend.
	Services []string
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// AllServices returns the gateway followed by every backend.
func AllServices() []string {
	return append([]string{cfgpkg.ServiceGateway}, cfgpkg.BackendServices...)
}

// Resolve validates names and drops duplicates, keeping order.
func Resolve(names []string) ([]string, error) {
	if len(names) == 0 {
		return AllServices(), nil
	}
	known := AllServices()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(known, n) {
			return nil, fmt.Errorf("unknown service %q", n)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func processLogger(opts Options) (logpkg.Logger, error) {
	if opts.Logger != nil {
		return opts.Logger, nil
	}
	return logpkg.ApplyConfig(&logpkg.Config{Level: opts.Config.Log.Level, Format: opts.Config.Log.Format})
}

type hosted struct {
	name string
	addr string
	srv  *httpserver.Server
}

// Run starts the selected servers and blocks until ctx is cancelled, a
// signal arrives, or a server fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	names, err := Resolve(opts.Services)
	if err != nil {
		return err
	}
	logger, err := processLogger(opts)
	if err != nil {
		return err
	}
	logpkg.RedirectStdLog(logger)

	var rt *runtime.Runtime
	if slices.ContainsFunc(names, controllers.NeedsRuntime) {
		rt, err = runtime.Open(sctx, runtime.Options{Config: cfg, Logger: logger})
		if err != nil {
			return err
		}
	}

	servers, err := build(cfg, names, rt, logger)
	if err != nil {
		return errors.Join(err, closeRuntime(rt))
	}

	var gsrv *grpcserver.Server
	if cfg.GRPCAddr != "" {
		gsrv = grpcserver.New(logger)
		for _, n := range names {
			var check grpcserver.Checker
			if rt != nil && controllers.NeedsRuntime(n) {
				check = rt.CheckHealth
			}
			gsrv.Register(n, check)
		}
	}

	logger.Info("Starting DreamCanvas",
		logpkg.Any("services", names),
		logpkg.Str("grpc", cfg.GRPCAddr),
		logpkg.Str("level", cfg.Log.Level))

	g, gctx := errgroup.WithContext(sctx)
	for _, h := range servers {
		g.Go(func() error {
			logger.Info("HTTP listening", logpkg.Service(h.name), logpkg.Str("addr", h.addr))
			if err := h.srv.ListenAndServe(gctx, h.addr); err != nil {
				return fmt.Errorf("%s: %w", h.name, err)
			}
			return nil
		})
	}
	if gsrv != nil {
		g.Go(func() error {
			if err := gsrv.ListenAndServe(gctx, cfg.GRPCAddr); err != nil {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		logger.Error("Server failed", logpkg.Err(err))
	}
	logger.Info("Shutting down")
	// Servers are down before the runtime waits for detached writes.
	return errors.Join(err, closeRuntime(rt))
}

func build(cfg cfgpkg.Config, names []string, rt *runtime.Runtime, logger logpkg.Logger) ([]hosted, error) {
	out := make([]hosted, 0, len(names))
	for _, n := range names {
		var (
			ctrls []controllers.Controller
			addr  string
			err   error
		)
		if n == cfgpkg.ServiceGateway {
			ctrls, err = controllers.ForGateway(cfg, logger.With(logpkg.Service(n)))
			addr = cfg.Gateway.Addr
		} else {
			ctrls, err = controllers.ForService(n, rt, logger)
			addr = cfg.Services[n].ListenAddr()
		}
		if err != nil {
			return nil, err
		}
		out = append(out, hosted{name: n, addr: addr, srv: httpserver.New(n, logger, ctrls...)})
	}
	return out, nil
}

func closeRuntime(rt *runtime.Runtime) error {
	if rt == nil {
		return nil
	}
	return rt.Close()
}
