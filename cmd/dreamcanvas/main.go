package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/MFAIZAN20/dreamcanvas/internal/cmd/client"
	serverrun "github.com/MFAIZAN20/dreamcanvas/internal/cmd/server"
	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

func main() {
	level := os.Getenv("DREAM_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	var configPath string
	loadConfig := func() (cfgpkg.Config, error) {
		cfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return cfgpkg.Config{}, err
		}
		cfgpkg.FromEnv(&cfg)
		return cfg, nil
	}

	rootCmd := clientcmd.NewRoot(apiURL, loadConfig, logger)
	rootCmd.Long = "DreamCanvas runs the dream gateway and its backend services, and talks to them."
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DREAM_CONFIG"), "Config file (.yaml or .json)")

	rootCmd.AddCommand(
		newStartGroup("gateway", "API gateway", func(*cobra.Command) ([]string, error) {
			return []string{cfgpkg.ServiceGateway}, nil
		}, loadConfig),
		newStartGroup("service", "Backend services", func(cmd *cobra.Command) ([]string, error) {
			names, _ := cmd.Flags().GetStringSlice("name")
			if len(names) == 0 {
				return nil, fmt.Errorf("--name is required (one of %v)", cfgpkg.BackendServices)
			}
			return names, nil
		}, loadConfig),
		newStartGroup("all", "Gateway and every backend in one process", func(*cobra.Command) ([]string, error) {
			return serverrun.AllServices(), nil
		}, loadConfig),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newStartGroup builds `<name> start` with the shared server flags.
func newStartGroup(name, short string, services func(*cobra.Command) ([]string, error), loadConfig clientcmd.ConfigFunc) *cobra.Command {
	group := &cobra.Command{Use: name, Short: short + " commands"}
	start := &cobra.Command{
		Use:     "start",
		Short:   "Start " + short,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
				cfg.DataDir = v
			}
			if v, _ := cmd.Flags().GetString("grpc"); v != "" {
				cfg.GRPCAddr = v
			}
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				cfg.Gateway.Addr = v
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			if v, _ := cmd.Flags().GetString("log-format"); v != "" {
				cfg.Log.Format = v
			}
			names, err := services(cmd)
			if err != nil {
				return err
			}
			if err := serverrun.Run(cmd.Context(), serverrun.Options{Config: cfg, Services: names}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	start.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	start.Flags().String("grpc", "", "gRPC health listen address (disabled when empty)")
	start.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	start.Flags().String("log-format", "", "Log format: text|json (default text)")
	if name == "service" {
		start.Flags().StringSlice("name", nil, "Service name(s) to host in this process")
	} else {
		start.Flags().String("addr", "", "Gateway listen address (default :8000)")
	}
	group.AddCommand(start)
	return group
}

func apiURL() string {
	if v := os.Getenv("DREAM_API"); v != "" {
		return v
	}
	return "http://127.0.0.1:8000"
}
