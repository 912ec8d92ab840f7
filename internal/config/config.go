package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Service names known to the gateway. The set is fixed at build time.
const (
	ServiceGateway      = "api-gateway"
	ServiceIngestor     = "dream-ingestor"
	ServiceStory        = "story-weaver"
	ServiceArt          = "art-generator"
	ServiceGallery      = "gallery-service"
	ServiceNotification = "notification-service"
	ServiceTrending     = "trending-service"
	ServiceVoting       = "voting-service"
	ServiceRemix        = "remix-engine"
	ServicePortfolio    = "user-portfolio"
)

// BackendServices lists every downstream service in a stable order.
var BackendServices = []string{
	ServiceIngestor,
	ServiceStory,
	ServiceArt,
	ServiceGallery,
	ServiceNotification,
	ServiceTrending,
	ServiceVoting,
	ServiceRemix,
	ServicePortfolio,
}

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir  string                   `json:"dataDir" yaml:"data_dir"`
	GRPCAddr string                   `json:"grpcAddr" yaml:"grpc_addr"`
	Gateway  GatewayConfig            `json:"gateway" yaml:"gateway"`
	Services map[string]ServiceConfig `json:"services" yaml:"services"`
	Store    StoreConfig              `json:"store" yaml:"store"`
	Ingest   IngestConfig             `json:"ingest" yaml:"ingest"`
	Voting   VotingConfig             `json:"voting" yaml:"voting"`
	Log      LogConfig                `json:"log" yaml:"log"`
}

// GatewayConfig controls the public entry point.
type GatewayConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	ProxyTimeout Duration `json:"proxyTimeout" yaml:"proxy_timeout"`
}

// ServiceConfig locates one downstream service. Host/Port are what the
// gateway dials; Listen is what the service binds (defaults to ":Port").
type ServiceConfig struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Addr returns the dial address host:port.
func (s ServiceConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ListenAddr returns the bind address.
func (s ServiceConfig) ListenAddr() string {
	if s.Listen != "" {
		return s.Listen
	}
	return ":" + strconv.Itoa(s.Port)
}

// StoreConfig configures the shared SQL store and its connection pool.
type StoreConfig struct {
	Driver         string   `json:"driver" yaml:"driver"`
	DSN            string   `json:"dsn" yaml:"dsn"`
	MaxConns       int      `json:"maxConns" yaml:"max_conns"`
	AcquireTimeout Duration `json:"acquireTimeout" yaml:"acquire_timeout"`
}

// IngestConfig tunes the hedged write path.
type IngestConfig struct {
	WriteDeadline Duration `json:"writeDeadline" yaml:"write_deadline"`
	ListLimit     int      `json:"listLimit" yaml:"list_limit"`
	JournalDir    string   `json:"journalDir" yaml:"journal_dir"`
	ShutdownGrace Duration `json:"shutdownGrace" yaml:"shutdown_grace"`
}

// VotingConfig controls the like counter.
type VotingConfig struct {
	// FallbackOnError answers a storage failure with a degraded, fabricated
	// count instead of a 500.
	FallbackOnError bool `json:"fallbackOnError" yaml:"fallback_on_error"`
}

// LogConfig mirrors log.Config so it can live in the same file.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Addr:         ":8000",
			ProxyTimeout: Duration(10 * time.Second),
		},
		Services: DefaultServices(),
		Store: StoreConfig{
			Driver:         "duckdb",
			MaxConns:       10,
			AcquireTimeout: Duration(2 * time.Second),
		},
		Ingest: IngestConfig{
			WriteDeadline: Duration(3 * time.Second),
			ListLimit:     20,
			ShutdownGrace: Duration(10 * time.Second),
		},
		Voting: VotingConfig{FallbackOnError: true},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultServices returns the development topology: every backend on
// localhost with its historical port.
func DefaultServices() map[string]ServiceConfig {
	ports := map[string]int{
		ServiceIngestor:     5001,
		ServiceStory:        5002,
		ServiceArt:          5003,
		ServiceGallery:      5004,
		ServiceVoting:       5005,
		ServiceRemix:        5006,
		ServiceTrending:     5007,
		ServicePortfolio:    5008,
		ServiceNotification: 3005,
	}
	out := make(map[string]ServiceConfig, len(ports))
	for name, port := range ports {
		out[name] = ServiceConfig{Host: "127.0.0.1", Port: port}
	}
	return out
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults. Values absent from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	// A partial services block must not drop the other backends.
	for name, def := range DefaultServices() {
		sc, ok := cfg.Services[name]
		if !ok {
			cfg.Services[name] = def
			continue
		}
		if sc.Host == "" {
			sc.Host = def.Host
		}
		if sc.Port == 0 {
			sc.Port = def.Port
		}
		cfg.Services[name] = sc
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Gateway.ProxyTimeout <= 0 {
		errs = append(errs, errors.New("gateway.proxy_timeout must be > 0"))
	}
	if c.Store.MaxConns <= 0 {
		errs = append(errs, errors.New("store.max_conns must be > 0"))
	}
	if c.Store.AcquireTimeout <= 0 {
		errs = append(errs, errors.New("store.acquire_timeout must be > 0"))
	}
	if c.Ingest.WriteDeadline <= 0 {
		errs = append(errs, errors.New("ingest.write_deadline must be > 0"))
	}
	if c.Ingest.ListLimit <= 0 {
		errs = append(errs, errors.New("ingest.list_limit must be > 0"))
	}
	for _, name := range BackendServices {
		sc, ok := c.Services[name]
		if !ok {
			errs = append(errs, fmt.Errorf("services.%s missing", name))
			continue
		}
		if sc.Port <= 0 || sc.Port > 65535 {
			errs = append(errs, fmt.Errorf("services.%s.port %d out of range", name, sc.Port))
		}
	}
	return errors.Join(errs...)
}

// StoreDSN returns the configured DSN or a file under DataDir.
func (c Config) StoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return filepath.Join(c.dataDir(), "dreams.duckdb")
}

// JournalDir returns the failure journal directory.
func (c Config) JournalDir() string {
	if c.Ingest.JournalDir != "" {
		return c.Ingest.JournalDir
	}
	return filepath.Join(c.dataDir(), "journal")
}

func (c Config) dataDir() string {
	return ResolveDataDir(c.DataDir)
}
