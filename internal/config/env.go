package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays DREAM_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv(DataDirEnv); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DREAM_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("DREAM_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("DREAM_PROXY_TIMEOUT"); v != "" {
		if d, err := ParseDuration(v); err == nil {
			cfg.Gateway.ProxyTimeout = Duration(d)
		}
	}
	if v := os.Getenv("DREAM_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DREAM_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("DREAM_STORE_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxConns = n
		}
	}
	if v := os.Getenv("DREAM_STORE_ACQUIRE_TIMEOUT"); v != "" {
		if d, err := ParseDuration(v); err == nil {
			cfg.Store.AcquireTimeout = Duration(d)
		}
	}
	if v := os.Getenv("DREAM_WRITE_DEADLINE"); v != "" {
		if d, err := ParseDuration(v); err == nil {
			cfg.Ingest.WriteDeadline = Duration(d)
		}
	}
	if v := os.Getenv("DREAM_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.ListLimit = n
		}
	}
	if v := os.Getenv("DREAM_JOURNAL_DIR"); v != "" {
		cfg.Ingest.JournalDir = v
	}
	if v := os.Getenv("DREAM_VOTING_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Voting.FallbackOnError = b
		}
	}
	if v := os.Getenv("DREAM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DREAM_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	// Per-service overrides: DREAM_SERVICE_<NAME>_HOST / _PORT where NAME is
	// the service name upper-cased with '-' replaced by '_'.
	if cfg.Services == nil {
		cfg.Services = DefaultServices()
	}
	for name, sc := range cfg.Services {
		prefix := "DREAM_SERVICE_" + envName(name)
		if v := os.Getenv(prefix + "_HOST"); v != "" {
			sc.Host = v
		}
		if v := os.Getenv(prefix + "_PORT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				sc.Port = n
			}
		}
		cfg.Services[name] = sc
	}
}

func envName(service string) string {
	return strings.ToUpper(strings.ReplaceAll(service, "-", "_"))
}
