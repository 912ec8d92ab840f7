package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Gateway.ProxyTimeout.D() != 10*time.Second {
		t.Fatalf("proxy timeout default: %v", cfg.Gateway.ProxyTimeout)
	}
	if cfg.Ingest.WriteDeadline.D() != 3*time.Second {
		t.Fatalf("write deadline default: %v", cfg.Ingest.WriteDeadline)
	}
	if cfg.Store.AcquireTimeout.D() != 2*time.Second {
		t.Fatalf("acquire timeout default: %v", cfg.Store.AcquireTimeout)
	}
	if got := cfg.Services[ServiceIngestor].Port; got != 5001 {
		t.Fatalf("ingestor port: %d", got)
	}
	if !cfg.Voting.FallbackOnError {
		t.Fatalf("voting fallback should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dreamcanvas.json")
	data := []byte(`{"gateway":{"addr":":9000","proxyTimeout":"250ms"},"ingest":{"writeDeadline":1500},"services":{"story-weaver":{"host":"story","port":6002}}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.Addr != ":9000" || cfg.Gateway.ProxyTimeout.D() != 250*time.Millisecond {
		t.Fatalf("gateway: %+v", cfg.Gateway)
	}
	if cfg.Ingest.WriteDeadline.D() != 1500*time.Millisecond {
		t.Fatalf("ms integer duration: %v", cfg.Ingest.WriteDeadline)
	}
	if cfg.Services[ServiceStory].Addr() != "story:6002" {
		t.Fatalf("story addr: %s", cfg.Services[ServiceStory].Addr())
	}
	// untouched backends keep defaults
	if cfg.Services[ServiceVoting].Port != 5005 {
		t.Fatalf("voting port lost: %+v", cfg.Services[ServiceVoting])
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dreamcanvas.yaml")
	data := []byte(`
gateway:
  addr: ":8100"
  proxy_timeout: 5s
store:
  dsn: /tmp/x.duckdb
  max_conns: 4
voting:
  fallback_on_error: false
services:
  voting-service:
    host: voting
`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.ProxyTimeout.D() != 5*time.Second {
		t.Fatalf("proxy timeout: %v", cfg.Gateway.ProxyTimeout)
	}
	if cfg.Store.MaxConns != 4 || cfg.StoreDSN() != "/tmp/x.duckdb" {
		t.Fatalf("store: %+v", cfg.Store)
	}
	if cfg.Voting.FallbackOnError {
		t.Fatalf("expected fallback disabled")
	}
	if sc := cfg.Services[ServiceVoting]; sc.Host != "voting" || sc.Port != 5005 {
		t.Fatalf("partial service entry not merged: %+v", sc)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("DREAM_PROXY_TIMEOUT", "750ms")
	t.Setenv("DREAM_STORE_MAX_CONNS", "3")
	t.Setenv("DREAM_VOTING_FALLBACK", "false")
	t.Setenv("DREAM_SERVICE_STORY_WEAVER_HOST", "story.internal")
	t.Setenv("DREAM_SERVICE_STORY_WEAVER_PORT", "7002")
	FromEnv(&cfg)
	if cfg.Gateway.ProxyTimeout.D() != 750*time.Millisecond {
		t.Fatalf("env override timeout: %v", cfg.Gateway.ProxyTimeout)
	}
	if cfg.Store.MaxConns != 3 {
		t.Fatalf("env override max conns")
	}
	if cfg.Voting.FallbackOnError {
		t.Fatalf("env override bool")
	}
	if cfg.Services[ServiceStory].Addr() != "story.internal:7002" {
		t.Fatalf("service override: %s", cfg.Services[ServiceStory].Addr())
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.MaxConns = 0
	cfg.Ingest.WriteDeadline = 0
	delete(cfg.Services, ServiceArt)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"3s", 3 * time.Second, true},
		{"250", 250 * time.Millisecond, true},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("ParseDuration(%q) = %v, %v", tt.in, got, err)
		}
	}
}
