package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Limiter.Limit != 240 || cfg.Limiter.Window != time.Minute {
		t.Errorf("unexpected limiter defaults %+v", cfg.Limiter)
	}
	if cfg.Submit.Workers != 10 || cfg.Fetch.Workers != 8 {
		t.Errorf("unexpected worker defaults submit=%d fetch=%d", cfg.Submit.Workers, cfg.Fetch.Workers)
	}
	if cfg.Poll.Interval != 15*time.Second || cfg.Poll.MaxWait != 30*time.Minute {
		t.Errorf("unexpected poll defaults %+v", cfg.Poll)
	}
	if cfg.Submit.MaxAttempts != 3 || cfg.Submit.BaseDelay != time.Second || cfg.Submit.MaxDelay != 30*time.Second {
		t.Errorf("unexpected backoff defaults %+v", cfg.Submit)
	}
	if cfg.Storage.WebsiteFile != "trending_data.json" || cfg.Server.Port != 8000 {
		t.Errorf("unexpected storage/server defaults %+v %+v", cfg.Storage, cfg.Server)
	}
	if cfg.HasCredentials() {
		t.Error("no credentials should be configured by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
api:
  login: user@example.com
  time_range: past_30_days
poll:
  interval: 5s
server:
  port: 9100
  refresh_cron: "0 */6 * * *"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRENDS_API_PASSWORD", "hunter2")
	t.Setenv("TRENDS_FETCH_WORKERS", "4")

	cfg, err := NewManager().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Login != "user@example.com" || cfg.API.Password != "hunter2" || !cfg.HasCredentials() {
		t.Errorf("unexpected api config %+v", cfg.API)
	}
	if cfg.API.TimeRange != "past_30_days" || cfg.Poll.Interval != 5*time.Second {
		t.Errorf("file values not applied: %+v %+v", cfg.API, cfg.Poll)
	}
	if cfg.Fetch.Workers != 4 || cfg.Server.Port != 9100 {
		t.Errorf("env/file overrides not applied: fetch=%d port=%d", cfg.Fetch.Workers, cfg.Server.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := NewManager().Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestSetAndReload(t *testing.T) {
	t.Chdir(t.TempDir())

	m := NewManager()
	if err := m.Reload(); err == nil {
		t.Error("Reload before Load should fail")
	}
	if _, err := m.Load(""); err != nil {
		t.Fatal(err)
	}

	m.Set("keywords.limit", 25)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if m.GetConfig().Keywords.Limit != 25 {
		t.Errorf("override not applied, limit=%d", m.GetConfig().Keywords.Limit)
	}

	m.Set("server.port", 0)
	if err := m.Reload(); err == nil {
		t.Error("expected validation error for port 0")
	}
}

func TestValidateConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := NewManager().Load("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad cron", func(c *Config) { c.Server.RefreshCron = "every day" }},
		{"bad range", func(c *Config) { c.API.TimeRange = "2024-05-01 2024-04-01" }},
		{"zero limit", func(c *Config) { c.Limiter.Limit = 0 }},
		{"batch too large", func(c *Config) { c.Submit.BatchSize = 101 }},
		{"backend without key", func(c *Config) { c.Backend.BaseURL = "http://collector" }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			if err := validateConfig(&c); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	explicit := *base
	explicit.API.TimeRange = "2024-04-01 2024-05-01"
	if err := validateConfig(&explicit); err != nil {
		t.Errorf("explicit range rejected: %v", err)
	}
}
