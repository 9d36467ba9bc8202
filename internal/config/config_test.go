package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Test defaults
	if cfg.API.BaseURL != "https://api.aurorax.space" {
		t.Errorf("expected default base URL, got %s", cfg.API.BaseURL)
	}

	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.API.Timeout)
	}

	if cfg.API.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.API.MaxRetries)
	}

	if cfg.Search.PollInterval != time.Second {
		t.Errorf("expected default poll interval 1s, got %s", cfg.Search.PollInterval)
	}

	if cfg.Search.WaitTimeout != 15*time.Minute {
		t.Errorf("expected default wait timeout 15m, got %s", cfg.Search.WaitTimeout)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}

	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled by default")
	}

	if cfg.Fake.Address() != "127.0.0.1:8080" {
		t.Errorf("expected default fake address, got %s", cfg.Fake.Address())
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("AURORAX_BASE_URL", "http://localhost:9000")
	t.Setenv("AURORAX_API_KEY", "secret")
	t.Setenv("AURORAX_RATE_LIMIT", "2.5")
	t.Setenv("SEARCH_POLL_INTERVAL", "250ms")
	t.Setenv("SEARCH_WAIT_TIMEOUT", "-1s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "http://localhost:9091")
	t.Setenv("FAKE_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:9000" {
		t.Errorf("expected custom base URL, got %s", cfg.API.BaseURL)
	}

	if cfg.API.APIKey != "secret" {
		t.Errorf("expected API key to be read, got %q", cfg.API.APIKey)
	}

	if cfg.API.RateLimit != 2.5 {
		t.Errorf("expected rate limit 2.5, got %g", cfg.API.RateLimit)
	}

	if cfg.Search.PollInterval != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %s", cfg.Search.PollInterval)
	}

	if cfg.Search.WaitTimeout >= 0 {
		t.Errorf("expected negative wait timeout, got %s", cfg.Search.WaitTimeout)
	}

	if !cfg.Metrics.Enabled || cfg.Metrics.Job != "aurorax_cli" {
		t.Errorf("unexpected metrics config: %+v", cfg.Metrics)
	}

	if cfg.Fake.Port != 9999 {
		t.Errorf("expected fake port 9999, got %d", cfg.Fake.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid log format")
	}
}

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.aurorax.space",
			Timeout:   10 * time.Second,
			RateLimit: 10,
			RateBurst: 10,
		},
		Search: SearchConfig{
			PollInterval: time.Second,
			WaitTimeout:  15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Fake: FakeConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"throttling disabled", func(c *Config) { c.API.RateLimit, c.API.RateBurst = 0, 0 }, false},
		{"unbounded wait", func(c *Config) { c.Search.WaitTimeout = -1 }, false},
		{"missing base URL", func(c *Config) { c.API.BaseURL = "" }, true},
		{"relative base URL", func(c *Config) { c.API.BaseURL = "api.aurorax.space" }, true},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, true},
		{"negative rate limit", func(c *Config) { c.API.RateLimit = -1 }, true},
		{"rate limit without burst", func(c *Config) { c.API.RateBurst = 0 }, true},
		{"zero poll interval", func(c *Config) { c.Search.PollInterval = 0 }, true},
		{"zero wait timeout", func(c *Config) { c.Search.WaitTimeout = 0 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"metrics without pushgateway", func(c *Config) { c.Metrics.Enabled = true }, true},
		{"invalid fake port", func(c *Config) { c.Fake.Port = 70000 }, true},
		{"negative polls", func(c *Config) { c.Fake.PollsUntilComplete = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func TestLoadFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "data_sources.json", `[{"identifier": 4, "program": "themis-asi"}, {"identifier": 17, "program": "swarm"}]`)
	writeFixture(t, dir, "conjunctions.json", `[{"conjunction_type": "nbtrace", "start": "2020-01-01T00:00:00"}]`)
	writeFixture(t, dir, "README.md", "not a fixture")

	fixtures, err := LoadFixtures(dir)
	if err != nil {
		t.Fatalf("LoadFixtures() failed: %v", err)
	}

	if len(fixtures.DataSources) != 2 {
		t.Errorf("expected 2 data sources, got %d", len(fixtures.DataSources))
	}

	if id, ok := fixtures.DataSources[1]["identifier"].(int); !ok || id != 17 {
		t.Errorf("expected identifier converted to int 17, got %#v", fixtures.DataSources[1]["identifier"])
	}

	if len(fixtures.Results[FixtureConjunctions]) != 1 {
		t.Errorf("expected 1 conjunction row, got %d", len(fixtures.Results[FixtureConjunctions]))
	}
}

func TestLoadFixtures_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"empty directory", map[string]string{}},
		{"unknown file", map[string]string{"stations.json": `[]`}},
		{"not an array", map[string]string{"ephemeris.json": `{"epoch": "x"}`}},
		{"identifier missing", map[string]string{"data_sources.json": `[{"program": "swarm"}]`}},
		{"identifier not integer", map[string]string{"data_sources.json": `[{"identifier": 1.5}]`}},
		{"duplicate identifier", map[string]string{"data_sources.json": `[{"identifier": 1}, {"identifier": 1}]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFixture(t, dir, name, content)
			}

			if _, err := LoadFixtures(dir); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadFixtures(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
}
