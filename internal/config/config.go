// Package config provides configuration management for the AuroraX client tools.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	API     APIConfig     `envPrefix:"AURORAX_"`
	Search  SearchConfig  `envPrefix:"SEARCH_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Fake    FakeConfig    `envPrefix:"FAKE_"`
}

// APIConfig contains AuroraX API client configuration.
type APIConfig struct {
	BaseURL    string        `env:"BASE_URL" envDefault:"https://api.aurorax.space"`
	APIKey     string        `env:"API_KEY" envDefault:""`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryWait  time.Duration `env:"RETRY_WAIT" envDefault:"500ms"`

	// RateLimit is in requests per second; 0 disables throttling.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`
}

// SearchConfig contains search polling configuration.
type SearchConfig struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`

	// WaitTimeout bounds waiting for a search; a negative value waits forever.
	WaitTimeout time.Duration `env:"WAIT_TIMEOUT" envDefault:"15m"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// MetricsConfig controls search lifecycle metrics. Command-line runs push
// them to a Prometheus Pushgateway when they finish.
type MetricsConfig struct {
	Enabled        bool   `env:"ENABLED" envDefault:"false"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL" envDefault:""`
	Job            string `env:"JOB" envDefault:"aurorax_cli"`
}

// FakeConfig configures the local fake AuroraX API server.
type FakeConfig struct {
	Host            string        `env:"HOST" envDefault:"127.0.0.1"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	APIKey          string        `env:"API_KEY" envDefault:""`
	AdminAPIKey     string        `env:"ADMIN_API_KEY" envDefault:""`

	// PollsUntilComplete is the number of status polls before a search completes.
	PollsUntilComplete int           `env:"POLLS_UNTIL_COMPLETE" envDefault:"2"`
	RequestTTL         time.Duration `env:"REQUEST_TTL" envDefault:"1h"`

	// FixturesDir holds the data sources and result rows served by the fake.
	FixturesDir string `env:"FIXTURES_DIR" envDefault:""`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// Validate API config
	if c.API.BaseURL == "" {
		return fmt.Errorf("AuroraX base URL is required")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("AuroraX base URL must be an absolute URL, got %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("AuroraX timeout must be positive, got %s", c.API.Timeout)
	}

	if c.API.MaxRetries < 0 {
		return fmt.Errorf("AuroraX max retries must not be negative, got %d", c.API.MaxRetries)
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("AuroraX rate limit must not be negative, got %g", c.API.RateLimit)
	}

	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return fmt.Errorf("AuroraX rate burst must be at least 1, got %d", c.API.RateBurst)
	}

	// Validate search config
	if c.Search.PollInterval <= 0 {
		return fmt.Errorf("search poll interval must be positive, got %s", c.Search.PollInterval)
	}

	if c.Search.WaitTimeout == 0 {
		return fmt.Errorf("search wait timeout must not be zero")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	// Validate metrics config
	if c.Metrics.Enabled && c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("metrics pushgateway URL is required when metrics are enabled")
	}

	// Validate fake server config
	if c.Fake.Port < 1 || c.Fake.Port > 65535 {
		return fmt.Errorf("fake server port must be between 1 and 65535, got %d", c.Fake.Port)
	}

	if c.Fake.ShutdownTimeout <= 0 {
		return fmt.Errorf("fake server shutdown timeout must be positive, got %s", c.Fake.ShutdownTimeout)
	}

	if c.Fake.PollsUntilComplete < 0 {
		return fmt.Errorf("fake server polls until complete must not be negative, got %d", c.Fake.PollsUntilComplete)
	}

	return nil
}

// Address returns the fake server listen address in the format "host:port".
func (f *FakeConfig) Address() string {
	return fmt.Sprintf("%s:%d", f.Host, f.Port)
}
