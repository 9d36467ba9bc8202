// Package cli implements the aurorax command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/config"
	"github.com/robert-malhotra/aurorax-client/pkg/aurorax"
)

// app is the state shared by every subcommand of one root command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *aurorax.Client
	registry *prometheus.Registry
}

// NewRootCommand builds the aurorax command tree. Flags override cfg, which
// is normally loaded from the environment by config.Load.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	var (
		baseURL   string
		apiKey    string
		logLevel  string
		logFormat string
		timeout   time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "aurorax",
		Short: "Search the AuroraX conjunction, ephemeris and data product databases",
		Long: `aurorax submits searches to the AuroraX API, waits for them to finish
and prints their results. Settings come from AURORAX_*, SEARCH_*, LOG_* and
METRICS_* environment variables; flags take precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("base-url") {
				a.cfg.API.BaseURL = baseURL
			}
			if flags.Changed("api-key") {
				a.cfg.API.APIKey = apiKey
			}
			if flags.Changed("log-level") {
				a.cfg.Logging.Level = logLevel
			}
			if flags.Changed("log-format") {
				a.cfg.Logging.Format = logFormat
			}
			if flags.Changed("timeout") {
				a.cfg.API.Timeout = timeout
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.pushMetrics(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", cfg.API.BaseURL, "AuroraX API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "AuroraX API key")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Logging.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", cfg.Logging.Format, "log format (json, text)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", cfg.API.Timeout, "per-request timeout")

	rootCmd.AddCommand(
		newSearchCommand(a),
		newRequestsCommand(a),
		newSourcesCommand(a),
		newFakeAPICommand(a),
	)
	return rootCmd
}

// setup builds the logger and the API client from the final configuration.
func (a *app) setup(logOutput io.Writer) error {
	a.logger = setupLogger(a.cfg.Logging.Level, a.cfg.Logging.Format, logOutput)

	// AURORAX_MAX_RETRIES=0 means no retries; the facade reads 0 as "use the default".
	maxRetries := a.cfg.API.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	opts := aurorax.Options{
		BaseURL:      a.cfg.API.BaseURL,
		APIKey:       a.cfg.API.APIKey,
		Timeout:      a.cfg.API.Timeout,
		MaxRetries:   maxRetries,
		RetryWait:    a.cfg.API.RetryWait,
		RateLimit:    a.cfg.API.RateLimit,
		RateBurst:    a.cfg.API.RateBurst,
		PollInterval: a.cfg.Search.PollInterval,
		WaitTimeout:  a.cfg.Search.WaitTimeout,
		Logger:       a.logger,
	}
	if a.cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		opts.Registerer = a.registry
	}

	client, err := aurorax.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create AuroraX client: %w", err)
	}
	a.client = client
	return nil
}

// pushMetrics sends the run's search metrics to the Pushgateway.
func (a *app) pushMetrics(cmd *cobra.Command) error {
	if a.registry == nil {
		return nil
	}

	pusher := push.New(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job).
		Gatherer(a.registry).
		Grouping("command", cmd.Name())
	if err := pusher.PushContext(cmd.Context()); err != nil {
		// A failed push does not fail the command.
		a.logger.Warn("failed to push metrics",
			slog.String("url", a.cfg.Metrics.PushgatewayURL),
			slog.String("error", err.Error()),
		)
		return nil
	}

	a.logger.Debug("pushed metrics", slog.String("url", a.cfg.Metrics.PushgatewayURL))
	return nil
}

func setupLogger(level, format string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
