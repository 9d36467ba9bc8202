package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/config"
	"github.com/robert-malhotra/aurorax-client/internal/fakeapi"
)

func newFakeAPICommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fake-api",
		Short: "Run an in-memory AuroraX API for local development",
	}
	cmd.AddCommand(newFakeAPIServeCommand(a))
	return cmd
}

func newFakeAPIServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fake AuroraX API until interrupted",
		Long: `Serve an in-memory AuroraX API. Searches complete after
FAKE_POLLS_UNTIL_COMPLETE status polls and return the rows found in
FAKE_FIXTURES_DIR (data_sources.json, conjunctions.json, ephemeris.json,
data_products.json).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := &a.cfg.Fake
			if cmd.Flags().Changed("host") {
				fc.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				fc.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("fixtures") {
				fc.FixturesDir, _ = cmd.Flags().GetString("fixtures")
			}

			ln, err := net.Listen("tcp", fc.Address())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", fc.Address(), err)
			}
			return serveFake(cmd.Context(), ln, fc, a.logger)
		},
	}
	cmd.Flags().String("host", "", "listen host (default FAKE_HOST)")
	cmd.Flags().Int("port", 0, "listen port (default FAKE_PORT)")
	cmd.Flags().String("fixtures", "", "fixtures directory (default FAKE_FIXTURES_DIR)")
	return cmd
}

// serveFake serves the fake API on ln until ctx is done, then shuts the
// server down gracefully.
func serveFake(ctx context.Context, ln net.Listener, fc *config.FakeConfig, logger *slog.Logger) error {
	opts := fakeapi.Options{
		APIKey:             fc.APIKey,
		AdminAPIKey:        fc.AdminAPIKey,
		PollsUntilComplete: fc.PollsUntilComplete,
		RequestTTL:         fc.RequestTTL,
		Logger:             logger,
	}

	if fc.FixturesDir != "" {
		fixtures, err := config.LoadFixtures(fc.FixturesDir)
		if err != nil {
			return err
		}
		opts.DataSources = fixtures.DataSources
		opts.Results = fixtures.Results
		logger.Info("loaded fixtures",
			slog.String("dir", fc.FixturesDir),
			slog.Int("data_sources", len(fixtures.DataSources)),
		)
	} else {
		logger.Warn("no fixtures directory configured, searches will return no results")
	}

	fake := fakeapi.New(opts)
	defer fake.Close()

	server := &http.Server{
		Handler:      fake.Router(),
		ReadTimeout:  fc.ReadTimeout,
		WriteTimeout: fc.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("fake AuroraX API listening", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), fc.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", slog.Duration("timeout", fc.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
