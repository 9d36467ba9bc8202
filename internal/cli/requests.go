package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/search"
	"github.com/robert-malhotra/aurorax-client/pkg/aurorax"
)

func newRequestsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect, fetch, cancel and manage submitted search requests",
		Long: `Work with search requests that were submitted earlier, for example with
"aurorax search conjunctions --no-wait". <kind> is one of conjunctions,
ephemeris or data-products. Listing and deleting requests needs an
administrator API key.`,
	}
	cmd.AddCommand(
		newRequestStatusCommand(a),
		newRequestLogsCommand(a),
		newRequestDataCommand(a),
		newRequestCancelCommand(a),
		newRequestListCommand(a),
		newRequestDeleteCommand(a),
	)
	return cmd
}

func newRequestStatusCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <kind> <request-id>",
		Short: "Show the status of a search request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client.RequestStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			state := "running"
			switch {
			case status.Failed():
				state = "failed"
			case status.HasData():
				state = "completed"
			}
			fmt.Fprintf(out, "Request %s: %s\n", args[1], state)
			if status.SearchResult.ResultCount != nil {
				fmt.Fprintf(out, "Results: %d\n", *status.SearchResult.ResultCount)
			}
			if msg := status.LastLog(); msg != "" {
				fmt.Fprintf(out, "Last log: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the status document as JSON")
	return cmd
}

func newRequestLogsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "logs <kind> <request-id>",
		Short: "Show the server-side logs of a search request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := a.client.RequestLogs(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, logs)
			}
			for _, l := range logs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5s  %s\n", l.Timestamp, l.Level, l.Summary)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the logs as JSON")
	return cmd
}

func newRequestDataCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data <kind> <request-id>",
		Short: "Print the raw result rows of a completed search request as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.client.RequestData(cmd.Context(), args[0], args[1], nil)
			if err != nil {
				return err
			}
			return writeJSON(cmd, rows)
		},
	}
	return cmd
}

func newRequestCancelCommand(a *app) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "cancel <kind> <request-id>",
		Short: "Cancel a running search request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.client.CancelRequest(ctx, args[0], args[1]); err != nil {
				return err
			}
			if wait {
				if err := a.waitForCancel(cmd, args[0], args[1]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled request %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the server reports the request stopped")
	return cmd
}

// waitForCancel polls a cancelled request until it reports data or an
// error condition, bounded by the configured wait timeout.
func (a *app) waitForCancel(cmd *cobra.Command, kind, requestID string) error {
	opts := a.client.WaitOptions()
	ctx := cmd.Context()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		status, err := a.client.RequestStatus(ctx, kind, requestID)
		if err != nil {
			return err
		}
		if status.HasData() || status.Failed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: request %s did not stop within %s", aurorax.ErrTimeout, requestID, opts.Timeout)
		case <-ticker.C:
		}
	}
}

func newRequestListCommand(a *app) *cobra.Command {
	var (
		searchType string
		active     bool
		failed     bool
		start      string
		end        string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List search requests (administrator API key required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := aurorax.ListFilter{SearchType: searchType}
			if cmd.Flags().Changed("active") {
				filter.Active = &active
			}
			if cmd.Flags().Changed("failed") {
				filter.ErrorCondition = &failed
			}
			if start != "" {
				t, err := search.ParseTime(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				filter.Start = &t
			}
			if end != "" {
				t, err := search.ParseTime(end)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				filter.End = &t
			}

			requests, err := a.client.ListRequests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd, requests)
		},
	}
	cmd.Flags().StringVar(&searchType, "search-type", "", "only list requests of this type (conjunction, ephemeris, data_product)")
	cmd.Flags().BoolVar(&active, "active", false, "only list active (or, with --active=false, finished) requests")
	cmd.Flags().BoolVar(&failed, "failed", false, "only list requests that ended with (or without) an error condition")
	cmd.Flags().StringVar(&start, "start", "", "only list requests submitted after this time")
	cmd.Flags().StringVar(&end, "end", "", "only list requests submitted before this time")
	return cmd
}

func newRequestDeleteCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <request-id>",
		Short: "Delete a search request and its results (administrator API key required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteRequest(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted request %s\n", args[0])
			return nil
		},
	}
	return cmd
}
