package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/sources"
	"github.com/robert-malhotra/aurorax-client/pkg/aurorax"
)

func newSourcesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Look up AuroraX data sources",
	}
	cmd.AddCommand(
		newSourcesListCommand(a),
		newSourcesGetCommand(a),
	)
	return cmd
}

func newSourcesListCommand(a *app) *cobra.Command {
	var (
		filter aurorax.SourceFilter
		format string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Format = sources.Format(format)
			list, err := a.client.Sources().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No data sources found.")
				return nil
			}
			for _, ds := range list {
				fmt.Fprintf(out, "  %5d  %-14s %s\n", ds.Identifier, ds.SourceType, ds.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Program, "program", "", "program name")
	cmd.Flags().StringVar(&filter.Platform, "platform", "", "platform name")
	cmd.Flags().StringVar(&filter.InstrumentType, "instrument-type", "", "instrument type")
	cmd.Flags().StringVar(&filter.SourceType, "source-type", "", "source type (ground, leo, heo, lunar, event_list, not_applicable)")
	cmd.Flags().StringVar(&filter.Owner, "owner", "", "owner email")
	cmd.Flags().StringVar(&filter.Order, "order", "", "sort by identifier or display_name")
	cmd.Flags().StringVar(&format, "format", string(sources.FormatBasicInfo), "record detail (identifier_only, basic_info, with_metadata, full_record)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output data sources as JSON")
	return cmd
}

func newSourcesGetCommand(a *app) *cobra.Command {
	var (
		program        string
		platform       string
		instrumentType string
		format         string
	)
	cmd := &cobra.Command{
		Use:   "get [identifier]",
		Short: "Show one data source by identifier or by program, platform and instrument type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client.Sources()
			ctx := cmd.Context()

			var (
				ds  *aurorax.DataSource
				err error
			)
			if len(args) == 1 {
				id, convErr := strconv.Atoi(args[0])
				if convErr != nil {
					return fmt.Errorf("identifier must be an integer, got %q", args[0])
				}
				ds, err = client.GetByIdentifier(ctx, id, sources.Format(format))
			} else {
				if program == "" || platform == "" || instrumentType == "" {
					return fmt.Errorf("give an identifier or all of --program, --platform and --instrument-type")
				}
				ds, err = client.Get(ctx, program, platform, instrumentType, sources.Format(format))
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd, ds)
		},
	}
	cmd.Flags().StringVar(&program, "program", "", "program name")
	cmd.Flags().StringVar(&platform, "platform", "", "platform name")
	cmd.Flags().StringVar(&instrumentType, "instrument-type", "", "instrument type")
	cmd.Flags().StringVar(&format, "format", string(sources.FormatFullRecord), "record detail (identifier_only, basic_info, with_metadata, full_record)")
	return cmd
}
