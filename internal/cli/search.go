package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/search"
	"github.com/robert-malhotra/aurorax-client/pkg/aurorax"
)

func newSearchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run conjunction, ephemeris and data product searches",
	}
	cmd.AddCommand(
		newConjunctionsCommand(a),
		newEphemerisCommand(a),
		newDataProductsCommand(a),
	)
	return cmd
}

// searchFlags are shared by every search subcommand.
type searchFlags struct {
	start    string
	end      string
	noWait   bool
	asJSON   bool
	describe bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start of the search window, UTC (e.g. 2020-01-01T00:00:00)")
	cmd.Flags().StringVar(&f.end, "end", "", "end of the search window, UTC")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "submit the search and print its request id without waiting")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "output results as JSON")
	cmd.Flags().BoolVar(&f.describe, "describe", false, "print the server's description of the query instead of running it")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *searchFlags) timeRange() (time.Time, time.Time, error) {
	start, err := search.ParseTime(f.start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	end, err := search.ParseTime(f.end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}

// runSearch drives s according to the shared flags. On success without
// --no-wait or --describe, s.Data holds the results and done is true.
func runSearch[R any](cmd *cobra.Command, a *app, s *aurorax.Search[R], f *searchFlags) (done bool, err error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if f.describe {
		text, err := s.Describe(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, text)
		return false, nil
	}

	if f.noWait {
		if err := s.Execute(ctx); err != nil {
			return false, err
		}
		if f.asJSON {
			return false, writeJSON(cmd, map[string]string{
				"request_id":  s.RequestID,
				"request_url": s.RequestURL,
			})
		}
		fmt.Fprintf(out, "Submitted %s search %s\n", s.Kind().Name, s.RequestID)
		return false, nil
	}

	if err := aurorax.Run(ctx, a.client, s); err != nil {
		if errors.Is(err, aurorax.ErrTimeout) {
			return false, fmt.Errorf("%w (check on it later with: aurorax requests status %s %s)",
				err, s.Kind().Name, s.RequestID)
		}
		return false, err
	}
	return true, nil
}

func printResults[R any](cmd *cobra.Command, s *aurorax.Search[R], asJSON bool, printFn func(io.Writer, string, []R)) error {
	if asJSON {
		return writeJSON(cmd, s.Data)
	}
	printFn(cmd.OutOrStdout(), s.RequestID, s.Data)
	return nil
}

func newConjunctionsCommand(a *app) *cobra.Command {
	var (
		sf               searchFlags
		groundPrograms   []string
		spacePrograms    []string
		spaceHemispheres []string
		eventsPlatforms  []string
		adhoc            []string
		distance         float64
		distancePairs    map[string]string
		conjunctionTypes []string
		precision        int
	)

	cmd := &cobra.Command{
		Use:   "conjunctions",
		Short: "Search for conjunctions between ground, space, event and custom location criteria",
		Long: `Search for conjunctions. Every --ground-program, --space-program,
--events-platform and --adhoc flag adds one criteria block; comma-separated
values within one flag select several programs for the same block.

Example:
  aurorax search conjunctions --start 2020-01-01T00:00:00 --end 2020-01-01T06:59:59 \
    --ground-program themis-asi --space-program swarm --distance 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := sf.timeRange()
			if err != nil {
				return err
			}

			q := &aurorax.ConjunctionQuery{
				Start:                start,
				End:                  end,
				EpochSearchPrecision: precision,
			}
			for _, v := range groundPrograms {
				q.Ground = append(q.Ground, aurorax.GroundBlock{Programs: splitList(v)})
			}
			hemispheres := make([]search.Hemisphere, 0, len(spaceHemispheres))
			for _, h := range spaceHemispheres {
				hemispheres = append(hemispheres, search.Hemisphere(h))
			}
			for _, v := range spacePrograms {
				q.Space = append(q.Space, aurorax.SpaceBlock{Programs: splitList(v), Hemisphere: hemispheres})
			}
			for _, v := range eventsPlatforms {
				q.Events = append(q.Events, aurorax.EventsBlock{Platforms: splitList(v)})
			}
			for _, v := range adhoc {
				block, err := parseAdhoc(v)
				if err != nil {
					return err
				}
				q.CustomLocations = append(q.CustomLocations, block)
			}
			for _, t := range conjunctionTypes {
				q.ConjunctionTypes = append(q.ConjunctionTypes, search.ConjunctionType(t))
			}

			if !cmd.Flags().Changed("distance") && len(distancePairs) == 0 {
				return fmt.Errorf("--distance or --distance-pair is required")
			}
			if cmd.Flags().Changed("distance") {
				q.Distance.Default = search.Km(distance)
			}
			q.Distance.Overrides, err = parseDistancePairs(distancePairs)
			if err != nil {
				return err
			}

			s := a.client.Conjunctions(q)
			done, err := runSearch(cmd, a, s, &sf)
			if err != nil || !done {
				return err
			}
			return printResults(cmd, s, sf.asJSON, printConjunctions)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringArrayVar(&groundPrograms, "ground-program", nil, "add a ground block for these programs (comma-separated)")
	cmd.Flags().StringArrayVar(&spacePrograms, "space-program", nil, "add a space block for these programs (comma-separated)")
	cmd.Flags().StringSliceVar(&spaceHemispheres, "space-hemisphere", nil, "restrict space blocks to hemispheres (northern, southern)")
	cmd.Flags().StringArrayVar(&eventsPlatforms, "events-platform", nil, "add an events block for these event list platforms (comma-separated)")
	cmd.Flags().StringArrayVar(&adhoc, "adhoc", nil, `add a custom location block, "lat,lon;lat,lon"`)
	cmd.Flags().Float64Var(&distance, "distance", 0, "maximum distance in km between every pair of blocks")
	cmd.Flags().StringToStringVar(&distancePairs, "distance-pair", nil, `per-pair distance, e.g. ground1-space1=300 ("none" leaves the pair unconstrained)`)
	cmd.Flags().StringSliceVar(&conjunctionTypes, "conjunction-type", nil, "conjunction types (nbtrace, sbtrace, geographic); default nbtrace")
	cmd.Flags().IntVar(&precision, "precision", 0, "epoch search precision in seconds (30 or 60); default 60")
	return cmd
}

func newEphemerisCommand(a *app) *cobra.Command {
	var (
		sf       searchFlags
		src      sourceFlags
		geoJSON  string
		location string
	)

	cmd := &cobra.Command{
		Use:   "ephemeris",
		Short: "Search for ephemeris records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := sf.timeRange()
			if err != nil {
				return err
			}
			switch geoJSON {
			case "", "points", "tracks", "wkt":
			default:
				return fmt.Errorf("--geojson must be one of points, tracks, wkt, got %q", geoJSON)
			}
			field := search.LocationField(location)
			switch field {
			case search.LocationGeo, search.LocationNBTrace, search.LocationSBTrace:
			default:
				return fmt.Errorf("--location must be one of geo, nbtrace, sbtrace, got %q", location)
			}

			filter, err := src.metadataFilter()
			if err != nil {
				return err
			}

			q := &aurorax.EphemerisQuery{
				Start:           start,
				End:             end,
				Programs:        src.programs,
				Platforms:       src.platforms,
				InstrumentTypes: src.instrumentTypes,
				MetadataFilters: filter,
			}

			s := a.client.Ephemeris(q)
			done, err := runSearch(cmd, a, s, &sf)
			if err != nil || !done {
				return err
			}

			switch geoJSON {
			case "points":
				fc, err := search.EphemerisPoints(s.Data, field)
				if err != nil {
					return err
				}
				return writeJSON(cmd, fc)
			case "tracks":
				fc, err := search.EphemerisTracks(s.Data, field)
				if err != nil {
					return err
				}
				return writeJSON(cmd, fc)
			case "wkt":
				fc, err := search.EphemerisTracks(s.Data, field)
				if err != nil {
					return err
				}
				return printTrackWKT(cmd.OutOrStdout(), fc)
			}
			return printResults(cmd, s, sf.asJSON, printEphemeris)
		},
	}

	sf.register(cmd)
	src.register(cmd)
	cmd.Flags().StringVar(&geoJSON, "geojson", "", "export results as GeoJSON points or tracks, or as one WKT track per line (points, tracks, wkt)")
	cmd.Flags().StringVar(&location, "location", string(search.LocationGeo), "position exported by --geojson (geo, nbtrace, sbtrace)")
	return cmd
}

func newDataProductsCommand(a *app) *cobra.Command {
	var (
		sf    searchFlags
		src   sourceFlags
		types []string
	)

	cmd := &cobra.Command{
		Use:   "data-products",
		Short: "Search for data products such as keograms and movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := sf.timeRange()
			if err != nil {
				return err
			}
			filter, err := src.metadataFilter()
			if err != nil {
				return err
			}

			q := &aurorax.DataProductQuery{
				Start:           start,
				End:             end,
				Programs:        src.programs,
				Platforms:       src.platforms,
				InstrumentTypes: src.instrumentTypes,
				MetadataFilters: filter,
			}
			for _, t := range types {
				q.DataProductTypes = append(q.DataProductTypes, search.DataProductType(t))
			}

			s := a.client.DataProducts(q)
			done, err := runSearch(cmd, a, s, &sf)
			if err != nil || !done {
				return err
			}
			return printResults(cmd, s, sf.asJSON, printDataProducts)
		},
	}

	sf.register(cmd)
	src.register(cmd)
	cmd.Flags().StringSliceVar(&types, "type", nil, "data product types (keogram, montage, movie, summary_plot, data_availability)")
	return cmd
}

// sourceFlags select data sources for ephemeris and data product searches.
type sourceFlags struct {
	programs        []string
	platforms       []string
	instrumentTypes []string
	metadata        []string
	metadataOp      string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.programs, "program", nil, "program names")
	cmd.Flags().StringSliceVar(&f.platforms, "platform", nil, "platform names")
	cmd.Flags().StringSliceVar(&f.instrumentTypes, "instrument-type", nil, "instrument types")
	cmd.Flags().StringArrayVar(&f.metadata, "metadata", nil, `metadata filter expression "key:operator:value1,value2"`)
	cmd.Flags().StringVar(&f.metadataOp, "metadata-operator", "and", "logical operator joining metadata expressions (and, or)")
}

func (f *sourceFlags) metadataFilter() (*search.MetadataFilter, error) {
	if len(f.metadata) == 0 {
		return nil, nil
	}
	expressions := make([]search.FilterExpression, 0, len(f.metadata))
	for _, m := range f.metadata {
		expr, err := parseMetadataExpression(m)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, expr)
	}
	return search.NewMetadataFilter(f.metadataOp, expressions...)
}

func parseMetadataExpression(s string) (search.FilterExpression, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return search.FilterExpression{}, fmt.Errorf("--metadata %q must look like key:operator:value1,value2", s)
	}
	return search.NewFilterExpression(parts[0], splitList(parts[2]), parts[1])
}

// parseAdhoc parses "lat,lon;lat,lon" into a custom location block.
func parseAdhoc(s string) (aurorax.CustomLocationBlock, error) {
	var block aurorax.CustomLocationBlock
	for _, point := range strings.Split(s, ";") {
		coords := strings.Split(strings.TrimSpace(point), ",")
		if len(coords) != 2 {
			return block, fmt.Errorf("--adhoc point %q must look like lat,lon", point)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return block, fmt.Errorf("--adhoc latitude %q: %w", coords[0], err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return block, fmt.Errorf("--adhoc longitude %q: %w", coords[1], err)
		}
		block.Locations = append(block.Locations, aurorax.LatLon{Lat: lat, Lon: lon})
	}
	return block, nil
}

func parseDistancePairs(pairs map[string]string) (map[string]*float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]*float64, len(pairs))
	for key, value := range pairs {
		if strings.EqualFold(value, "none") {
			out[key] = nil
			continue
		}
		km, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("--distance-pair %s: %w", key, err)
		}
		out[key] = search.Km(km)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
