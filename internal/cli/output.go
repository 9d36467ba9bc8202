package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/aurorax-client/internal/search"
	"github.com/robert-malhotra/aurorax-client/pkg/aurorax"
	"github.com/robert-malhotra/aurorax-client/pkg/geojson"
)

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func printConjunctions(w io.Writer, requestID string, records []aurorax.Conjunction) {
	fmt.Fprintf(w, "Found %d conjunctions (request %s)\n", len(records), requestID)
	for _, c := range records {
		names := make([]string, 0, len(c.DataSources))
		for _, ds := range c.DataSources {
			names = append(names, ds.String())
		}
		fmt.Fprintf(w, "  %-10s %s  %s  %.2f-%.2f km  %s\n",
			c.ConjunctionType,
			search.FormatTime(c.Start),
			c.Duration(),
			c.MinDistance, c.MaxDistance,
			strings.Join(names, ", "),
		)
	}
}

func printEphemeris(w io.Writer, requestID string, records []aurorax.EphemerisRecord) {
	fmt.Fprintf(w, "Found %d ephemeris records (request %s)\n", len(records), requestID)
	for _, r := range records {
		fmt.Fprintf(w, "  %s  %s  geo %s  nbtrace %s\n",
			search.FormatTime(r.Epoch),
			r.DataSource.String(),
			formatLocation(r.LocationGeo),
			formatLocation(r.NBTrace),
		)
	}
}

func printDataProducts(w io.Writer, requestID string, records []aurorax.DataProductRecord) {
	fmt.Fprintf(w, "Found %d data products (request %s)\n", len(records), requestID)
	for _, r := range records {
		fmt.Fprintf(w, "  %-17s %s - %s  %s\n",
			r.DataProductType,
			search.FormatTime(r.Start),
			search.FormatTime(r.End),
			r.URL,
		)
	}
}

// printTrackWKT writes one "program/platform<TAB>LINESTRING(...)" line per track.
func printTrackWKT(w io.Writer, fc *geojson.FeatureCollection) error {
	for _, f := range fc.Features {
		wkt, err := geojson.ToWKT(f.Geometry)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v/%v\t%s\n", f.Properties["program"], f.Properties["platform"], wkt)
	}
	return nil
}

func formatLocation(l search.Location) string {
	if !l.Valid() {
		return "-"
	}
	return fmt.Sprintf("%.3f,%.3f", *l.Lat, *l.Lon)
}
