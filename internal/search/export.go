package search

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/aurorax-client/pkg/geojson"
)

// LocationField selects which position of an ephemeris record to export.
type LocationField string

const (
	LocationGeo     LocationField = "geo"
	LocationNBTrace LocationField = "nbtrace"
	LocationSBTrace LocationField = "sbtrace"
)

func (r EphemerisRecord) location(field LocationField) (Location, error) {
	switch field {
	case LocationGeo, "":
		return r.LocationGeo, nil
	case LocationNBTrace:
		return r.NBTrace, nil
	case LocationSBTrace:
		return r.SBTrace, nil
	}
	return Location{}, fmt.Errorf("unknown location field %q, must be one of geo, nbtrace, sbtrace", field)
}

// EphemerisPoints exports one Point feature per record. Records without the
// selected position are skipped.
func EphemerisPoints(records []EphemerisRecord, field LocationField) (*geojson.FeatureCollection, error) {
	features := make([]*geojson.Feature, 0, len(records))
	for i, r := range records {
		loc, err := r.location(field)
		if err != nil {
			return nil, err
		}
		if !loc.Valid() {
			continue
		}
		g, err := geojson.NewPoint(*loc.Lon, *loc.Lat)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		features = append(features, geojson.NewFeature(g, map[string]any{
			"epoch":      FormatTime(r.Epoch),
			"identifier": r.DataSource.Identifier,
			"program":    r.DataSource.Program,
			"platform":   r.DataSource.Platform,
		}))
	}
	return geojson.NewFeatureCollection(features...)
}

// EphemerisTracks exports one LineString per data source, ordered by epoch.
// Sources with fewer than two positions are left out.
func EphemerisTracks(records []EphemerisRecord, field LocationField) (*geojson.FeatureCollection, error) {
	type track struct {
		source  EphemerisRecord
		records []EphemerisRecord
	}

	var order []int
	tracks := map[int]*track{}
	for _, r := range records {
		loc, err := r.location(field)
		if err != nil {
			return nil, err
		}
		if !loc.Valid() {
			continue
		}
		id := r.DataSource.Identifier
		t, ok := tracks[id]
		if !ok {
			t = &track{source: r}
			tracks[id] = t
			order = append(order, id)
		}
		t.records = append(t.records, r)
	}

	features := make([]*geojson.Feature, 0, len(order))
	for _, id := range order {
		t := tracks[id]
		if len(t.records) < 2 {
			continue
		}
		slices.SortStableFunc(t.records, func(a, b EphemerisRecord) int {
			return a.Epoch.Compare(b.Epoch)
		})

		coords := make([][]float64, 0, len(t.records))
		for _, r := range t.records {
			loc, _ := r.location(field)
			coords = append(coords, []float64{*loc.Lon, *loc.Lat})
		}
		g, err := geojson.NewLineString(coords)
		if err != nil {
			return nil, fmt.Errorf("data source %d: %w", id, err)
		}
		features = append(features, geojson.NewFeature(g, map[string]any{
			"identifier": id,
			"program":    t.source.DataSource.Program,
			"platform":   t.source.DataSource.Platform,
			"start":      FormatTime(t.records[0].Epoch),
			"end":        FormatTime(t.records[len(t.records)-1].Epoch),
		}))
	}
	return geojson.NewFeatureCollection(features...)
}
