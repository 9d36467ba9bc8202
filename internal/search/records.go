package search

import (
	"time"

	"github.com/robert-malhotra/aurorax-client/internal/sources"
)

// Location is a latitude/longitude pair. Either coordinate may be missing,
// e.g. GSM positions of ground instruments.
type Location struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Valid reports whether both coordinates are present.
func (l Location) Valid() bool {
	return l.Lat != nil && l.Lon != nil
}

// Conjunction is an overlap in space and time between data sources from two
// or more criteria blocks.
type Conjunction struct {
	ConjunctionType ConjunctionType      `json:"conjunction_type"`
	Start           time.Time            `json:"start"`
	End             time.Time            `json:"end"`
	DataSources     []sources.DataSource `json:"data_sources"`
	MinDistance     float64              `json:"min_distance"`
	MaxDistance     float64              `json:"max_distance"`
	Events          []ConjunctionEvent   `json:"events"`
	ClosestEpoch    time.Time            `json:"closest_epoch"`
	FarthestEpoch   time.Time            `json:"farthest_epoch"`
}

// ConjunctionEvent is the sub-conjunction between one pair of data sources.
// Fields other than start and end are kept in Attributes as sent.
type ConjunctionEvent struct {
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Duration is the length of the conjunction.
func (c Conjunction) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// EphemerisRecord is the position of one data source at one epoch.
type EphemerisRecord struct {
	DataSource  sources.DataSource `json:"data_source"`
	Epoch       time.Time          `json:"epoch"`
	LocationGeo Location           `json:"location_geo"`
	LocationGSM Location           `json:"location_gsm"`
	NBTrace     Location           `json:"nbtrace"`
	SBTrace     Location           `json:"sbtrace"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// DataProductRecord is a product such as a keogram or movie covering a time
// range.
type DataProductRecord struct {
	DataSource      sources.DataSource `json:"data_source"`
	DataProductType DataProductType    `json:"data_product_type"`
	Start           time.Time          `json:"start"`
	End             time.Time          `json:"end"`
	URL             string             `json:"url"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
}
