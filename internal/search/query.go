package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// ConjunctionType selects which positions the conjunction engine compares.
type ConjunctionType string

const (
	ConjunctionNBTrace    ConjunctionType = "nbtrace"
	ConjunctionSBTrace    ConjunctionType = "sbtrace"
	ConjunctionGeographic ConjunctionType = "geographic"
)

// DataProductType filters data product searches.
type DataProductType string

const (
	DataProductKeogram          DataProductType = "keogram"
	DataProductMontage          DataProductType = "montage"
	DataProductMovie            DataProductType = "movie"
	DataProductSummaryPlot      DataProductType = "summary_plot"
	DataProductDataAvailability DataProductType = "data_availability"
)

// DefaultEpochSearchPrecision is used when a conjunction query leaves the
// precision unset.
const DefaultEpochSearchPrecision = 60

// Query produces the JSON body submitted to a search endpoint.
type Query interface {
	Body() (any, error)
}

// ConjunctionQuery describes a conjunction search.
type ConjunctionQuery struct {
	Start           time.Time
	End             time.Time
	Ground          []GroundBlock
	Space           []SpaceBlock
	Events          []EventsBlock
	CustomLocations []CustomLocationBlock
	Distance        Distance

	// ConjunctionTypes defaults to nbtrace.
	ConjunctionTypes []ConjunctionType

	// EpochSearchPrecision is 30 or 60 seconds; 0 selects the default.
	EpochSearchPrecision int
}

// ConjunctionBody is the request body of a conjunction search.
type ConjunctionBody struct {
	Start                string              `json:"start"`
	End                  string              `json:"end"`
	Ground               []map[string]any    `json:"ground"`
	Space                []map[string]any    `json:"space"`
	Events               []map[string]any    `json:"events"`
	Adhoc                []map[string]any    `json:"adhoc"`
	ConjunctionTypes     []string            `json:"conjunction_types"`
	MaxDistances         map[string]*float64 `json:"max_distances"`
	EpochSearchPrecision int                 `json:"epoch_search_precision"`
}

// Counts tallies the query's criteria blocks.
func (q *ConjunctionQuery) Counts() BlockCounts {
	return BlockCounts{
		Ground: len(q.Ground),
		Space:  len(q.Space),
		Events: len(q.Events),
		Custom: len(q.CustomLocations),
	}
}

// Blocks returns every criteria block in label order.
func (q *ConjunctionQuery) Blocks() []CriteriaBlock {
	blocks := make([]CriteriaBlock, 0, q.Counts().Total())
	for _, b := range q.Ground {
		blocks = append(blocks, b)
	}
	for _, b := range q.Space {
		blocks = append(blocks, b)
	}
	for _, b := range q.Events {
		blocks = append(blocks, b)
	}
	for _, b := range q.CustomLocations {
		blocks = append(blocks, b)
	}
	return blocks
}

// Build validates the query and assembles its request body. The block count
// is checked before anything else.
func (q *ConjunctionQuery) Build() (*ConjunctionBody, error) {
	counts := q.Counts()
	if err := CheckBlockCount(counts); err != nil {
		return nil, err
	}

	for i, b := range q.Blocks() {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("criteria block %d (%s): %w", i+1, b.Kind(), err)
		}
	}

	if err := checkTimeRange(q.Start, q.End); err != nil {
		return nil, err
	}

	types, err := normalizeConjunctionTypes(q.ConjunctionTypes)
	if err != nil {
		return nil, err
	}

	precision, err := normalizePrecision(q.EpochSearchPrecision)
	if err != nil {
		return nil, err
	}

	distances, err := BuildDistances(counts, q.Distance)
	if err != nil {
		return nil, err
	}

	return &ConjunctionBody{
		Start:                FormatTime(q.Start),
		End:                  FormatTime(q.End),
		Ground:               blockQueries(q.Ground),
		Space:                blockQueries(q.Space),
		Events:               blockQueries(q.Events),
		Adhoc:                blockQueries(q.CustomLocations),
		ConjunctionTypes:     types,
		MaxDistances:         distances,
		EpochSearchPrecision: precision,
	}, nil
}

// Body implements Query.
func (q *ConjunctionQuery) Body() (any, error) {
	return q.Build()
}

func blockQueries[B CriteriaBlock](blocks []B) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.toQuery())
	}
	return out
}

func normalizeConjunctionTypes(types []ConjunctionType) ([]string, error) {
	if len(types) == 0 {
		return []string{string(ConjunctionNBTrace)}, nil
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		if err := validate.Var(string(t), "oneof=nbtrace sbtrace geographic"); err != nil {
			return nil, fmt.Errorf("%w: conjunction type %q not allowed, must be one of nbtrace, sbtrace, geographic",
				aurorax.ErrValidation, t)
		}
		out = append(out, string(t))
	}
	return out, nil
}

func normalizePrecision(p int) (int, error) {
	switch p {
	case 0:
		return DefaultEpochSearchPrecision, nil
	case 30, 60:
		return p, nil
	default:
		return 0, fmt.Errorf("%w: epoch search precision must be 30 or 60 seconds, got %d", aurorax.ErrValidation, p)
	}
}

func checkTimeRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", aurorax.ErrBadParameters)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", aurorax.ErrBadParameters, FormatTime(start), FormatTime(end))
	}
	return nil
}

// EphemerisQuery describes an ephemeris search.
type EphemerisQuery struct {
	Start           time.Time
	End             time.Time
	Programs        []string
	Platforms       []string
	InstrumentTypes []string
	MetadataFilters *MetadataFilter
}

// EphemerisSources selects data sources in an ephemeris search body.
type EphemerisSources struct {
	Programs                 []string       `json:"programs"`
	Platforms                []string       `json:"platforms"`
	InstrumentTypes          []string       `json:"instrument_types"`
	EphemerisMetadataFilters map[string]any `json:"ephemeris_metadata_filters"`
}

// EphemerisBody is the request body of an ephemeris search.
type EphemerisBody struct {
	DataSources EphemerisSources `json:"data_sources"`
	Start       string           `json:"start"`
	End         string           `json:"end"`
}

// Build validates the query and assembles its request body. At least one
// data source criterion is required.
func (q *EphemerisQuery) Build() (*EphemerisBody, error) {
	if err := requireCriteria(q.Programs, q.Platforms, q.InstrumentTypes, q.MetadataFilters); err != nil {
		return nil, err
	}
	if err := q.MetadataFilters.Validate(); err != nil {
		return nil, fmt.Errorf("metadata filters: %w", err)
	}
	if err := checkTimeRange(q.Start, q.End); err != nil {
		return nil, err
	}

	return &EphemerisBody{
		DataSources: EphemerisSources{
			Programs:                 orEmpty(q.Programs),
			Platforms:                orEmpty(q.Platforms),
			InstrumentTypes:          orEmpty(q.InstrumentTypes),
			EphemerisMetadataFilters: q.MetadataFilters.ToQuery(),
		},
		Start: FormatTime(q.Start),
		End:   FormatTime(q.End),
	}, nil
}

// Body implements Query.
func (q *EphemerisQuery) Body() (any, error) {
	return q.Build()
}

// DataProductQuery describes a data product search.
type DataProductQuery struct {
	Start            time.Time
	End              time.Time
	Programs         []string
	Platforms        []string
	InstrumentTypes  []string
	DataProductTypes []DataProductType
	MetadataFilters  *MetadataFilter
}

// DataProductSources selects data sources in a data product search body.
type DataProductSources struct {
	Programs                   []string       `json:"programs"`
	Platforms                  []string       `json:"platforms"`
	InstrumentTypes            []string       `json:"instrument_types"`
	DataProductMetadataFilters map[string]any `json:"data_product_metadata_filters"`
}

// DataProductBody is the request body of a data product search.
type DataProductBody struct {
	DataSources            DataProductSources `json:"data_sources"`
	Start                  string             `json:"start"`
	End                    string             `json:"end"`
	DataProductTypeFilters []string           `json:"data_product_type_filters"`
}

// Build validates the query and assembles its request body.
func (q *DataProductQuery) Build() (*DataProductBody, error) {
	if err := q.MetadataFilters.Validate(); err != nil {
		return nil, fmt.Errorf("metadata filters: %w", err)
	}
	if err := checkTimeRange(q.Start, q.End); err != nil {
		return nil, err
	}

	types := make([]string, 0, len(q.DataProductTypes))
	for _, t := range q.DataProductTypes {
		if err := validate.Var(string(t), "oneof=keogram montage movie summary_plot data_availability"); err != nil {
			return nil, fmt.Errorf("%w: data product type %q not allowed, must be one of keogram, montage, movie, summary_plot, data_availability",
				aurorax.ErrValidation, t)
		}
		types = append(types, string(t))
	}

	return &DataProductBody{
		DataSources: DataProductSources{
			Programs:                   orEmpty(q.Programs),
			Platforms:                  orEmpty(q.Platforms),
			InstrumentTypes:            orEmpty(q.InstrumentTypes),
			DataProductMetadataFilters: q.MetadataFilters.ToQuery(),
		},
		Start:                  FormatTime(q.Start),
		End:                    FormatTime(q.End),
		DataProductTypeFilters: types,
	}, nil
}

// Body implements Query.
func (q *DataProductQuery) Body() (any, error) {
	return q.Build()
}

// RawQuery is a caller-assembled request body sent as-is.
type RawQuery map[string]any

// ParseRawQuery decodes a JSON document into a RawQuery.
func ParseRawQuery(data []byte) (RawQuery, error) {
	var q RawQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: invalid raw query: %v", aurorax.ErrBadParameters, err)
	}
	return q, nil
}

// Body implements Query.
func (q RawQuery) Body() (any, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("%w: raw query is empty", aurorax.ErrBadParameters)
	}
	return map[string]any(q), nil
}

func requireCriteria(programs, platforms, instrumentTypes []string, filter *MetadataFilter) error {
	if len(programs) == 0 && len(platforms) == 0 && len(instrumentTypes) == 0 &&
		(filter == nil || len(filter.Expressions) == 0) {
		return fmt.Errorf("%w: at least one filter criteria parameter besides start and end must be specified",
			aurorax.ErrBadParameters)
	}
	return nil
}
