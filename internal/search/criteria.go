package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// MaxCriteriaBlocks is the most criteria blocks the conjunction engine accepts
// in one search.
const MaxCriteriaBlocks = 10

// BlockKind names a criteria block variant. The value doubles as the label
// prefix used in max_distances keys.
type BlockKind string

const (
	KindGround BlockKind = "ground"
	KindSpace  BlockKind = "space"
	KindEvents BlockKind = "events"
	KindAdhoc  BlockKind = "adhoc"
)

// Hemisphere restricts a space criteria block.
type Hemisphere string

const (
	HemisphereNorthern Hemisphere = "northern"
	HemisphereSouthern Hemisphere = "southern"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CriteriaBlock is one group of data sources, or raw locations, to conjoin.
// The set of implementations is closed: GroundBlock, SpaceBlock, EventsBlock
// and CustomLocationBlock.
type CriteriaBlock interface {
	Kind() BlockKind
	Validate() error
	toQuery() map[string]any
}

// GroundBlock selects ground-based instruments.
type GroundBlock struct {
	Programs        []string        `mapstructure:"programs" validate:"dive,required"`
	Platforms       []string        `mapstructure:"platforms" validate:"dive,required"`
	InstrumentTypes []string        `mapstructure:"instrument_types" validate:"dive,required"`
	MetadataFilters *MetadataFilter `mapstructure:"-" validate:"-"`
}

func (GroundBlock) Kind() BlockKind { return KindGround }

func (b GroundBlock) Validate() error {
	return validateBlock(b, b.MetadataFilters)
}

func (b GroundBlock) toQuery() map[string]any {
	return sourceQuery(b.Programs, b.Platforms, b.InstrumentTypes, b.MetadataFilters)
}

// SpaceBlock selects spacecraft, optionally restricted by hemisphere.
type SpaceBlock struct {
	Programs        []string        `mapstructure:"programs" validate:"dive,required"`
	Platforms       []string        `mapstructure:"platforms" validate:"dive,required"`
	InstrumentTypes []string        `mapstructure:"instrument_types" validate:"dive,required"`
	Hemisphere      []Hemisphere    `mapstructure:"hemisphere" validate:"max=2,dive,oneof=northern southern"`
	MetadataFilters *MetadataFilter `mapstructure:"-" validate:"-"`
}

func (SpaceBlock) Kind() BlockKind { return KindSpace }

func (b SpaceBlock) Validate() error {
	return validateBlock(b, b.MetadataFilters)
}

func (b SpaceBlock) toQuery() map[string]any {
	q := sourceQuery(b.Programs, b.Platforms, b.InstrumentTypes, b.MetadataFilters)
	hemisphere := make([]string, 0, len(b.Hemisphere))
	for _, h := range b.Hemisphere {
		hemisphere = append(hemisphere, string(h))
	}
	q["hemisphere"] = hemisphere
	return q
}

// EventsBlock selects curated event lists. The API expects the program to be
// "events" regardless of what the caller set.
type EventsBlock struct {
	Platforms       []string        `mapstructure:"platforms" validate:"dive,required"`
	InstrumentTypes []string        `mapstructure:"instrument_types" validate:"dive,required"`
	MetadataFilters *MetadataFilter `mapstructure:"-" validate:"-"`
}

func (EventsBlock) Kind() BlockKind { return KindEvents }

func (b EventsBlock) Validate() error {
	return validateBlock(b, b.MetadataFilters)
}

func (b EventsBlock) toQuery() map[string]any {
	return sourceQuery([]string{"events"}, b.Platforms, b.InstrumentTypes, b.MetadataFilters)
}

// LatLon is a geographic position in decimal degrees.
type LatLon struct {
	Lat float64 `mapstructure:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `mapstructure:"lon" validate:"gte=-180,lte=180"`
}

// CustomLocationBlock conjoins against ad-hoc geographic points.
type CustomLocationBlock struct {
	Locations []LatLon `mapstructure:"locations" validate:"required,min=1,dive"`
}

func (CustomLocationBlock) Kind() BlockKind { return KindAdhoc }

func (b CustomLocationBlock) Validate() error {
	return validateBlock(b, nil)
}

func (b CustomLocationBlock) toQuery() map[string]any {
	locations := make([]map[string]float64, 0, len(b.Locations))
	for _, loc := range b.Locations {
		locations = append(locations, map[string]float64{"lat": loc.Lat, "lon": loc.Lon})
	}
	return map[string]any{"locations": locations}
}

// BlockCounts tallies criteria blocks by kind.
type BlockCounts struct {
	Ground int
	Space  int
	Events int
	Custom int
}

// CountBlocks tallies a list of criteria blocks.
func CountBlocks(blocks []CriteriaBlock) BlockCounts {
	var c BlockCounts
	for _, b := range blocks {
		switch b.Kind() {
		case KindGround:
			c.Ground++
		case KindSpace:
			c.Space++
		case KindEvents:
			c.Events++
		case KindAdhoc:
			c.Custom++
		}
	}
	return c
}

// Total returns the number of blocks of every kind.
func (c BlockCounts) Total() int {
	return c.Ground + c.Space + c.Events + c.Custom
}

// CheckBlockCount fails with aurorax.ErrBadParameters when the search has
// more than MaxCriteriaBlocks blocks.
func CheckBlockCount(c BlockCounts) error {
	if c.Total() > MaxCriteriaBlocks {
		return fmt.Errorf("%w: number of criteria blocks (%d) exceeds %d, please reduce the count",
			aurorax.ErrBadParameters, c.Total(), MaxCriteriaBlocks)
	}
	return nil
}

func validateBlock(block any, filter *MetadataFilter) error {
	if err := validate.Struct(block); err != nil {
		return fmt.Errorf("%w: %s", aurorax.ErrValidation, describeValidation(err))
	}
	if err := filter.Validate(); err != nil {
		return fmt.Errorf("metadata filters: %w", err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func sourceQuery(programs, platforms, instrumentTypes []string, filter *MetadataFilter) map[string]any {
	return map[string]any{
		"programs":                   orEmpty(programs),
		"platforms":                  orEmpty(platforms),
		"instrument_types":           orEmpty(instrumentTypes),
		"ephemeris_metadata_filters": filter.ToQuery(),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
