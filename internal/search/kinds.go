package search

import (
	"encoding/json"
	"strings"
)

// Kind holds what differs between the search kinds: endpoints and the row
// decoder for the kind's record type.
type Kind[R any] struct {
	// Name is the kind's endpoint segment, e.g. "conjunctions".
	Name string

	// SearchType is the kind's value in the admin request listing.
	SearchType string

	describeName string
	decode       func(json.RawMessage) (R, error)
}

// Conjunctions searches for conjunctions between criteria blocks.
var Conjunctions = Kind[Conjunction]{
	Name:         "conjunctions",
	SearchType:   "conjunction",
	describeName: "conjunction",
	decode:       decodeConjunction,
}

// Ephemeris searches for ephemeris records.
var Ephemeris = Kind[EphemerisRecord]{
	Name:         "ephemeris",
	SearchType:   "ephemeris",
	describeName: "ephemeris",
	decode:       decodeEphemeris,
}

// DataProducts searches for data product records.
var DataProducts = Kind[DataProductRecord]{
	Name:         "data_products",
	SearchType:   "data_product",
	describeName: "data_products",
	decode:       decodeDataProduct,
}

// SearchPath is the path that accepts new searches of this kind.
func (k Kind[R]) SearchPath() string {
	return "api/v1/" + k.Name + "/search"
}

// DescribePath is the path that renders a query of this kind as text.
func (k Kind[R]) DescribePath() string {
	return "api/v1/utils/describe/query/" + k.describeName
}

// ParseKindName normalizes a kind name typed by a user ("data-products",
// "conjunction") to the endpoint segment.
func ParseKindName(s string) (string, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "conjunction", "conjunctions":
		return Conjunctions.Name, true
	case "ephemeris":
		return Ephemeris.Name, true
	case "data_product", "data_products":
		return DataProducts.Name, true
	}
	return "", false
}
