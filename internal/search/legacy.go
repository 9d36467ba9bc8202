package search

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// BlocksFromMaps converts loosely-typed criteria blocks, as written in raw
// AuroraX queries, into typed blocks of the given kind. Unknown keys are
// rejected.
//
// Deprecated: build GroundBlock, SpaceBlock, EventsBlock and
// CustomLocationBlock values directly.
func BlocksFromMaps(kind BlockKind, items []map[string]any) ([]CriteriaBlock, error) {
	blocks := make([]CriteriaBlock, 0, len(items))
	for i, item := range items {
		b, err := blockFromMap(kind, item)
		if err != nil {
			return nil, fmt.Errorf("%s block %d: %w", kind, i+1, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// ConjunctionQueryFromMaps assembles a ConjunctionQuery from loosely-typed
// blocks. distance is a number applied to every pair, or a map from pair key
// to a number or nil.
//
// Deprecated: build a ConjunctionQuery directly.
func ConjunctionQueryFromMaps(start, end time.Time, ground, space, events, adhoc []map[string]any, distance any) (*ConjunctionQuery, error) {
	q := &ConjunctionQuery{Start: start, End: end}

	counts := BlockCounts{Ground: len(ground), Space: len(space), Events: len(events), Custom: len(adhoc)}
	if err := CheckBlockCount(counts); err != nil {
		return nil, err
	}

	for _, group := range []struct {
		kind  BlockKind
		items []map[string]any
	}{
		{KindGround, ground},
		{KindSpace, space},
		{KindEvents, events},
		{KindAdhoc, adhoc},
	} {
		blocks, err := BlocksFromMaps(group.kind, group.items)
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			switch b := b.(type) {
			case GroundBlock:
				q.Ground = append(q.Ground, b)
			case SpaceBlock:
				q.Space = append(q.Space, b)
			case EventsBlock:
				q.Events = append(q.Events, b)
			case CustomLocationBlock:
				q.CustomLocations = append(q.CustomLocations, b)
			}
		}
	}

	d, err := distanceFromAny(distance)
	if err != nil {
		return nil, err
	}
	q.Distance = d

	return q, nil
}

func blockFromMap(kind BlockKind, item map[string]any) (CriteriaBlock, error) {
	fields := make(map[string]any, len(item))
	var rawFilter any
	for k, v := range item {
		switch k {
		case "ephemeris_metadata_filters", "metadata_filters":
			rawFilter = v
		default:
			fields[k] = v
		}
	}

	filter, err := filterFromAny(rawFilter)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindGround:
		var b GroundBlock
		if err := decodeStrict(fields, &b); err != nil {
			return nil, err
		}
		b.MetadataFilters = filter
		return b, nil
	case KindSpace:
		var b SpaceBlock
		if err := decodeStrict(fields, &b); err != nil {
			return nil, err
		}
		b.MetadataFilters = filter
		return b, nil
	case KindEvents:
		// Events blocks always target the "events" program.
		delete(fields, "programs")
		var b EventsBlock
		if err := decodeStrict(fields, &b); err != nil {
			return nil, err
		}
		b.MetadataFilters = filter
		return b, nil
	case KindAdhoc:
		var b CustomLocationBlock
		if err := decodeStrict(fields, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown criteria block kind %q", aurorax.ErrValidation, kind)
	}
}

func decodeStrict(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", aurorax.ErrValidation, err)
	}
	return nil
}

type legacyFilter struct {
	LogicalOperator string `mapstructure:"logical_operator"`
	Expressions     []struct {
		Key      string `mapstructure:"key"`
		Operator string `mapstructure:"operator"`
		Values   any    `mapstructure:"values"`
	} `mapstructure:"expressions"`
}

func filterFromAny(raw any) (*MetadataFilter, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		if raw != nil && !ok {
			return nil, fmt.Errorf("%w: metadata filters must be an object, got %T", aurorax.ErrValidation, raw)
		}
		return nil, nil
	}

	var lf legacyFilter
	if err := decodeStrict(m, &lf); err != nil {
		return nil, fmt.Errorf("metadata filters: %w", err)
	}

	exprs := make([]FilterExpression, 0, len(lf.Expressions))
	for _, e := range lf.Expressions {
		expr, err := NewFilterExpression(e.Key, e.Values, e.Operator)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return NewMetadataFilter(lf.LogicalOperator, exprs...)
}

func distanceFromAny(raw any) (Distance, error) {
	switch v := raw.(type) {
	case nil:
		return Distance{}, nil
	case int:
		return Scalar(float64(v)), nil
	case float64:
		return Scalar(v), nil
	case map[string]any:
		overrides := make(map[string]*float64, len(v))
		for key, value := range v {
			switch n := value.(type) {
			case nil:
				overrides[key] = nil
			case int:
				overrides[key] = Km(float64(n))
			case float64:
				overrides[key] = Km(n)
			default:
				return Distance{}, fmt.Errorf("%w: distance for %q must be a number or null, got %T", aurorax.ErrValidation, key, value)
			}
		}
		return Pairs(overrides), nil
	default:
		return Distance{}, fmt.Errorf("%w: distance must be a number or an object, got %T", aurorax.ErrValidation, raw)
	}
}
