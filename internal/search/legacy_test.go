package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

func TestConjunctionQueryFromMaps(t *testing.T) {
	q, err := ConjunctionQueryFromMaps(testStart, testEnd,
		[]map[string]any{{"programs": []any{"themis-asi"}, "platforms": []any{"gillam"}}},
		[]map[string]any{{
			"programs":   []any{"swarm"},
			"hemisphere": []any{"northern"},
			"ephemeris_metadata_filters": map[string]any{
				"logical_operator": "or",
				"expressions": []any{
					map[string]any{"key": "nbtrace_region", "operator": "=", "values": []any{"north polar cap"}},
				},
			},
		}},
		[]map[string]any{{"programs": []any{"ignored"}, "platforms": []any{"toshi"}}},
		nil,
		map[string]any{"ground1-space1": 300, "space1-events1": nil},
	)
	require.NoError(t, err)

	require.Len(t, q.Ground, 1)
	assert.Equal(t, []string{"gillam"}, q.Ground[0].Platforms)
	require.Len(t, q.Space, 1)
	assert.Equal(t, []Hemisphere{HemisphereNorthern}, q.Space[0].Hemisphere)
	require.NotNil(t, q.Space[0].MetadataFilters)
	assert.Equal(t, "OR", q.Space[0].MetadataFilters.ToQuery()["logical_operator"])
	require.Len(t, q.Events, 1)
	assert.Equal(t, []string{"events"}, q.Events[0].toQuery()["programs"])

	body, err := q.Build()
	require.NoError(t, err)
	assert.Equal(t, 300.0, *body.MaxDistances["ground1-space1"])
	assert.Nil(t, body.MaxDistances["space1-events1"])
	assert.Nil(t, body.MaxDistances["ground1-events1"])
}

func TestBlocksFromMaps_Adhoc(t *testing.T) {
	blocks, err := BlocksFromMaps(KindAdhoc, []map[string]any{
		{"locations": []any{map[string]any{"lat": 51.05, "lon": -114.07}}},
	})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, CustomLocationBlock{Locations: []LatLon{{Lat: 51.05, Lon: -114.07}}}, blocks[0])
}

func TestBlocksFromMaps_Errors(t *testing.T) {
	tests := []struct {
		name  string
		kind  BlockKind
		items []map[string]any
	}{
		{"unknown key", KindGround, []map[string]any{{"program": []any{"themis-asi"}}}},
		{"hemisphere on ground", KindGround, []map[string]any{{"hemisphere": []any{"northern"}}}},
		{"filter is not an object", KindSpace, []map[string]any{{"metadata_filters": "nbtrace_region=north"}}},
		{"bad filter operator", KindSpace, []map[string]any{{"metadata_filters": map[string]any{
			"expressions": []any{map[string]any{"key": "k", "operator": "~", "values": []any{"v"}}},
		}}}},
		{"unknown kind", BlockKind("lunar"), []map[string]any{{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlocksFromMaps(tt.kind, tt.items)
			assert.ErrorIs(t, err, aurorax.ErrValidation)
		})
	}
}

func TestConjunctionQueryFromMaps_Errors(t *testing.T) {
	_, err := ConjunctionQueryFromMaps(testStart, testEnd, make([]map[string]any, 11), nil, nil, nil, 100)
	assert.ErrorIs(t, err, aurorax.ErrBadParameters)

	_, err = ConjunctionQueryFromMaps(testStart, testEnd, []map[string]any{{}}, nil, nil, nil, "far")
	assert.ErrorIs(t, err, aurorax.ErrValidation)

	_, err = ConjunctionQueryFromMaps(testStart, testEnd, []map[string]any{{}}, nil, nil, nil,
		map[string]any{"ground1-space1": "near"})
	assert.ErrorIs(t, err, aurorax.ErrValidation)
}

func TestDistanceFromAny(t *testing.T) {
	d, err := distanceFromAny(250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, *d.Default)

	d, err = distanceFromAny(12.5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, *d.Default)

	d, err = distanceFromAny(nil)
	require.NoError(t, err)
	assert.Nil(t, d.Default)
	assert.Empty(t, d.Overrides)
}
