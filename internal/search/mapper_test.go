package search

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

func TestDecodeConjunction(t *testing.T) {
	row := json.RawMessage(`{
		"conjunction_type": "sbtrace",
		"start": "2020-01-01T02:00:00",
		"end": "2020-01-01T02:01:30",
		"min_distance": 10.25,
		"max_distance": 88,
		"closest_epoch": "2020-01-01T02:00:30",
		"farthest_epoch": "",
		"data_sources": [{"identifier": 3, "program": "trex", "platform": "rabbit lake", "instrument_type": "RGB ASI"}],
		"events": [{"start": "2020-01-01T02:00:00", "end": "2020-01-01T02:01:30", "min_distance": 10.25}]
	}`)

	c, err := decodeConjunction(row)
	require.NoError(t, err)

	assert.Equal(t, ConjunctionSBTrace, c.ConjunctionType)
	assert.Equal(t, 90*time.Second, c.Duration())
	assert.Equal(t, time.Date(2020, 1, 1, 2, 0, 30, 0, time.UTC), c.ClosestEpoch)
	assert.True(t, c.FarthestEpoch.IsZero())
	assert.Equal(t, "RGB ASI", c.DataSources[0].InstrumentType)
	require.Len(t, c.Events, 1)
	assert.Equal(t, map[string]any{"min_distance": 10.25}, c.Events[0].Attributes)
}

func TestDecodeEphemeris_MissingLocations(t *testing.T) {
	rec, err := decodeEphemeris(json.RawMessage(`{
		"data_source": {"identifier": 9},
		"epoch": "2020-01-01T00:00:00",
		"location_geo": {"lat": 51.0, "lon": -114.0},
		"location_gsm": {"lat": null, "lon": null}
	}`))
	require.NoError(t, err)

	assert.True(t, rec.LocationGeo.Valid())
	assert.Equal(t, 51.0, *rec.LocationGeo.Lat)
	assert.False(t, rec.LocationGSM.Valid())
	assert.False(t, rec.NBTrace.Valid())
}

func TestMapRows(t *testing.T) {
	rows := []json.RawMessage{
		json.RawMessage(`{"data_product_type": "movie", "start": "2020-01-01T00:00:00", "end": "2020-01-01T01:00:00", "url": "a"}`),
		json.RawMessage(`{"data_product_type": "keogram", "start": "2020-01-01T00:00:00", "end": "2020-01-02T00:00:00", "url": "b"}`),
	}

	got, err := mapRows(rows, decodeDataProduct)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].URL)
	assert.Equal(t, DataProductKeogram, got[1].DataProductType)

	got, err = mapRows(nil, decodeDataProduct)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMapRows_BadRow(t *testing.T) {
	rows := []json.RawMessage{
		json.RawMessage(`{"epoch": "2020-01-01T00:00:00"}`),
		json.RawMessage(`{"epoch": "not a time"}`),
	}

	_, err := mapRows(rows, decodeEphemeris)
	require.ErrorIs(t, err, aurorax.ErrDataRetrieval)
	assert.Contains(t, err.Error(), "result 1")
}

func TestRawRows(t *testing.T) {
	got, err := RawRows([]json.RawMessage{json.RawMessage(`{"epoch": "x"}`)})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"epoch": "x"}}, got)

	_, err = RawRows([]json.RawMessage{json.RawMessage(`[1]`)})
	assert.ErrorIs(t, err, aurorax.ErrDataRetrieval)
}
