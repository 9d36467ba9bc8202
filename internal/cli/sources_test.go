package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/fakeapi"
)

func TestSourcesList(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{DataSources: testCatalogue})

	out, err := execute(t, cfg, "sources", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TREx RGB RABB (3)")
	assert.Contains(t, out, "swarm/swarma/footprint (17)")

	out, err = execute(t, cfg, "sources", "list", "--source-type", "leo", "--json")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 17.0, list[0]["identifier"])

	out, err = execute(t, cfg, "sources", "list", "--program", "themis-asi")
	require.NoError(t, err)
	assert.Contains(t, out, "No data sources found.")
}

func TestSourcesGet(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{DataSources: testCatalogue})

	out, err := execute(t, cfg, "sources", "get", "3")
	require.NoError(t, err)
	var ds map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &ds))
	assert.Equal(t, "TREx RGB RABB", ds["display_name"])

	out, err = execute(t, cfg, "sources", "get", "--program", "swarm", "--platform", "swarma", "--instrument-type", "footprint")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &ds))
	assert.Equal(t, 17.0, ds["identifier"])

	_, err = execute(t, cfg, "sources", "get", "99")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, cfg, "sources", "get", "three")
	assert.ErrorContains(t, err, "identifier must be an integer")

	_, err = execute(t, cfg, "sources", "get", "--program", "swarm")
	assert.ErrorContains(t, err, "--instrument-type")
}
