package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/config"
	"github.com/robert-malhotra/aurorax-client/internal/fakeapi"
)

// submitEphemeris starts an ephemeris search without waiting and returns
// its request id.
func submitEphemeris(t *testing.T, cfg *config.Config, extra ...string) string {
	t.Helper()
	out, err := execute(t, cfg, append(searchArgs("ephemeris", "--program", "swarm", "--no-wait", "--json"), extra...)...)
	require.NoError(t, err)

	var submitted map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &submitted))
	require.NotEmpty(t, submitted["request_id"])
	return submitted["request_id"]
}

func TestRequestsStatusAndLogs(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{
		PollsUntilComplete: 1,
		Results:            map[string][]map[string]any{fakeapi.KindEphemeris: ephemerisRows},
	})
	id := submitEphemeris(t, cfg)

	out, err := execute(t, cfg, "requests", "status", "ephemeris", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Request "+id+": running")

	out, err = execute(t, cfg, "requests", "status", "ephemeris", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Request "+id+": completed")
	assert.Contains(t, out, "Last log: Search completed, found 2 results")

	out, err = execute(t, cfg, "requests", "status", "ephemeris", id, "--json")
	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Contains(t, status, "search_result")

	out, err = execute(t, cfg, "requests", "logs", "ephemeris", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Search completed")
}

func TestRequestsData(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{
		Results: map[string][]map[string]any{fakeapi.KindEphemeris: ephemerisRows},
	})
	id := submitEphemeris(t, cfg)

	_, err := execute(t, cfg, "requests", "status", "ephemeris", id)
	require.NoError(t, err)

	out, err := execute(t, cfg, "requests", "data", "ephemeris", id)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "2020-01-01T00:01:00", rows[1]["epoch"])
}

func TestRequestsData_NotReady(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{PollsUntilComplete: 10})
	id := submitEphemeris(t, cfg)

	_, err := execute(t, cfg, "requests", "data", "ephemeris", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data yet")
}

func TestRequestsCancel(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{PollsUntilComplete: 100})
	id := submitEphemeris(t, cfg)

	out, err := execute(t, cfg, "requests", "cancel", "ephemeris", id, "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled request "+id)

	out, err = execute(t, cfg, "requests", "status", "ephemeris", id)
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "cancelled")
}

func TestRequests_BadArguments(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{})

	_, err := execute(t, cfg, "requests", "status", "aurora", "abc")
	assert.ErrorContains(t, err, "unknown search kind")

	_, err = execute(t, cfg, "requests", "status", "ephemeris")
	assert.ErrorContains(t, err, "accepts 2 arg(s)")

	_, err = execute(t, cfg, "requests", "status", "conjunctions", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestRequestsListAndDelete(t *testing.T) {
	_, cfg := newFake(t, fakeapi.Options{AdminAPIKey: "admin"})
	id := submitEphemeris(t, cfg)

	_, err := execute(t, cfg, "requests", "list")
	assert.ErrorContains(t, err, "administrator API key")

	cfg.API.APIKey = "admin"
	out, err := execute(t, cfg, "requests", "list", "--search-type", "ephemeris")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 1)

	out, err = execute(t, cfg, "requests", "list", "--search-type", "conjunction")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Empty(t, listed)

	_, err = execute(t, cfg, "requests", "list", "--search-type", "movies")
	assert.ErrorContains(t, err, "search type")

	out, err = execute(t, cfg, "requests", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted request "+id)

	_, err = execute(t, cfg, "requests", "delete", id)
	assert.ErrorContains(t, err, "not found")
}
