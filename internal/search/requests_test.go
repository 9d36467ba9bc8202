package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
	"github.com/robert-malhotra/aurorax-client/internal/fakeapi"
)

func TestRequestURL(t *testing.T) {
	c := newTestClient("https://api.aurorax.space/")
	u := RequestURL(c, Ephemeris.Name, "abc123")
	assert.Equal(t, "https://api.aurorax.space/api/v1/ephemeris/requests/abc123", u)
	assert.Equal(t, u+"/data", DataURL(u))
}

func TestGetStatusAndLogs(t *testing.T) {
	fake, client := newFake(t, fakeapi.Options{})
	s := New(client, Conjunctions, conjunctionQuery())
	require.NoError(t, s.Execute(context.Background()))

	status, err := GetStatus(context.Background(), client, s.RequestURL)
	require.NoError(t, err)
	assert.True(t, status.HasData())
	assert.False(t, status.Failed())
	assert.NotEmpty(t, status.SearchRequest.Requested)
	require.NotNil(t, status.SearchResult.ResultCount)
	assert.Equal(t, 0, *status.SearchResult.ResultCount)

	logs, err := GetLogs(context.Background(), client, RequestURL(client, Conjunctions.Name, fake.Requests()[0].ID))
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "Search request received", logs[0].Summary)
}

func TestGetStatus_UnknownRequest(t *testing.T) {
	_, client := newFake(t, fakeapi.Options{})
	_, err := GetStatus(context.Background(), client, RequestURL(client, Conjunctions.Name, "missing"))
	assert.ErrorIs(t, err, aurorax.ErrNotFound)
}

func TestGetData_ErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"error_code":"DATA_NOT_READY","error_message":"search request has no data yet"}}`))
	}))
	defer ts.Close()

	_, err := GetData(context.Background(), newTestClient(ts.URL), ts.URL+"/data", nil)
	require.ErrorIs(t, err, aurorax.ErrDataRetrieval)
	assert.Contains(t, err.Error(), "DATA_NOT_READY")
}

func TestGetData_HTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := GetData(context.Background(), newTestClient(ts.URL), ts.URL+"/data", nil)
	assert.ErrorIs(t, err, aurorax.ErrDataRetrieval)
	assert.ErrorIs(t, err, aurorax.ErrNotFound)
}

func TestGetData_ProjectionUsesPost(t *testing.T) {
	var method string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer ts.Close()

	rows, err := GetData(context.Background(), newTestClient(ts.URL), ts.URL+"/data", map[string]any{"epoch": true})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, http.MethodPost, method)
}

func TestListRequests(t *testing.T) {
	_, user := newFake(t, fakeapi.Options{AdminAPIKey: "admin"})
	admin := aurorax.NewClient(aurorax.Options{BaseURL: user.BaseURL(), APIKey: "admin"}).WithLogger(discardLogger())

	ctx := context.Background()
	require.NoError(t, New(user, Conjunctions, conjunctionQuery()).Execute(ctx))
	eq := &EphemerisQuery{Start: testStart, End: testEnd, Programs: []string{"swarm"}}
	require.NoError(t, New(user, Ephemeris, eq).Execute(ctx))

	_, err := ListRequests(ctx, user, ListFilter{})
	require.ErrorIs(t, err, aurorax.ErrUnauthorized)
	assert.Contains(t, err.Error(), "administrator API key")

	all, err := ListRequests(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	conj, err := ListRequests(ctx, admin, ListFilter{SearchType: Conjunctions.SearchType})
	require.NoError(t, err)
	require.Len(t, conj, 1)
	assert.Equal(t, "conjunction", conj[0]["search_type"])

	id, _ := conj[0]["request_id"].(string)
	require.NoError(t, DeleteRequest(ctx, admin, id))
	assert.ErrorIs(t, DeleteRequest(ctx, admin, id), aurorax.ErrNotFound)
}

func TestListFilter_Values(t *testing.T) {
	active := true
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	count := 5

	values, err := ListFilter{SearchType: "ephemeris", Active: &active, Start: &start, ResultCount: &count}.values()
	require.NoError(t, err)
	assert.Equal(t, "ephemeris", values.Get("search_type"))
	assert.Equal(t, "true", values.Get("active"))
	assert.Equal(t, "2020-01-01T00:00:00", values.Get("start"))
	assert.Equal(t, "5", values.Get("result_count"))
	assert.False(t, values.Has("end"))

	_, err = ListFilter{SearchType: "conjunctions"}.values()
	assert.ErrorIs(t, err, aurorax.ErrBadParameters)
}

func TestCancelRequest_UnknownRequest(t *testing.T) {
	_, client := newFake(t, fakeapi.Options{})
	err := CancelRequest(context.Background(), client, RequestURL(client, DataProducts.Name, "missing"))
	assert.ErrorIs(t, err, aurorax.ErrNotFound)
}

func TestParseKindName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"conjunctions", "conjunctions", true},
		{"Conjunction", "conjunctions", true},
		{"data-products", "data_products", true},
		{"data_product", "data_products", true},
		{" ephemeris ", "ephemeris", true},
		{"events", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseKindName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
