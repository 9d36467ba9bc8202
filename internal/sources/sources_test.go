package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
	"github.com/robert-malhotra/aurorax-client/internal/fakeapi"
)

var catalogue = []map[string]any{
	{"identifier": 3, "program": "trex", "platform": "rabbit lake", "instrument_type": "RGB ASI", "source_type": "ground", "display_name": "TREx RGB RABB"},
	{"identifier": 4, "program": "themis-asi", "platform": "gillam", "instrument_type": "panchromatic ASI", "source_type": "ground"},
	{"identifier": 17, "program": "swarm", "platform": "swarma", "instrument_type": "footprint", "source_type": "leo", "owner": "esa"},
}

func newTestClient(t *testing.T, opts fakeapi.Options) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Logger = logger
	opts.DataSources = catalogue

	fake := fakeapi.New(opts)
	ts := httptest.NewServer(fake.Router())
	t.Cleanup(func() {
		ts.Close()
		fake.Close()
	})

	api := aurorax.NewClient(aurorax.Options{BaseURL: ts.URL}).WithLogger(logger)
	return NewClient(api)
}

func TestList(t *testing.T) {
	c := newTestClient(t, fakeapi.Options{})

	tests := []struct {
		name      string
		filter    Filter
		wantCount int
	}{
		{"all", Filter{}, 3},
		{"by program", Filter{Program: "swarm"}, 1},
		{"by source type", Filter{SourceType: SourceTypeGround}, 2},
		{"by owner", Filter{Owner: "esa"}, 1},
		{"no match", Filter{Program: "dmsp"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("Expected %d data sources, got %d", tt.wantCount, len(got))
			}
		})
	}
}

func TestGet(t *testing.T) {
	c := newTestClient(t, fakeapi.Options{})

	ds, err := c.Get(context.Background(), "themis-asi", "gillam", "panchromatic ASI", FormatFullRecord)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ds.Identifier != 4 {
		t.Errorf("Expected identifier 4, got %d", ds.Identifier)
	}
	if got := ds.String(); got != "themis-asi/gillam/panchromatic ASI (4)" {
		t.Errorf("Unexpected String(): %q", got)
	}

	_, err = c.Get(context.Background(), "themis-asi", "atha", "panchromatic ASI", "")
	if !errors.Is(err, aurorax.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetByIdentifier(t *testing.T) {
	c := newTestClient(t, fakeapi.Options{})

	ds, err := c.GetByIdentifier(context.Background(), 3, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ds.String() != "TREx RGB RABB (3)" {
		t.Errorf("Unexpected data source: %s", ds)
	}

	_, err = c.GetByIdentifier(context.Background(), 99, FormatIdentifierOnly)
	if !errors.Is(err, aurorax.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, fakeapi.Options{InUseSources: []int{17}})
	ctx := context.Background()

	if err := c.Delete(ctx, 17); !errors.Is(err, aurorax.ErrConflict) {
		t.Errorf("Expected ErrConflict for a data source in use, got %v", err)
	}

	if err := c.Delete(ctx, 3); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := c.GetByIdentifier(ctx, 3, ""); !errors.Is(err, aurorax.ErrNotFound) {
		t.Errorf("Expected deleted data source to be gone, got %v", err)
	}
}

func TestList_SendsFormat(t *testing.T) {
	var format string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format = r.URL.Query().Get("format")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewClient(aurorax.NewClient(aurorax.Options{BaseURL: ts.URL}))
	if _, err := c.List(context.Background(), Filter{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if format != string(FormatBasicInfo) {
		t.Errorf("Expected default format %q, got %q", FormatBasicInfo, format)
	}
}
