// Package sources looks up AuroraX data sources, the descriptors that search
// results reference.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// Format controls how much of a data source record the API returns.
type Format string

const (
	FormatBasicInfo             Format = "basic_info"
	FormatBasicInfoWithMetadata Format = "with_metadata"
	FormatIdentifierOnly        Format = "identifier_only"
	FormatFullRecord            Format = "full_record"
)

// Source types reported in DataSource.SourceType.
const (
	SourceTypeGround        = "ground"
	SourceTypeLEO           = "leo"
	SourceTypeHEO           = "heo"
	SourceTypeLunar         = "lunar"
	SourceTypeEventList     = "event_list"
	SourceTypeNotApplicable = "not_applicable"
)

const dataSourcesPath = "api/v1/data_sources"

// DataSource describes one instrument (or event list) known to AuroraX.
type DataSource struct {
	Identifier                int              `json:"identifier"`
	Program                   string           `json:"program,omitempty"`
	Platform                  string           `json:"platform,omitempty"`
	InstrumentType            string           `json:"instrument_type,omitempty"`
	SourceType                string           `json:"source_type,omitempty"`
	DisplayName               string           `json:"display_name,omitempty"`
	Metadata                  map[string]any   `json:"metadata,omitempty"`
	Owner                     string           `json:"owner,omitempty"`
	Maintainers               []string         `json:"maintainers,omitempty"`
	EphemerisMetadataSchema   []map[string]any `json:"ephemeris_metadata_schema,omitempty"`
	DataProductMetadataSchema []map[string]any `json:"data_product_metadata_schema,omitempty"`
}

func (d DataSource) String() string {
	if d.DisplayName != "" {
		return fmt.Sprintf("%s (%d)", d.DisplayName, d.Identifier)
	}
	return fmt.Sprintf("%s/%s/%s (%d)", d.Program, d.Platform, d.InstrumentType, d.Identifier)
}

// Filter narrows a List call. Empty fields are not sent.
type Filter struct {
	Program        string
	Platform       string
	InstrumentType string
	SourceType     string
	Owner          string
	Format         Format
	Order          string // "identifier" or "display_name"
}

func (f Filter) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("program", f.Program)
	set("platform", f.Platform)
	set("instrument_type", f.InstrumentType)
	set("source_type", f.SourceType)
	set("owner", f.Owner)
	set("format", string(f.Format))
	set("order", f.Order)
	return values
}

// Client performs data source lookups.
type Client struct {
	api    *aurorax.Client
	logger *slog.Logger
}

// NewClient creates a data source client on top of an API client.
func NewClient(api *aurorax.Client) *Client {
	return &Client{api: api, logger: api.Logger()}
}

// List returns the data sources matching the filter.
func (c *Client) List(ctx context.Context, filter Filter) ([]DataSource, error) {
	if filter.Format == "" {
		filter.Format = FormatBasicInfo
	}

	var result []DataSource
	if err := c.api.DoJSON(ctx, http.MethodGet, c.api.URL(dataSourcesPath), filter.values(), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}

	c.logger.DebugContext(ctx, "listed data sources", slog.Int("count", len(result)))
	return result, nil
}

// Get returns the single data source matching program, platform and
// instrument type. It fails with aurorax.ErrNotFound when nothing matches.
func (c *Client) Get(ctx context.Context, program, platform, instrumentType string, format Format) (*DataSource, error) {
	list, err := c.List(ctx, Filter{
		Program:        program,
		Platform:       platform,
		InstrumentType: instrumentType,
		Format:         format,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("data source %s/%s/%s: %w", program, platform, instrumentType, aurorax.ErrNotFound)
	}
	return &list[0], nil
}

// GetByIdentifier fetches a data source by its numeric identifier.
func (c *Client) GetByIdentifier(ctx context.Context, identifier int, format Format) (*DataSource, error) {
	if format == "" {
		format = FormatBasicInfo
	}
	params := url.Values{"format": {string(format)}}

	var ds DataSource
	if err := c.api.DoJSON(ctx, http.MethodGet, c.identifierURL(identifier), params, nil, &ds); err != nil {
		return nil, fmt.Errorf("failed to get data source %d: %w", identifier, err)
	}
	return &ds, nil
}

// Delete removes a data source. The API answers 409 (aurorax.ErrConflict)
// while records still reference it.
func (c *Client) Delete(ctx context.Context, identifier int) error {
	if _, err := c.api.Do(ctx, http.MethodDelete, c.identifierURL(identifier), nil, nil); err != nil {
		return fmt.Errorf("failed to delete data source %d: %w", identifier, err)
	}
	c.logger.InfoContext(ctx, "deleted data source", slog.Int("identifier", identifier))
	return nil
}

func (c *Client) identifierURL(identifier int) string {
	return c.api.URL(dataSourcesPath + "/" + strconv.Itoa(identifier))
}
