package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

const (
	listRequestsPath  = "api/v1/utils/admin/search_requests"
	dataPathSuffix    = "/data"
	locationHeaderKey = "Location"
)

// RequestURL builds the polling URL of a known request. kind is an endpoint
// segment such as Conjunctions.Name.
func RequestURL(c *aurorax.Client, kind, requestID string) string {
	return c.URL("api/v1/" + kind + "/requests/" + requestID)
}

// DataURL is the results URL of a request.
func DataURL(requestURL string) string {
	return requestURL + dataPathSuffix
}

// GetStatus fetches the status document of a search request.
func GetStatus(ctx context.Context, c *aurorax.Client, requestURL string) (*Status, error) {
	var status Status
	if err := c.DoJSON(ctx, http.MethodGet, requestURL, nil, nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get search status: %w", err)
	}
	return &status, nil
}

// GetLogs fetches the server-side log messages of a search request.
func GetLogs(ctx context.Context, c *aurorax.Client, requestURL string) ([]LogEntry, error) {
	status, err := GetStatus(ctx, c, requestURL)
	if err != nil {
		return nil, err
	}
	if status.Logs == nil {
		return []LogEntry{}, nil
	}
	return status.Logs, nil
}

type dataEnvelope struct {
	Result []json.RawMessage `json:"result"`
	Error  *struct {
		Code    string `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"error"`
}

// GetData fetches the result rows of a completed request. With a non-nil
// responseFormat the rows are requested through a POST and projected by the
// server.
func GetData(ctx context.Context, c *aurorax.Client, dataURL string, responseFormat map[string]any) ([]json.RawMessage, error) {
	method := http.MethodGet
	var body any
	if responseFormat != nil {
		method = http.MethodPost
		body = responseFormat
	}

	var env dataEnvelope
	if err := c.DoJSON(ctx, method, dataURL, nil, body, &env); err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve data (likely there is none): %w", aurorax.ErrDataRetrieval, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", aurorax.ErrDataRetrieval, env.Error.Code, env.Error.Message)
	}
	if env.Result == nil {
		return []json.RawMessage{}, nil
	}
	return env.Result, nil
}

// CancelRequest asks the server to stop a search request. The server handles
// cancellation asynchronously.
func CancelRequest(ctx context.Context, c *aurorax.Client, requestURL string) error {
	if _, err := c.Do(ctx, http.MethodDelete, requestURL, nil, nil); err != nil {
		return fmt.Errorf("failed to cancel search request: %w", err)
	}
	return nil
}

// ListFilter narrows the admin listing of search requests. Nil fields are
// not sent.
type ListFilter struct {
	SearchType     string // conjunction, ephemeris or data_product
	Active         *bool
	Start          *time.Time
	End            *time.Time
	FileSize       *int64
	ResultCount    *int
	QueryDuration  *int
	ErrorCondition *bool
}

func (f ListFilter) values() (url.Values, error) {
	values := url.Values{}
	if f.SearchType != "" {
		switch f.SearchType {
		case Conjunctions.SearchType, Ephemeris.SearchType, DataProducts.SearchType:
		default:
			return nil, fmt.Errorf("%w: search type %q not supported, must be one of conjunction, data_product, ephemeris",
				aurorax.ErrBadParameters, f.SearchType)
		}
		values.Set("search_type", f.SearchType)
	}
	if f.Active != nil {
		values.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Start != nil {
		values.Set("start", FormatTime(*f.Start))
	}
	if f.End != nil {
		values.Set("end", FormatTime(*f.End))
	}
	if f.FileSize != nil {
		values.Set("file_size", strconv.FormatInt(*f.FileSize, 10))
	}
	if f.ResultCount != nil {
		values.Set("result_count", strconv.Itoa(*f.ResultCount))
	}
	if f.QueryDuration != nil {
		values.Set("query_duration", strconv.Itoa(*f.QueryDuration))
	}
	if f.ErrorCondition != nil {
		values.Set("error_condition", strconv.FormatBool(*f.ErrorCondition))
	}
	return values, nil
}

// ListRequests lists search requests. It needs an administrator API key.
func ListRequests(ctx context.Context, c *aurorax.Client, filter ListFilter) ([]map[string]any, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	if err := c.DoJSON(ctx, http.MethodGet, c.URL(listRequestsPath), params, nil, &out); err != nil {
		if errors.Is(err, aurorax.ErrUnauthorized) {
			return nil, fmt.Errorf("an administrator API key is required to list search requests: %w", err)
		}
		return nil, fmt.Errorf("failed to list search requests: %w", err)
	}
	return out, nil
}

// DeleteRequest removes a search request and its results. It needs an
// administrator API key.
func DeleteRequest(ctx context.Context, c *aurorax.Client, requestID string) error {
	if _, err := c.Do(ctx, http.MethodDelete, c.URL(listRequestsPath+"/"+requestID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete search request %s: %w", requestID, err)
	}
	return nil
}
