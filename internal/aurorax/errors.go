package aurorax

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrBadParameters is returned when a request carries invalid or missing query fields.
	ErrBadParameters = errors.New("bad parameters")

	// ErrNotFound is returned for an unknown request id or data source.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the API key is missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is returned when the server rejects a change because of existing state.
	ErrConflict = errors.New("conflict")

	// ErrServer is returned for 5xx responses once retries are exhausted.
	ErrServer = errors.New("server error")

	// ErrMaintenance is returned when the API reports maintenance mode.
	ErrMaintenance = errors.New("API in maintenance mode")

	// ErrSearch is returned when a search status reports an error condition.
	ErrSearch = errors.New("search failed")

	// ErrValidation is returned by client-side checks on criteria blocks and filters.
	ErrValidation = errors.New("validation failed")

	// ErrDataRetrieval is returned when search results cannot be fetched.
	ErrDataRetrieval = errors.New("data retrieval failed")

	// ErrTimeout is returned when a bounded wait elapses before the search settles.
	ErrTimeout = errors.New("timed out waiting for search")
)

// APIError describes a non-2xx response from the AuroraX API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error code %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error code %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the sentinel errors so callers can use errors.Is.
func (e *APIError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return []error{ErrBadParameters}
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return []error{ErrUnauthorized}
	case e.StatusCode == http.StatusNotFound:
		return []error{ErrNotFound}
	case e.StatusCode == http.StatusConflict:
		return []error{ErrConflict}
	case e.StatusCode == http.StatusServiceUnavailable &&
		strings.Contains(strings.ToLower(e.Message), "maintenance mode"):
		return []error{ErrMaintenance, ErrServer}
	case e.StatusCode >= http.StatusInternalServerError:
		return []error{ErrServer}
	}
	return nil
}

// newAPIError builds an APIError from a response body. JSON bodies carrying
// error_code/error_message are preferred; anything else is kept verbatim.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error_message"); msg.Exists() {
			apiErr.Message = msg.String()
			apiErr.Code = gjson.GetBytes(body, "error_code").String()
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(status))
	}
	return apiErr
}
