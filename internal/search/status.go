package search

import "encoding/json"

// Status is the status document of a search request.
type Status struct {
	SearchRequest StatusRequest `json:"search_request"`
	SearchResult  StatusResult  `json:"search_result"`
	Logs          []LogEntry    `json:"logs"`
}

// StatusRequest echoes what was submitted.
type StatusRequest struct {
	Requested string          `json:"requested,omitempty"`
	Query     json.RawMessage `json:"query,omitempty"`
}

// StatusResult reports the progress and outcome of a search request. Fields
// stay nil until the server fills them in.
type StatusResult struct {
	CompletedTimestamp *string  `json:"completed_timestamp"`
	DataURI            *string  `json:"data_uri"`
	ErrorCondition     bool     `json:"error_condition"`
	QueryDuration      *float64 `json:"query_duration"`
	FileSize           *int64   `json:"file_size"`
	ResultCount        *int     `json:"result_count"`
}

// LogEntry is one server-side log message about a search request.
type LogEntry struct {
	Level     string `json:"level"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// HasData reports whether the server has published results.
func (s *Status) HasData() bool {
	return s != nil && s.SearchResult.DataURI != nil
}

// Failed reports whether the server flagged the request with an error
// condition. Cancelled requests are reported this way too.
func (s *Status) Failed() bool {
	return s != nil && s.SearchResult.ErrorCondition
}

// LastLog returns the summary of the most recent log entry, or "".
func (s *Status) LastLog() string {
	if s == nil || len(s.Logs) == 0 {
		return ""
	}
	return s.Logs[len(s.Logs)-1].Summary
}
