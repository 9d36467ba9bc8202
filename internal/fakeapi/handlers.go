package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const timeLayout = "2006-01-02T15:04:05"

// Health reports that the fake is up.
// GET /health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	count, oldest := s.store.Stats()
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"requests":           count,
		"oldest_request_age": oldest.String(),
	})
}

// SubmitSearch accepts a search and answers 202 with its polling URL.
// POST /api/v1/{kind}/search
func (s *Server) SubmitSearch(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteBadRequest(w, "unable to read request body")
			return
		}

		var query map[string]any
		if err := json.Unmarshal(body, &query); err != nil {
			WriteBadRequest(w, "request body must be a JSON object")
			return
		}
		if msg := checkQuery(query); msg != "" {
			WriteBadRequest(w, msg)
			return
		}

		s.recordSubmission(kind, body)
		req := s.store.Add(kind, body)

		w.Header().Set("Location", requestURL(r, kind, req.ID))
		w.WriteHeader(http.StatusAccepted)
	}
}

func checkQuery(query map[string]any) string {
	for _, field := range []string{"start", "end"} {
		v, _ := query[field].(string)
		if v == "" {
			return fmt.Sprintf("'%s' is a required field", field)
		}
		if _, err := time.Parse(timeLayout, v); err != nil {
			return fmt.Sprintf("'%s' must be formatted as YYYY-MM-DDTHH:MM:SS", field)
		}
	}
	return ""
}

// RequestStatus returns the status document of a search. A search completes
// after Options.PollsUntilComplete polls.
// GET /api/v1/{kind}/requests/{requestId}
func (s *Server) RequestStatus(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "requestId")
		req, ok := s.store.Update(kind, id, func(req *SearchRequest) {
			req.Polls++
			if req.Completed == nil && !req.Cancelled && !s.opts.FailSearches && req.Polls > s.opts.PollsUntilComplete {
				now := time.Now().UTC()
				req.Completed = &now
			}
		})
		if !ok {
			WriteNotFound(w, fmt.Sprintf("search request %s not found", id))
			return
		}

		_ = WriteJSON(w, http.StatusOK, s.statusDocument(r, req))
	}
}

func (s *Server) statusDocument(r *http.Request, req SearchRequest) map[string]any {
	logs := []map[string]any{
		logEntry(req.Requested, "info", "Search request received"),
	}

	result := map[string]any{
		"completed_timestamp": nil,
		"data_uri":            nil,
		"error_condition":     false,
		"query_duration":      nil,
		"file_size":           nil,
		"result_count":        nil,
	}

	switch {
	case req.Cancelled:
		result["error_condition"] = true
		logs = append(logs, logEntry(time.Now(), "error", "Search request cancelled"))
	case s.opts.FailSearches:
		result["error_condition"] = true
		logs = append(logs, logEntry(time.Now(), "error", "Query execution failed: too many results, please narrow the search"))
	case req.Completed != nil:
		rows := len(s.opts.Results[req.Kind])
		result["completed_timestamp"] = req.Completed.Format(timeLayout)
		result["data_uri"] = requestURL(r, req.Kind, req.ID) + "/data"
		result["query_duration"] = req.Completed.Sub(req.Requested).Milliseconds()
		result["file_size"] = rows * 512
		result["result_count"] = rows
		logs = append(logs, logEntry(*req.Completed, "info", fmt.Sprintf("Search completed, found %d results", rows)))
	}

	return map[string]any{
		"search_request": map[string]any{
			"requested": req.Requested.UTC().Format(timeLayout),
			"query":     json.RawMessage(req.Query),
		},
		"search_result": result,
		"logs":          logs,
	}
}

func logEntry(t time.Time, level, summary string) map[string]any {
	return map[string]any{
		"level":     level,
		"summary":   summary,
		"timestamp": t.UTC().Format(timeLayout),
	}
}

// RequestData returns the rows of a completed search. A POST body is a
// response format: only top-level keys set to true are kept.
// GET|POST /api/v1/{kind}/requests/{requestId}/data
func (s *Server) RequestData(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "requestId")
		req, ok := s.store.Get(kind, id)
		if !ok {
			WriteNotFound(w, fmt.Sprintf("search request %s not found", id))
			return
		}
		if req.Completed == nil {
			_ = WriteJSON(w, http.StatusOK, map[string]any{
				"error": APIError{Code: "DATA_NOT_READY", Message: "search request has no data yet"},
			})
			return
		}

		rows := s.opts.Results[kind]
		if rows == nil {
			rows = []map[string]any{}
		}

		if r.Method == http.MethodPost {
			var format map[string]any
			if err := json.NewDecoder(r.Body).Decode(&format); err != nil {
				WriteBadRequest(w, "response format must be a JSON object")
				return
			}
			rows = project(rows, format)
		}

		_ = WriteJSON(w, http.StatusOK, map[string]any{"result": rows})
	}
}

func project(rows []map[string]any, format map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		projected := map[string]any{}
		for key, want := range format {
			if v, ok := row[key]; ok && want != false && want != nil {
				projected[key] = v
			}
		}
		out = append(out, projected)
	}
	return out
}

// CancelSearch marks a search cancelled.
// DELETE /api/v1/{kind}/requests/{requestId}
func (s *Server) CancelSearch(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "requestId")
		_, ok := s.store.Update(kind, id, func(req *SearchRequest) {
			if req.Completed == nil {
				req.Cancelled = true
			}
		})
		if !ok {
			WriteNotFound(w, fmt.Sprintf("search request %s not found", id))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// DescribeQuery renders a query as a sentence.
// POST /api/v1/utils/describe/query/{kind}
func (s *Server) DescribeQuery(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var query map[string]any
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			WriteBadRequest(w, "request body must be a JSON object")
			return
		}
		if msg := checkQuery(query); msg != "" {
			WriteBadRequest(w, msg)
			return
		}

		text := fmt.Sprintf("Find %s between %s and %s", strings.ReplaceAll(kind, "_", " "), query["start"], query["end"])
		if kind == KindConjunctions {
			var blocks []string
			for _, key := range []string{"ground", "space", "events", "adhoc"} {
				if list, ok := query[key].([]any); ok && len(list) > 0 {
					blocks = append(blocks, fmt.Sprintf("%d %s", len(list), key))
				}
			}
			if len(blocks) > 0 {
				text += " across " + strings.Join(blocks, ", ") + " criteria blocks"
			}
		}

		_ = WriteJSON(w, http.StatusOK, text)
	}
}

// ListRequests lists searches, optionally filtered by search_type.
// GET /api/v1/utils/admin/search_requests
func (s *Server) ListRequests(w http.ResponseWriter, r *http.Request) {
	searchType := r.URL.Query().Get("search_type")

	out := []map[string]any{}
	for _, req := range s.store.List() {
		if searchType != "" && searchTypeOf(req.Kind) != searchType {
			continue
		}
		out = append(out, map[string]any{
			"request_id":  req.ID,
			"search_type": searchTypeOf(req.Kind),
			"requested":   req.Requested.UTC().Format(timeLayout),
			"active":      req.Completed == nil && !req.Cancelled,
		})
	}

	_ = WriteJSON(w, http.StatusOK, out)
}

// DeleteRequest removes a search.
// DELETE /api/v1/utils/admin/search_requests/{requestId}
func (s *Server) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestId")
	if !s.store.Delete(id) {
		WriteNotFound(w, fmt.Sprintf("search request %s not found", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func searchTypeOf(kind string) string {
	switch kind {
	case KindConjunctions:
		return "conjunction"
	case KindDataProducts:
		return "data_product"
	default:
		return kind
	}
}

// ListDataSources returns the catalogue, filtered by query parameters.
// GET /api/v1/data_sources
func (s *Server) ListDataSources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for _, ds := range s.sources {
		if matches(ds, q.Get("program"), "program") &&
			matches(ds, q.Get("platform"), "platform") &&
			matches(ds, q.Get("instrument_type"), "instrument_type") &&
			matches(ds, q.Get("source_type"), "source_type") &&
			matches(ds, q.Get("owner"), "owner") {
			out = append(out, ds)
		}
	}

	_ = WriteJSON(w, http.StatusOK, out)
}

func matches(ds map[string]any, want, field string) bool {
	if want == "" {
		return true
	}
	got, _ := ds[field].(string)
	return got == want
}

// GetDataSource returns one data source.
// GET /api/v1/data_sources/{identifier}
func (s *Server) GetDataSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "identifier"))
	if err != nil {
		WriteBadRequest(w, "identifier must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.sourceIndex(id); i >= 0 {
		_ = WriteJSON(w, http.StatusOK, s.sources[i])
		return
	}
	WriteNotFound(w, fmt.Sprintf("data source %d not found", id))
}

// DeleteDataSource removes a data source unless records still reference it.
// DELETE /api/v1/data_sources/{identifier}
func (s *Server) DeleteDataSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "identifier"))
	if err != nil {
		WriteBadRequest(w, "identifier must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sourceIndex(id)
	if i < 0 {
		WriteNotFound(w, fmt.Sprintf("data source %d not found", id))
		return
	}
	if slices.Contains(s.opts.InUseSources, id) {
		WriteConflict(w, fmt.Sprintf("data source %d has records associated with it", id))
		return
	}

	s.sources = slices.Delete(s.sources, i, i+1)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) sourceIndex(id int) int {
	for i, ds := range s.sources {
		if identifierOf(ds) == id {
			return i
		}
	}
	return -1
}

func identifierOf(ds map[string]any) int {
	switch v := ds["identifier"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return -1
}

func requestURL(r *http.Request, kind, id string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/%s/requests/%s", scheme, r.Host, kind, id)
}
