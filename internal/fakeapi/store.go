package fakeapi

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SearchRequest is a search the fake API has accepted.
type SearchRequest struct {
	ID        string
	Kind      string
	Query     json.RawMessage
	Requested time.Time
	Polls     int
	Cancelled bool
	Completed *time.Time
}

type requestEntry struct {
	req       *SearchRequest
	expiresAt time.Time
}

// RequestStore keeps accepted search requests in memory with a TTL.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]requestEntry
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRequestStore creates a store that forgets requests ttl after they were
// submitted, sweeping every cleanupInterval.
func NewRequestStore(ttl time.Duration, cleanupInterval time.Duration) *RequestStore {
	store := &RequestStore{
		requests: make(map[string]requestEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cleanupInterval)

	return store
}

// Add stores a new request and returns its id.
func (s *RequestStore) Add(kind string, query json.RawMessage) *SearchRequest {
	now := time.Now()
	req := &SearchRequest{
		ID:        uuid.NewString(),
		Kind:      kind,
		Query:     query,
		Requested: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[req.ID] = requestEntry{req: req, expiresAt: now.Add(s.ttl)}
	return req
}

// Update runs fn on the request under the store's lock. It reports false
// when the request is unknown, of another kind or expired.
func (s *RequestStore) Update(kind, id string, fn func(*SearchRequest)) (SearchRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.requests[id]
	if !exists || entry.req.Kind != kind || time.Now().After(entry.expiresAt) {
		return SearchRequest{}, false
	}
	if fn != nil {
		fn(entry.req)
	}
	return *entry.req, true
}

// Get returns a copy of a request.
func (s *RequestStore) Get(kind, id string) (SearchRequest, bool) {
	return s.Update(kind, id, nil)
}

// Delete removes a request.
func (s *RequestStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.requests[id]
	delete(s.requests, id)
	return exists
}

// List returns copies of every live request, oldest first.
func (s *RequestStore) List() []SearchRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]SearchRequest, 0, len(s.requests))
	for _, entry := range s.requests {
		if now.After(entry.expiresAt) {
			continue
		}
		out = append(out, *entry.req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Requested.Before(out[j].Requested) })
	return out
}

// Stop stops the background cleanup goroutine.
func (s *RequestStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *RequestStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *RequestStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, entry := range s.requests {
		if now.After(entry.expiresAt) {
			delete(s.requests, id)
		}
	}
}

// Stats returns the number of stored requests and the age of the oldest.
func (s *RequestStore) Stats() (count int, oldestAge time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count = len(s.requests)
	if count == 0 {
		return 0, 0
	}

	var oldest time.Time
	for _, entry := range s.requests {
		if oldest.IsZero() || entry.req.Requested.Before(oldest) {
			oldest = entry.req.Requested
		}
	}

	return count, time.Since(oldest)
}
