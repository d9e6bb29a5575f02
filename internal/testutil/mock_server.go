// Package testutil provides an HTTP double for the session and rewards APIs.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// MockServer provides a test HTTP server for API mocking.
type MockServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	requests []Request
	mu       sync.RWMutex
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path

		ms.mu.Lock()
		ms.requests = append(ms.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		handler, ok := ms.handlers[key]
		ms.mu.Unlock()

		if ok {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts down the server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// Handle registers a custom handler for a method+path.
func (ms *MockServer) Handle(method, path string, handler http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[method+" "+path] = handler
}

// HandleJSON registers a handler that returns JSON with the given status.
func (ms *MockServer) HandleJSON(method, path string, status int, response interface{}) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	})
}

// HandleSequence answers successive calls with the given statuses; the last
// entry repeats. Each status is sent with body.
func (ms *MockServer) HandleSequence(method, path string, statuses []int, body interface{}) {
	var (
		mu    sync.Mutex
		calls int
	)
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx := calls
		calls++
		mu.Unlock()
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statuses[idx])
		_ = json.NewEncoder(w).Encode(body)
	})
}

// Requests returns a copy of recorded requests.
func (ms *MockServer) Requests() []Request {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([]Request(nil), ms.requests...)
}

// Count returns how many requests hit method+path.
func (ms *MockServer) Count(method, path string) int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	n := 0
	for _, r := range ms.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset clears handlers and recorded requests.
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers = make(map[string]http.HandlerFunc)
	ms.requests = nil
}
