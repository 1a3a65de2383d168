// Package testutil provides testing utilities for the Strava client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// Rate limit headers sent with every mock response.
const (
	DefaultRateLimit = "600,30000"
	DefaultRateUsage = "1,1"
)

// MockResponse defines the behavior for a mock Strava endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// PageRequest is one paged request received by a collection handler.
type PageRequest struct {
	Page    int
	PerPage int
}

// MockStrava is a configurable mock Strava API server for testing.
type MockStrava struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	pages    map[string][]PageRequest
	usage    string

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockStrava creates a new mock Strava server.
func NewMockStrava() *MockStrava {
	mock := &MockStrava{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pages:    make(map[string][]PageRequest),
		usage:    DefaultRateUsage,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		usage := mock.usage
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		w.Header().Set("X-RateLimit-Limit", DefaultRateLimit)
		w.Header().Set("X-RateLimit-Usage", usage)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		writeFault(w, http.StatusNotFound, "Record Not Found")
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockStrava) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStrava) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockStrava) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.pages = make(map[string][]PageRequest)
}

// SetUsage sets the X-RateLimit-Usage header value, e.g. "540,1000".
func (m *MockStrava) SetUsage(usage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = usage
}

// SetHandler sets a custom handler for a specific path.
func (m *MockStrava) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockStrava) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection serves a paged collection of n elements {"id": 1..n} at path,
// honouring page and per_page (default 30) like Strava does.
func (m *MockStrava) SetCollection(path string, n int) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		perPage := queryInt(r, "per_page", 30)

		m.mu.Lock()
		m.pages[path] = append(m.pages[path], PageRequest{Page: page, PerPage: perPage})
		m.mu.Unlock()

		items := []map[string]int{}
		for id := (page-1)*perPage + 1; id <= page*perPage && id <= n; id++ {
			items = append(items, map[string]int{"id": id})
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(items)
	})
}

// SetSequence serves bodies in order on successive requests to path and repeats
// the last one afterwards.
func (m *MockStrava) SetSequence(path string, bodies ...string) {
	var (
		mu   sync.Mutex
		next int
	)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body := bodies[next]
		if next < len(bodies)-1 {
			next++
		}
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// Pages returns the paged requests a collection handler received.
func (m *MockStrava) Pages(path string) []PageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PageRequest(nil), m.pages[path]...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockStrava) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func writeFault(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"message":%q,"errors":[{"resource":"Resource","field":"path","code":"invalid"}]}`, message)
}

// NewHealthyResponse creates a standard 200 OK response.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
	}
}

// NewNotFoundResponse creates a 404 Record Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message":"Record Not Found","errors":[{"resource":"Segment","field":"id","code":"invalid"}]}`,
	}
}

// NewUnauthorizedResponse creates a 401 Authorization Error response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"message":"Authorization Error","errors":[{"resource":"AccessToken","field":"activity:read_permission","code":"missing"}]}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"Rate Limit Exceeded","errors":[{"resource":"Application","field":"rate limit","code":"exceeded"}]}`,
		Headers: map[string]string{
			"X-RateLimit-Usage": "601,1200",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Internal Server Error"}`,
	}
}
