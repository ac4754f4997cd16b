// Package testutil provides an in-process partner API double for tests.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock partner endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Request is a recorded call against the mock.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// MockPartner is a configurable partner API server for testing. Unmatched
// paths answer 404 with a JSON body.
type MockPartner struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// NewMockPartner starts a new mock partner server.
func NewMockPartner() *MockPartner {
	mock := &MockPartner{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mock.mu.Lock()
		mock.requests = append(mock.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockPartner) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPartner) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockPartner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for method and path.
func (m *MockPartner) SetHandler(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a fixed response for method and path.
func (m *MockPartner) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// Requests returns a copy of the recorded requests.
func (m *MockPartner) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests matching method and path. An
// empty method or path matches anything.
func (m *MockPartner) RequestCount(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if (method == "" || r.Method == method) && (path == "" || r.Path == path) {
			n++
		}
	}
	return n
}

// JSON creates a 200 response carrying body as application/json.
func JSON(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// Status creates an empty response with the given status.
func Status(code int) MockResponse {
	return MockResponse{StatusCode: code}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "1",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewHTMLErrorResponse creates an HTML error page like a gateway would send.
func NewHTMLErrorResponse(code int, text string) MockResponse {
	return MockResponse{
		StatusCode: code,
		Body:       fmt.Sprintf("<html><head><title>%d</title></head><body><h1>%s</h1></body></html>", code, text),
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// CarrierListBody returns a carrier search answer that buries the matching
// carrier inside unrelated objects, like the real TMS does.
func CarrierListBody(id, mcNumber, name string) string {
	return fmt.Sprintf(`{
  "Status": "SUCCESS",
  "details": {
    "pagination": {"start": 0, "pageSize": 24, "totalRecordsInPage": 1, "moreAvailable": false},
    "carriers": [
      {"id": %s, "mcNumber": %q, "name": %q, "status": {"code": {"key": "2100", "value": "Active"}}}
    ]
  }
}`, id, mcNumber, name)
}

// EmptyCarrierListBody returns a carrier search answer without matches.
func EmptyCarrierListBody() string {
	return `{"Status": "SUCCESS", "details": {"pagination": {"totalRecordsInPage": 0}, "carriers": []}}`
}

// CarrierDetailBody returns a full carrier detail answer.
func CarrierDetailBody(name, mcNumber string) string {
	return fmt.Sprintf(`{
  "Status": "SUCCESS",
  "details": {
    "name": %q,
    "mcNumber": %q,
    "dotNumber": 765432,
    "status": {"code": {"key": "2100"}, "description": "Active"},
    "address": [
      {"line1": "1 Billing Way", "city": "Reno", "state": "NV", "zip": "89501", "country": "US", "isPrimary": false},
      {"line1": "100 Main St", "city": "Chicago", "state": "IL", "zip": "60601", "country": "US", "isPrimary": true}
    ],
    "equipment": [
      {"qty": 2, "size": {"value": "53"}, "type": {"value": "Van"}},
      {"qty": 1, "size": {"value": "48"}, "type": {"value": "Flatbed"}}
    ],
    "insurance": [
      {"type": {"value": "Cargo"}, "amount": 100000, "expirationDate": "2025-01-01"},
      {"type": {"value": "Auto liability"}, "amount": 1000000, "expirationDate": "2025-06-30"}
    ],
    "authority": {"commonAuthority": "Active", "contractAuthority": "Inactive", "brokerAuthority": false}
  }
}`, name, mcNumber)
}

// LaneRateBody returns a lane-rate lookup answer with one rate.
func LaneRateBody(mileage, rate, low, fuel string) string {
	return fmt.Sprintf(`{"rateResponses": [{"response": {"rate": {
  "mileage": %s,
  "perTrip": {"rateUsd": %s, "lowUsd": %s, "highUsd": 0},
  "averageFuelSurchargePerTripUsd": %s
}}}]}`, mileage, rate, low, fuel)
}

// EmptyLaneRateBody returns a lane-rate answer without a rate.
func EmptyLaneRateBody() string {
	return `{"rateResponses": [{"response": {}}]}`
}
