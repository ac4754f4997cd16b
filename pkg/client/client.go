// Package client provides the HTTP client used by units of work to talk to a
// partner API: JSON encoding, bearer credentials, error classification and
// request metrics. It never retries; a failed call is the caller's failure.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for partner API calls.
var (
	partnerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_requests_total",
		Help: "Total partner API requests by partner, method and status",
	}, []string{"partner", "method", "status"})

	partnerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "partner_request_duration_seconds",
		Help:    "Partner API request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"partner", "method"})

	partnerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_errors_total",
		Help: "Total partner API errors by class",
	}, []string{"partner", "class"})
)

// ErrorClass represents a classification of partner errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassFormat represents a 2xx answer that is not the expected JSON.
	ErrorClassFormat ErrorClass = "format"
)

// Config holds the client configuration.
type Config struct {
	// Name labels metrics and logs, e.g. "tms" or "lane-rate".
	Name string

	// BaseURL is prepended to every request path.
	BaseURL string

	// APIKey is sent as x-api-key when set.
	APIKey string

	// UserAgent header.
	UserAgent string

	// Timeout bounds each request. The orchestrator applies no deadline of its own.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with a 30 second request timeout.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:      name,
		BaseURL:   baseURL,
		UserAgent: "freight-batch/1.0",
		Timeout:   30 * time.Second,
	}
}

// Client talks to one partner API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new partner client.
func New(cfg Config) (*Client, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("partner name is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "partner-client").Str("partner", cfg.Name).Logger(),
	}, nil
}

// Name returns the partner name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do sends req with the partner headers and records metrics. Non-2xx responses
// are returned as-is; only transport failures produce an error.
func (c *Client) Do(req *http.Request, cred credential.Credential) (*http.Response, error) {
	start := time.Now()
	defer func() {
		partnerRequestDuration.WithLabelValues(c.config.Name, req.Method).Observe(time.Since(start).Seconds())
	}()

	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}
	cred.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		partnerErrorsTotal.WithLabelValues(c.config.Name, string(ErrorClassNetwork)).Inc()
		partnerRequestsTotal.WithLabelValues(c.config.Name, req.Method, "network_error").Inc()
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("Partner request failed")
		return nil, &PartnerError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}

	partnerRequestsTotal.WithLabelValues(c.config.Name, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Partner request")

	return resp, nil
}

// GetJSON performs a GET and decodes the JSON answer into out.
func (c *Client) GetJSON(ctx context.Context, cred credential.Credential, path string, query url.Values, out any) error {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.roundTrip(req, cred, out)
}

// SendJSON sends body as JSON with the given method. When out is nil the
// answer body is discarded and only the status matters.
func (c *Client) SendJSON(ctx context.Context, cred credential.Credential, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.roundTrip(req, cred, out)
}

func (c *Client) roundTrip(req *http.Request, cred credential.Credential, out any) error {
	resp, err := c.Do(req, cred)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		partnerErrorsTotal.WithLabelValues(c.config.Name, string(class)).Inc()
		c.logger.Warn().
			Str("path", req.URL.Path).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Partner request error")
		return &PartnerError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    responseText(resp),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		partnerErrorsTotal.WithLabelValues(c.config.Name, string(ErrorClassFormat)).Inc()
		return &PartnerError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassFormat,
			Message:    responseText(resp),
		}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		partnerErrorsTotal.WithLabelValues(c.config.Name, string(ErrorClassFormat)).Inc()
		return &PartnerError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassFormat,
			Message:    "malformed JSON",
			Err:        err,
		}
	}
	return nil
}

// classifyStatus categorizes an HTTP status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassFormat
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
