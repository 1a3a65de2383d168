// Package client provides the Strava API v3 client with bearer authentication,
// error classification, rate limit observation, and the paging, leaderboard and
// polling operations built on top of it.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/Sternrassler/strava-client/pkg/leaderboard"
	"github.com/Sternrassler/strava-client/pkg/logging"
	"github.com/Sternrassler/strava-client/pkg/pagination"
	"github.com/Sternrassler/strava-client/pkg/polling"
	"github.com/Sternrassler/strava-client/pkg/ratelimit"
	"github.com/Sternrassler/strava-client/pkg/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for Strava client operations.
var (
	stravaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strava_requests_total",
		Help: "Total Strava requests by endpoint and status",
	}, []string{"endpoint", "status"})

	stravaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strava_request_duration_seconds",
		Help:    "Strava request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	stravaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strava_errors_total",
		Help: "Total Strava errors by class",
	}, []string{"class"})
)

// Default endpoints of the Strava API.
const (
	DefaultBaseURL  = "https://www.strava.com/api/v3"
	DefaultOAuthURL = "https://www.strava.com/oauth"
)

// Client is the main Strava client.
type Client struct {
	httpClient *http.Client
	rateLimit  *ratelimit.Observer
	tokens     *token.Cache
	config     Config
	logger     zerolog.Logger

	mu         sync.RWMutex
	credential *token.Entry
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the REST API (default: DefaultBaseURL)
	BaseURL string

	// OAuthURL of the OAuth endpoints (default: DefaultOAuthURL)
	OAuthURL string

	// User-Agent header
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Credential used for every request (REQUIRED)
	Credential *token.Entry

	// Tokens receives the credential on New and loses it on Deauthorize
	// (default: token.Default())
	Tokens *token.Cache

	// RateLimit is fed with the rate limit headers of every response
	// (default: observer with ratelimit.DefaultConfig())
	RateLimit *ratelimit.Observer

	// Timeout per HTTP request
	Timeout time.Duration

	// Paging
	MaxPageSize int // Remote maximum per_page

	// Leaderboards
	ContextEntries int // Rows around the athlete, clamped to [0,15]

	// Polling of resources still being processed
	Polling polling.Config
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(credential *token.Entry, userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		OAuthURL:       DefaultOAuthURL,
		UserAgent:      userAgent,
		Credential:     credential,
		Timeout:        30 * time.Second,
		MaxPageSize:    pagination.RemoteMaxPageSize,
		ContextEntries: leaderboard.DefaultContextEntries,
		Polling:        polling.DefaultConfig(),
	}
}

// New creates a new Strava client and caches its credential.
func New(cfg Config) (*Client, error) {
	if cfg.Credential == nil || cfg.Credential.Token == "" {
		return nil, fmt.Errorf("credential with access token is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxPageSize <= 0 || cfg.MaxPageSize > pagination.RemoteMaxPageSize {
		return nil, fmt.Errorf("max_page_size must be in [1, %d] (got %d)", pagination.RemoteMaxPageSize, cfg.MaxPageSize)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = DefaultOAuthURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.OAuthURL = strings.TrimRight(cfg.OAuthURL, "/")
	cfg.ContextEntries = leaderboard.ClampContextEntries(cfg.ContextEntries)

	if cfg.Polling.MaxAttempts == 0 && cfg.Polling.Base == 0 && cfg.Polling.Increment == 0 {
		sleep := cfg.Polling.Sleep
		cfg.Polling = polling.DefaultConfig()
		if sleep != nil {
			cfg.Polling.Sleep = sleep
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	// Initialize logger
	logger := logging.NewLogger("strava-client")

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.Default()
	}

	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = ratelimit.NewObserver(ratelimit.DefaultConfig(), logger)
	}

	if cfg.Credential.PrincipalKey != "" {
		if err := tokens.Put(context.Background(), cfg.Credential); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache credential")
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimit:  rateLimit,
		tokens:     tokens,
		config:     cfg,
		logger:     logger,
		credential: cfg.Credential,
	}, nil
}

// NewFromCache creates a client using the cached credential of principal, which must
// have been granted at least the given scopes. Returns ErrNoCredential otherwise.
func NewFromCache(ctx context.Context, cfg Config, principal string, scopes ...token.Scope) (*Client, error) {
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.Default()
	}

	entry, err := tokens.FindAtLeast(ctx, principal, scopes...)
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if entry == nil {
		return nil, ErrNoCredential
	}

	cfg.Credential = entry
	cfg.Tokens = tokens
	return New(cfg)
}

// Do performs an HTTP request with authentication, error classification and
// rate limit observation. Responses with status >= 400 are returned as *apierr.Error
// and their body is closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	// Start request timing
	startTime := time.Now()
	defer func() {
		stravaRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cred := c.Credential()
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing Strava request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		stravaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		stravaRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, apierr.Wrap(apierr.KindOther, req.Method+" "+endpoint, err)
	}

	// Observe rate limit counters
	if err := c.rateLimit.ObserveHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to observe rate limit headers")
	}

	stravaRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp)
		stravaErrorsTotal.WithLabelValues(string(errClass)).Inc()

		apiErr := responseError(resp)
		logEvent := c.logger.Warn()
		if apiErr.Kind == apierr.KindNotFound {
			logEvent = c.logger.Debug()
		}
		logEvent.
			Str(logging.FieldEndpoint, endpoint).
			Int(logging.FieldStatus, resp.StatusCode).
			Str(logging.FieldErrorClass, string(errClass)).
			Str(logging.FieldErrorKind, string(apiErr.Kind)).
			Msg("Strava request error")
		return nil, apiErr
	}

	return resp, nil
}

// classifyError categorizes an error response for observability.
func (c *Client) classifyError(resp *http.Response) ErrorClass {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Get performs a GET request to a Strava endpoint relative to BaseURL.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	u := c.config.BaseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	resp, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return apierr.Wrap(apierr.KindOther, "decode "+endpoint, err)
	}
	return nil
}

// Credential returns the credential requests are made with.
func (c *Client) Credential() *token.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// RateLimit returns the observer fed by this client.
func (c *Client) RateLimit() *ratelimit.Observer {
	return c.rateLimit
}

// Tokens returns the credential cache used by this client.
func (c *Client) Tokens() *token.Cache {
	return c.tokens
}

// Close closes the client and releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
