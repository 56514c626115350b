// Package ensembl provides a rate-limited client for the Ensembl REST API.
package ensembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hortanse/variant-explorer/internal/ratelimit"
)

// DefaultBaseURL is the public Ensembl REST endpoint.
const DefaultBaseURL = "https://rest.ensembl.org/"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Config holds client settings. An empty BaseURL or zero Timeout falls back
// to the default. A zero MinInterval disables throttling.
type Config struct {
	BaseURL     string
	MinInterval time.Duration // minimum spacing between requests
	Timeout     time.Duration
}

// HTTPError is returned when the service answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("REST API error %d for %s: %s", e.StatusCode, e.URL, body)
}

// Client issues throttled GET requests against the Ensembl REST API.
// Every request made through one Client shares one throttle.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	throttle   *ratelimit.Throttle
	logger     *zap.Logger
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.MinInterval < 0 {
		return nil, fmt.Errorf("minimum request interval %s is negative", cfg.MinInterval)
	}
	cfg = applyDefaults(cfg)

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		throttle: ratelimit.New(cfg.MinInterval),
		logger:   zap.NewNop(),
	}, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// SetHTTPClient replaces the HTTP client used for requests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetThrottle replaces the request throttle.
func (c *Client) SetThrottle(t *ratelimit.Throttle) {
	c.throttle = t
}

// SetLogger sets the logger for request diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Fetch performs one throttled GET of endpoint (relative to the base URL)
// and returns the body unchanged. A non-2xx status yields *HTTPError.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	target := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var (
		status int
		body   []byte
	)
	start := time.Now()
	err = c.throttle.Do(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		status = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("ensembl request",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))

	if status < 200 || status > 299 {
		return nil, &HTTPError{StatusCode: status, URL: target, Body: string(body)}
	}
	return json.RawMessage(body), nil
}

// fetchInto fetches endpoint and decodes the body into v.
func (c *Client) fetchInto(ctx context.Context, endpoint string, params url.Values, v any) error {
	raw, err := c.Fetch(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
