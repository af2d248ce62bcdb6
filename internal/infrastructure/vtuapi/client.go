// Package vtuapi is the typed client for the DataPadi backend REST API.
// Every call carries the caller's bearer token, is throttled by a shared
// rate limiter and is attempted exactly once: purchases are not idempotent
// upstream, so nothing here retries.
package vtuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v1"

// Config configures the backend client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
	RateBurst int
	UserAgent string
	Observer  Observer
}

// Observer receives one call per completed round trip. status is 0 when
// no response arrived.
type Observer interface {
	RecordUpstream(ctx context.Context, method, path string, status int, d time.Duration)
}

// Client talks to the DataPadi backend
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	limiter    *rate.Limiter
	observer   Observer
}

// New creates a backend client
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: base,
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		limiter:  limiter,
		observer: cfg.Observer,
	}
	if cfg.UserAgent != "" {
		c.headers["User-Agent"] = cfg.UserAgent
	}
	return c, nil
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to the context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token carried by ctx
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}

// Request represents a backend call
type Request struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        any
}

// Response represents a raw backend response
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// IsSuccess returns true for 2xx responses
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do executes a single request. Transport failures come back as
// DATA_UNAVAILABLE; status handling is left to the caller.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.buildURL(req.Path, req.QueryParams)

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, shared.NewDataUnavailableError("backend request throttled: " + err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(ctx, httpReq)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(ctx, req, 0, time.Since(start))
		return nil, shared.NewDataUnavailableError("backend unreachable: " + err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, shared.NewDataUnavailableError("failed to read backend response: " + err.Error())
	}

	elapsed := time.Since(start)
	c.observe(ctx, req, httpResp.StatusCode, elapsed)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       raw,
		Duration:   elapsed,
	}, nil
}

func (c *Client) observe(ctx context.Context, req Request, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.RecordUpstream(ctx, req.Method, routeOf(req.Path), status, d)
	}
}

// routeOf keeps the first two path segments so references and IDs do not
// become metric labels
func routeOf(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}

// call performs the request and decodes the envelope. On a non-2xx status
// the backend message becomes the error; otherwise the envelope is returned
// for the caller to pick its payload from.
func (c *Client) call(ctx context.Context, req Request) (*envelope, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	env, decodeErr := decodeEnvelope(resp.Body)
	if !resp.IsSuccess() {
		msg := ""
		if decodeErr == nil {
			msg = env.Message
		}
		return nil, statusError(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return env, nil
}

func (c *Client) buildURL(path string, query map[string]string) string {
	// path segments arrive already escaped
	u := c.baseURL.String() + apiPrefix + path
	if len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			if v != "" {
				q.Set(k, v)
			}
		}
		if encoded := q.Encode(); encoded != "" {
			u += "?" + encoded
		}
	}
	return u
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
