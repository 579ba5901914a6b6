package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"studiomcp/internal/cache"
	"studiomcp/pkg/logging"
)

const (
	// DefaultBaseURL is the public Cucumber Studio API endpoint.
	DefaultBaseURL = "https://studio.cucumberstudio.com/api"
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 30 * time.Second

	acceptHeader      = "application/vnd.api+json; version=1"
	contentTypeHeader = "application/vnd.api+json"

	instrumentationName = "studiomcp/studio"
	subsystem           = "Studio"
)

// ErrMissingCredentials is returned when any of the three credential headers is empty.
var ErrMissingCredentials = errors.New("studio credentials are incomplete")

// HTTPDoer is the HTTP capability the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials are sent as static headers on every request.
type Credentials struct {
	AccessToken string
	ClientID    string
	UID         string
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration
}

// Client is the single path through which upstream calls are made. It
// serves GETs from the cache and invalidates derived keys after writes.
//
// Two overlapping writes to the same resource can interleave with a
// re-fetch so that a stale body is cached until its TTL expires. There is
// no per-key locking to prevent that.
type Client struct {
	baseURL     string
	credentials Credentials
	http        HTTPDoer

	cache       *cache.Cache
	invalidator *cache.Invalidator

	tracer        trace.Tracer
	requests      metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	invalidations metric.Int64Counter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithCache enables response caching backed by rc.
func WithCache(rc *cache.Cache) Option {
	return func(c *Client) {
		if rc != nil {
			c.cache = rc
			c.invalidator = cache.NewInvalidator(rc)
		}
	}
}

// NewClient creates a client. Caching is disabled unless WithCache is given.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Credentials.AccessToken == "" || cfg.Credentials.ClientID == "" || cfg.Credentials.UID == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: cfg.Credentials,
		http:        &http.Client{Timeout: cfg.Timeout},
		tracer:      otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initMetrics(otel.Meter(instrumentationName)); err != nil {
		return nil, fmt.Errorf("failed to init studio metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics(meter metric.Meter) error {
	var err error
	if c.requests, err = meter.Int64Counter("studio.requests",
		metric.WithDescription("Upstream requests issued"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if c.cacheHits, err = meter.Int64Counter("studio.cache.hits",
		metric.WithDescription("GET requests served from the response cache"),
	); err != nil {
		return err
	}
	if c.cacheMisses, err = meter.Int64Counter("studio.cache.misses",
		metric.WithDescription("GET requests not found in the response cache"),
	); err != nil {
		return err
	}
	c.invalidations, err = meter.Int64Counter("studio.cache.invalidations",
		metric.WithDescription("Cache entries dropped after writes"),
	)
	return err
}

// CachingEnabled reports whether GET responses are cached.
func (c *Client) CachingEnabled() bool {
	return c.cache != nil
}

// Get issues a GET, answering from the cache when possible.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do performs one upstream call. path is relative to the base URL and may
// carry a query string. A nil body sends no payload. Empty responses (204)
// return a nil message.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	method = strings.ToUpper(method)
	key := cache.Key(method, path)
	isRead := method == http.MethodGet

	ctx, span := c.tracer.Start(ctx, "studio.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("studio.path", path),
		),
	)
	defer span.End()

	if isRead && c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			logging.Debug(subsystem, "Cache hit for %s", key)
			c.cacheHits.Add(ctx, 1)
			span.SetAttributes(attribute.Bool("studio.cache_hit", true))
			return json.RawMessage(cached), nil
		}
		c.cacheMisses.Add(ctx, 1)
	}

	respBody, status, err := c.send(ctx, method, path, body)
	c.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("http.request.method", method)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Error(subsystem, err, "Upstream call failed (%s)", errorKind(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if isRead {
		if c.cache != nil {
			c.cache.Set(key, respBody)
		}
	} else if c.invalidator != nil {
		if removed := c.invalidator.Invalidate(method, path); removed > 0 {
			c.invalidations.Add(ctx, int64(removed))
		}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}
	return json.RawMessage(respBody), nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, &Error{Kind: KindRequestSetup, Method: method, Path: path, Err: fmt.Errorf("failed to encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, 0, &Error{Kind: KindRequestSetup, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", contentTypeHeader)
	req.Header.Set("access-token", c.credentials.AccessToken)
	req.Header.Set("client", c.credentials.ClientID)
	req.Header.Set("uid", c.credentials.UID)

	logging.Debug(subsystem, "%s %s", method, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &Error{Kind: KindNoResponse, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &Error{Kind: KindNoResponse, Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logging.Debug(subsystem, "%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &Error{
			Kind:       KindRejected,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Details:    parseErrorDetails(respBody),
		}
	}
	return respBody, resp.StatusCode, nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func errorKind(err error) string {
	if se, ok := AsError(err); ok {
		return se.Kind.String()
	}
	return "unknown"
}
