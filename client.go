package httpfactory

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	internalbackoff "github.com/rajindersingh041/http-factory/internal/backoff"
	"github.com/rajindersingh041/http-factory/internal/singleflight"
)

// Client is a resilient HTTP client for JSON APIs. Every call flows
// through the response cache, the circuit breaker, the rate limiter, and
// the retry loop before it reaches the wire. A Client is safe for
// concurrent use by multiple goroutines.
type Client struct {
	baseURL          string
	ratePerSecond    float64
	timeout          time.Duration
	maxRetries       int
	backoff          internalbackoff.Strategy
	cacheTTL         time.Duration
	maxConnections   int
	batchConcurrency int
	defaultHeader    http.Header

	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	cache          *ResponseCache
	cacheKeyFunc   CacheKeyFunc
	cacheCondition CacheCondition
	retryBudget    *RetryBudget
	dedup          *singleflight.Group
	dedupKeyFunc   DedupKeyFunc
	dedupCondition DedupCondition

	metrics *MetricsCollector
	debug   *DebugConfig
	logger  Logger

	requestCount int64
	errorCount   int64
	requestLog   requestLog

	mu         sync.Mutex
	httpClient *http.Client
	transport  http.RoundTripper
	closed     bool

	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for
// errors.
func New(options ...Option) *Client {
	client := &Client{
		baseURL:          "",
		ratePerSecond:    10,
		timeout:          30 * time.Second,
		maxRetries:       3,
		backoff:          internalbackoff.Default(),
		cacheTTL:         5 * time.Minute,
		maxConnections:   100,
		batchConcurrency: 8,
		defaultHeader:    make(http.Header),
		rateLimiter:      NewRateLimiter(10),
		circuitBreaker:   NewCircuitBreaker(CircuitBreakerConfig{}),
		cache:            NewResponseCache(5 * time.Minute),
		cacheKeyFunc:     DefaultCacheKeyFunc,
		cacheCondition:   DefaultCacheCondition,
		retryBudget:      nil,
		dedup:            nil,
		dedupKeyFunc:     DefaultDedupKeyFunc,
		dedupCondition:   DefaultDedupCondition,
		metrics:          nil,
		debug:            DefaultDebugConfig(),
		logger:           nil,
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Request performs an HTTP call to endpoint and returns the materialized
// response. The endpoint is resolved against the configured base URL
// unless it is already absolute. Non-2xx/3xx outcomes return an error; the
// response body is always fully read and the connection released.
func (c *Client) Request(ctx context.Context, method, endpoint string, opts ...RequestOption) (*Response, error) {
	atomic.AddInt64(&c.requestCount, 1)
	start := time.Now()

	hc, err := c.ensureHTTPClient()
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		return nil, err
	}

	pr, err := c.prepareRequest(method, endpoint, opts...)
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		return nil, err
	}

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	label := endpointLabel(pr.fullURL)

	if c.debug != nil && c.debug.Enabled && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", pr.fullURL, "endpoint", label)
	}

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, label)
	}

	resp, err := c.execute(ctx, hc, pr, requestID, start)

	if c.metrics != nil {
		c.metrics.RecordRequestEnd(method, label)

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		c.metrics.RecordRequest(method, label, statusCode, time.Since(start))
	}

	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
	}

	return resp, err
}

// execute collapses concurrent identical calls when deduplication is on,
// then delegates to the cache, breaker, and retry pipeline.
func (c *Client) execute(ctx context.Context, hc *http.Client, pr *preparedRequest, requestID string, start time.Time) (*Response, error) {
	if c.dedup == nil || !c.dedupCondition(pr.method) {
		return c.run(ctx, hc, pr, requestID, start)
	}

	dedupKey := c.dedupKeyFunc(pr.method, pr.fullURL)
	val, err, shared := c.dedup.Do(ctx, dedupKey, func() (interface{}, error) {
		return c.run(ctx, hc, pr, requestID, start)
	})

	if shared {
		if c.metrics != nil {
			c.metrics.RecordDeduplicationHit(pr.method, endpointLabel(pr.fullURL))
		}
		if c.debug != nil && c.debug.Enabled && c.logger != nil {
			c.logger.Debug("Deduplication hit", "requestID", requestID, "dedupKey", dedupKey)
		}
	}

	resp, _ := val.(*Response)
	return resp, err
}

// run performs the cache lookup, breaker admission, retry loop, and cache
// store for one logical call.
func (c *Client) run(ctx context.Context, hc *http.Client, pr *preparedRequest, requestID string, start time.Time) (*Response, error) {
	label := endpointLabel(pr.fullURL)
	cacheable := c.shouldCacheRequest(ctx, pr.method)

	if cacheable {
		if resp, ok := c.cache.Get(pr.cacheKey); ok {
			if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
				c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", pr.cacheKey)
			}
			if c.metrics != nil {
				c.metrics.RecordCacheHit(pr.method, label)
			}
			return resp, nil
		}

		if c.metrics != nil {
			c.metrics.RecordCacheMiss(pr.method, label)
		}
		if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", pr.cacheKey)
		}
	}

	if err := c.circuitBreaker.Allow(); err != nil {
		if c.debug != nil && c.debug.Enabled && c.debug.LogCircuit && c.logger != nil {
			c.logger.Warn("Circuit breaker open", "requestID", requestID, "endpoint", label, "state", c.circuitBreaker.State())
		}
		if c.metrics != nil {
			c.metrics.RecordError(string(ErrorTypeCircuitOpen), pr.method, label)
		}
		return nil, c.newClientError(ErrorTypeCircuitOpen, "circuit breaker is open", err, requestID, pr, 0, 0, time.Since(start))
	}

	resp, err := c.doWithRetry(ctx, hc, pr, 0, requestID, start)
	if err != nil {
		return nil, err
	}

	if cacheable && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		ttl := c.cacheTTLForRequest(ctx)
		c.cache.Set(pr.cacheKey, resp, ttl)

		if c.metrics != nil {
			c.metrics.RecordCacheSize("default", c.cache.Size())
		}
		if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", pr.cacheKey, "ttl", ttl)
		}
	}

	return resp, nil
}

// Get performs a GET request against endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, opts...)
}

// Post performs a POST request against endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, endpoint, opts...)
}

// Put performs a PUT request against endpoint.
func (c *Client) Put(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, endpoint, opts...)
}

// Delete performs a DELETE request against endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, opts...)
}

// BatchResult holds the outcome for one endpoint of a GetMultiple call.
type BatchResult struct {
	Response *Response
	Err      error
}

// GetMultiple fans out concurrent GETs to the given endpoints and returns
// a result per endpoint. A failing endpoint lands in its BatchResult.Err
// and never fails the batch. Concurrency is bounded by
// WithBatchConcurrency (default 8); the rate limiter still paces the
// individual requests.
func (c *Client) GetMultiple(ctx context.Context, endpoints []string, opts ...RequestOption) map[string]BatchResult {
	results := make([]BatchResult, len(endpoints))

	var g errgroup.Group
	g.SetLimit(c.batchConcurrency)
	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			resp, err := c.Get(ctx, endpoint, opts...)
			results[i] = BatchResult{Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]BatchResult, len(endpoints))
	for i, endpoint := range endpoints {
		out[endpoint] = results[i]
	}
	return out
}

// Stats returns a point-in-time snapshot of client activity.
func (c *Client) Stats() Stats {
	requests := atomic.LoadInt64(&c.requestCount)
	errs := atomic.LoadInt64(&c.errorCount)

	var errorRate float64
	if requests > 0 {
		errorRate = float64(errs) / float64(requests)
	}

	cacheSize := 0
	if c.cache != nil {
		cacheSize = c.cache.Size()
	}

	return Stats{
		RequestCount:      requests,
		ErrorCount:        errs,
		ErrorRate:         errorRate,
		RequestsPerMinute: c.requestLog.countSince(time.Now().Add(-time.Minute)),
		CacheSize:         cacheSize,
		CircuitState:      c.circuitBreaker.State().String(),
		RecentRequests:    c.requestLog.recent(10),
	}
}

// HealthCheck probes endpoint with a single GET and reports the outcome.
// It never returns an error; failures are described in the status. The
// probe bypasses the response cache so it measures the live service.
func (c *Client) HealthCheck(ctx context.Context, endpoint string) HealthStatus {
	start := time.Now()
	_, err := c.Get(WithContextCacheDisabled(ctx), endpoint)

	status := HealthStatus{
		Latency:      time.Since(start),
		CircuitState: c.circuitBreaker.State().String(),
		CheckedAt:    start,
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	status.Status = "healthy"
	return status
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// CleanupExpiredCache removes expired cache entries and reports how many
// were dropped.
func (c *Client) CleanupExpiredCache() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.CleanupExpired()
}

// ensureHTTPClient builds the pooled transport lazily on first use.
func (c *Client) ensureHTTPClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.httpClient == nil {
		transport := c.transport
		if transport == nil {
			transport = &http.Transport{
				MaxIdleConns:        c.maxConnections,
				MaxIdleConnsPerHost: c.maxConnections,
				IdleConnTimeout:     90 * time.Second,
			}
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}
	return c.httpClient, nil
}

// Close releases idle connections and marks the client closed. In-flight
// requests finish; subsequent calls return ErrClientClosed. Close is
// idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}
