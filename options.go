package httpfactory

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rajindersingh041/http-factory/internal/singleflight"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithBaseURL sets the base URL that relative endpoints resolve against.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRatePerSecond caps the outgoing request rate. A rate of zero or less
// disables limiting.
func WithRatePerSecond(rate float64) Option {
	return func(c *Client) {
		c.ratePerSecond = rate
		c.rateLimiter = NewRateLimiter(rate)
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoffStrategy sets the delay schedule between retry attempts.
func WithBackoffStrategy(s BackoffStrategy) Option {
	return func(c *Client) {
		c.backoff = s
	}
}

// WithCacheTTL sets the default TTL for cached responses.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithoutCache disables response caching entirely.
func WithoutCache() Option {
	return func(c *Client) {
		c.cache = nil
	}
}

// WithCacheKeyFunc sets a custom cache key function
func WithCacheKeyFunc(fn CacheKeyFunc) Option {
	return func(c *Client) {
		c.cacheKeyFunc = fn
	}
}

// WithCacheCondition sets a custom cache condition function
func WithCacheCondition(fn CacheCondition) Option {
	return func(c *Client) {
		c.cacheCondition = fn
	}
}

// WithMaxConnections bounds the idle connection pool of the lazily built
// transport.
func WithMaxConnections(n int) Option {
	return func(c *Client) {
		c.maxConnections = n
	}
}

// WithCircuitBreaker sets the circuit breaker configuration
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.circuitBreaker = NewCircuitBreaker(config)
	}
}

// WithoutCircuitBreaker disables the circuit breaker.
func WithoutCircuitBreaker() Option {
	return func(c *Client) {
		c.circuitBreaker = nil
	}
}

// WithDefaultHeader sets one header sent on every request. Per-call
// headers with the same name win.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.defaultHeader.Set(key, value)
	}
}

// WithDefaultHeaders sets several headers sent on every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeader.Set(k, v)
		}
	}
}

// WithTransport sets the http.RoundTripper used when the transport is
// built. Ignored when WithHTTPClient supplies a complete client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		// Update timeout if it was set
		if c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithBatchConcurrency bounds the number of concurrent requests issued by
// GetMultiple.
func WithBatchConcurrency(n int) Option {
	return func(c *Client) {
		c.batchConcurrency = n
	}
}

// WithRetryBudget caps the total retries across all calls per window.
func WithRetryBudget(maxRetries int, perWindow time.Duration) Option {
	return func(c *Client) {
		c.retryBudget = NewRetryBudget(maxRetries, perWindow)
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithMetricsRegistry enables metrics collection on the given registerer.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(registry)
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithDeduplication enables collapsing of concurrent identical requests.
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = singleflight.New()
	}
}

// WithDedupKeyFunc sets a custom deduplication key function
func WithDedupKeyFunc(fn DedupKeyFunc) Option {
	return func(c *Client) {
		c.dedupKeyFunc = fn
	}
}

// WithDedupCondition sets a custom deduplication condition function
func WithDedupCondition(fn DedupCondition) Option {
	return func(c *Client) {
		c.dedupCondition = fn
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	// Validate each configuration section
	errors = append(errors, c.validateCoreConfig()...)
	errors = append(errors, c.validateRetryConfig()...)
	errors = append(errors, c.validateCacheConfig()...)
	errors = append(errors, c.validateCircuitBreakerConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateDeduplicationConfig()...)
	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateExtremeValues()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

// validateCoreConfig validates base URL and pooling configuration
func (c *Client) validateCoreConfig() []string {
	var errors []string

	if c.baseURL != "" && !strings.HasPrefix(c.baseURL, "http://") && !strings.HasPrefix(c.baseURL, "https://") {
		errors = append(errors, "baseURL must start with http:// or https://")
	}

	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}

	if c.maxConnections <= 0 {
		errors = append(errors, "maxConnections must be positive")
	}

	if c.batchConcurrency <= 0 {
		errors = append(errors, "batchConcurrency must be positive")
	}

	return errors
}

// validateRetryConfig validates retry-related configuration
func (c *Client) validateRetryConfig() []string {
	var errors []string

	if c.maxRetries < 0 {
		errors = append(errors, "maxRetries must be non-negative")
	}

	if c.backoff == nil {
		errors = append(errors, "backoff strategy must be set")
	}

	if c.retryBudget != nil && c.retryBudget.maxRetries <= 0 {
		errors = append(errors, "retryBudget maxRetries must be positive")
	}

	return errors
}

// validateCacheConfig validates cache configuration
func (c *Client) validateCacheConfig() []string {
	var errors []string

	if c.cache != nil && c.cacheTTL <= 0 {
		errors = append(errors, "cacheTTL must be positive when cache is enabled")
	}

	if c.cache != nil && c.cacheKeyFunc == nil {
		errors = append(errors, "cache key function must be set when cache is enabled")
	}

	if c.cache != nil && c.cacheCondition == nil {
		errors = append(errors, "cache condition must be set when cache is enabled")
	}

	return errors
}

// validateCircuitBreakerConfig validates circuit breaker configuration
func (c *Client) validateCircuitBreakerConfig() []string {
	var errors []string

	if c.circuitBreaker != nil {
		if c.circuitBreaker.config.FailureThreshold <= 0 {
			errors = append(errors, "circuitBreaker FailureThreshold must be positive")
		}
		if c.circuitBreaker.config.RecoveryTimeout <= 0 {
			errors = append(errors, "circuitBreaker RecoveryTimeout must be positive")
		}
	}

	return errors
}

// validateDebugConfig validates debug configuration
func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

// validateDeduplicationConfig validates deduplication configuration
func (c *Client) validateDeduplicationConfig() []string {
	var errors []string

	if c.dedup != nil {
		if c.dedupKeyFunc == nil {
			errors = append(errors, "deduplication key function must be set when deduplication is enabled")
		}
		if c.dedupCondition == nil {
			errors = append(errors, "deduplication condition must be set when deduplication is enabled")
		}
	}

	return errors
}

// validateTransportConfig validates transport configuration
func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.transport != nil && c.httpClient != nil {
		errors = append(errors, "WithTransport has no effect when WithHTTPClient is set")
	}

	return errors
}

// validateExtremeValues validates that configuration values are within reasonable bounds
func (c *Client) validateExtremeValues() []string {
	var errors []string

	if c.maxRetries > 100 {
		errors = append(errors, "maxRetries > 100 may cause excessive resource usage")
	}

	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}

	if c.ratePerSecond > 100000 {
		errors = append(errors, "ratePerSecond > 100000 may cause excessive load")
	}

	if c.cache != nil && c.cacheTTL > 24*time.Hour {
		errors = append(errors, "cacheTTL > 24h may cause stale data issues")
	}

	if c.maxConnections > 10000 {
		errors = append(errors, "maxConnections > 10000 may exhaust file descriptors")
	}

	return errors
}
