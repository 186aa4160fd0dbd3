// Package broker layers named service catalogs over the httpfactory
// client. A Service owns one configured client and dispatches calls by
// endpoint name, substituting path parameters and applying the endpoint's
// cache rules. Built-in catalogs cover the market data and portfolio read
// surfaces of Upstox, Groww, and XTS.
package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	httpfactory "github.com/rajindersingh041/http-factory"
)

// EndpointConfig describes one named endpoint of a service catalog. Path
// may contain {placeholders} filled in per call via WithPathParam.
type EndpointConfig struct {
	Path        string
	Method      string
	Description string
	UseCache    bool
	CacheTTL    time.Duration
}

// ServiceConfig describes a complete service: the client settings and the
// endpoint catalog. Zero-valued client settings fall back to the
// httpfactory defaults.
type ServiceConfig struct {
	Name           string
	BaseURL        string
	RatePerSecond  float64
	Timeout        time.Duration
	MaxRetries     int
	MaxConnections int
	CacheTTL       time.Duration
	CircuitBreaker bool
	HealthEndpoint string
	DefaultHeaders map[string]string
	Endpoints      map[string]EndpointConfig
}

// Service dispatches calls against a catalog of named endpoints through
// one resilient client.
type Service interface {
	Name() string
	Endpoints() []string
	Describe(endpoint string) (EndpointConfig, bool)
	Call(ctx context.Context, endpoint string, opts ...CallOption) (*httpfactory.Response, error)
	Health(ctx context.Context) httpfactory.HealthStatus
	Stats() httpfactory.Stats
	Close() error
}

type service struct {
	cfg    ServiceConfig
	client *httpfactory.Client
}

// NewService builds the client described by cfg and wraps it in a Service.
// Options in extra are applied after the config, so callers can override
// any client setting or add authentication headers.
func NewService(cfg ServiceConfig, extra ...httpfactory.Option) (Service, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("broker: service name is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("broker: service %s has no base URL", cfg.Name)
	}

	options := []httpfactory.Option{httpfactory.WithBaseURL(cfg.BaseURL)}
	if cfg.RatePerSecond > 0 {
		options = append(options, httpfactory.WithRatePerSecond(cfg.RatePerSecond))
	}
	if cfg.Timeout > 0 {
		options = append(options, httpfactory.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries > 0 {
		options = append(options, httpfactory.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.MaxConnections > 0 {
		options = append(options, httpfactory.WithMaxConnections(cfg.MaxConnections))
	}
	if cfg.CacheTTL > 0 {
		options = append(options, httpfactory.WithCacheTTL(cfg.CacheTTL))
	}
	if !cfg.CircuitBreaker {
		options = append(options, httpfactory.WithoutCircuitBreaker())
	}
	if len(cfg.DefaultHeaders) > 0 {
		options = append(options, httpfactory.WithDefaultHeaders(cfg.DefaultHeaders))
	}
	options = append(options, extra...)

	client := httpfactory.New(options...)
	if !client.IsValid() {
		return nil, fmt.Errorf("broker: service %s configuration: %w", cfg.Name, client.ValidationError())
	}

	return &service{cfg: cfg, client: client}, nil
}

func (s *service) Name() string {
	return s.cfg.Name
}

// Endpoints returns the catalog's endpoint names, sorted.
func (s *service) Endpoints() []string {
	names := make([]string, 0, len(s.cfg.Endpoints))
	for name := range s.cfg.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the configuration of the named endpoint.
func (s *service) Describe(endpoint string) (EndpointConfig, bool) {
	ep, ok := s.cfg.Endpoints[endpoint]
	return ep, ok
}

// Call dispatches one request to the named endpoint. The endpoint's cache
// configuration is applied through the request context: endpoints with
// UseCache false bypass the cache, endpoints with a CacheTTL force caching
// at that TTL regardless of method.
func (s *service) Call(ctx context.Context, endpoint string, opts ...CallOption) (*httpfactory.Response, error) {
	ep, ok := s.cfg.Endpoints[endpoint]
	if !ok {
		return nil, fmt.Errorf("broker: unknown endpoint %q for service %s (available: %s)",
			endpoint, s.cfg.Name, strings.Join(s.Endpoints(), ", "))
	}

	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	path, err := expandPath(ep.Path, co.pathParams)
	if err != nil {
		return nil, fmt.Errorf("broker: endpoint %s of service %s: %w", endpoint, s.cfg.Name, err)
	}

	if !ep.UseCache {
		ctx = httpfactory.WithContextCacheDisabled(ctx)
	} else if ep.CacheTTL > 0 {
		ctx = httpfactory.WithContextCacheTTL(ctx, ep.CacheTTL)
	}

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	return s.client.Request(ctx, method, path, co.requestOptions()...)
}

// Health probes the configured health endpoint, or the base URL when none
// is set.
func (s *service) Health(ctx context.Context) httpfactory.HealthStatus {
	return s.client.HealthCheck(ctx, s.cfg.HealthEndpoint)
}

func (s *service) Stats() httpfactory.Stats {
	return s.client.Stats()
}

func (s *service) Close() error {
	return s.client.Close()
}

var pathPlaceholder = regexp.MustCompile(`\{([^{}]+)\}`)

// expandPath substitutes {name} placeholders in path from params. Every
// placeholder must be supplied; values are escaped as path segments.
func expandPath(path string, params map[string]string) (string, error) {
	var missing []string
	expanded := pathPlaceholder.ReplaceAllStringFunc(path, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return url.PathEscape(value)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing path parameter %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// CallOption customizes one service call.
type CallOption func(*callOptions)

type callOptions struct {
	pathParams map[string]string
	query      map[string]string
	headers    map[string]string
	json       interface{}
	hasJSON    bool
}

// WithPathParams supplies values for {placeholders} in the endpoint path.
func WithPathParams(params map[string]string) CallOption {
	return func(o *callOptions) {
		if o.pathParams == nil {
			o.pathParams = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.pathParams[k] = v
		}
	}
}

// WithPathParam supplies one {placeholder} value.
func WithPathParam(key, value string) CallOption {
	return func(o *callOptions) {
		if o.pathParams == nil {
			o.pathParams = make(map[string]string, 1)
		}
		o.pathParams[key] = value
	}
}

// WithQuery adds query parameters to the call.
func WithQuery(params map[string]string) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.query[k] = v
		}
	}
}

// WithJSON sends v as the JSON request body.
func WithJSON(v interface{}) CallOption {
	return func(o *callOptions) {
		o.json = v
		o.hasJSON = true
	}
}

// WithHeaders sets per-call headers, overriding service defaults.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

func (o *callOptions) requestOptions() []httpfactory.RequestOption {
	var opts []httpfactory.RequestOption
	if len(o.query) > 0 {
		opts = append(opts, httpfactory.WithParams(o.query))
	}
	if o.hasJSON {
		opts = append(opts, httpfactory.WithJSONBody(o.json))
	}
	if len(o.headers) > 0 {
		opts = append(opts, httpfactory.WithCallHeaders(o.headers))
	}
	return opts
}
