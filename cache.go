package httpfactory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// ResponseCache is a TTL cache for materialized responses, keyed by method,
// URL, and query parameters. Expired entries are evicted lazily on lookup;
// CleanupExpired sweeps the rest. Cached responses are shared between
// callers and must be treated as read-only.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
}

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// NewResponseCache creates a cache whose entries default to defaultTTL.
// A non-positive defaultTTL falls back to 5 minutes.
func NewResponseCache(defaultTTL time.Duration) *ResponseCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &ResponseCache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the fresh entry for key, evicting it if expired.
func (rc *ResponseCache) Get(key string) (*Response, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, ok := rc.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(rc.entries, key)
		return nil, false
	}
	return entry.resp, true
}

// Set stores resp under key. A non-positive ttl uses the cache default.
func (rc *ResponseCache) Set(key string, resp *Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = cacheEntry{
		resp:      resp,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes the entry for key if present.
func (rc *ResponseCache) Delete(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.entries, key)
}

// Clear drops every entry.
func (rc *ResponseCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[string]cacheEntry)
}

// CleanupExpired removes all expired entries and reports how many were
// dropped.
func (rc *ResponseCache) CleanupExpired() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range rc.entries {
		if now.After(entry.expiresAt) {
			delete(rc.entries, key)
			removed++
		}
	}
	return removed
}

// Size reports the number of stored entries. Expired entries count until
// evicted by Get or CleanupExpired.
func (rc *ResponseCache) Size() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// CacheKeyFunc derives the cache key for a request.
type CacheKeyFunc func(method, url string, params map[string]string) string

// DefaultCacheKeyFunc joins method, URL, and the sorted query parameters so
// that the same call with reordered params hits the same entry.
func DefaultCacheKeyFunc(method, url string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(url)
	b.WriteByte(':')
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(params[k])
		}
	}
	return b.String()
}

// CacheCondition decides whether a request is cacheable at all.
type CacheCondition func(method string) bool

// DefaultCacheCondition caches only GET requests.
func DefaultCacheCondition(method string) bool {
	return method == "GET"
}

type contextKey string

// CacheControlKey is the context key used for per-request cache control
var (
	CacheControlKey contextKey = "httpfactory_cache_control"
)

// CacheControl holds cache control options for a request
type CacheControl struct {
	Enabled bool
	TTL     time.Duration
}

// WithContextCacheEnabled forces caching for the request carried by ctx,
// overriding the client's cache condition.
func WithContextCacheEnabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: true})
}

// WithContextCacheDisabled bypasses the cache for the request carried by ctx.
func WithContextCacheDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: false})
}

// WithContextCacheTTL forces caching with a specific TTL for the request
// carried by ctx.
func WithContextCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: true, TTL: ttl})
}

func (c *Client) shouldCacheRequest(ctx context.Context, method string) bool {
	if c.cache == nil {
		return false
	}

	if cacheControl, ok := ctx.Value(CacheControlKey).(*CacheControl); ok {
		return cacheControl.Enabled
	}

	return c.cacheCondition(method)
}

func (c *Client) cacheTTLForRequest(ctx context.Context) time.Duration {
	if cacheControl, ok := ctx.Value(CacheControlKey).(*CacheControl); ok && cacheControl.TTL > 0 {
		return cacheControl.TTL
	}

	return c.cacheTTL
}
