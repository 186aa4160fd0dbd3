package broker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpfactory "github.com/rajindersingh041/http-factory"
)

// testConfig returns a small catalog pointed at baseURL.
func testConfig(baseURL string) ServiceConfig {
	return ServiceConfig{
		Name:           "test",
		BaseURL:        baseURL,
		RatePerSecond:  100,
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		CacheTTL:       time.Minute,
		CircuitBreaker: true,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
		Endpoints: map[string]EndpointConfig{
			"item": {
				Path:        "items/{id}",
				Method:      "GET",
				Description: "Fetch one item",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
			"list": {
				Path:        "items",
				Method:      "GET",
				Description: "List items",
				UseCache:    true,
			},
			"create": {
				Path:        "items",
				Method:      "POST",
				Description: "Create an item",
			},
			"snapshot": {
				Path:        "snapshot",
				Method:      "POST",
				Description: "Aggregated snapshot",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
			"status": {
				Path:        "status",
				Method:      "GET",
				Description: "Uncached status probe",
			},
		},
	}
}

func TestNewService(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "test", svc.Name())
}

func TestNewServiceRequiresName(t *testing.T) {
	cfg := testConfig("https://api.example.com")
	cfg.Name = ""

	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service name is required")
}

func TestNewServiceRequiresBaseURL(t *testing.T) {
	cfg := testConfig("")

	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no base URL")
}

func TestNewServiceInvalidClientConfig(t *testing.T) {
	cfg := testConfig("ftp://api.example.com")

	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseURL must start with http:// or https://")
}

func TestServiceEndpointsSorted(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, []string{"create", "item", "list", "snapshot", "status"}, svc.Endpoints())
}

func TestServiceDescribe(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)
	defer svc.Close()

	ep, ok := svc.Describe("item")
	require.True(t, ok)
	assert.Equal(t, "items/{id}", ep.Path)
	assert.Equal(t, "GET", ep.Method)
	assert.True(t, ep.UseCache)

	_, ok = svc.Describe("nope")
	assert.False(t, ok)
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		params  map[string]string
		want    string
		wantErr string
	}{
		{
			name: "no placeholders",
			path: "items",
			want: "items",
		},
		{
			name:   "single placeholder",
			path:   "items/{id}",
			params: map[string]string{"id": "42"},
			want:   "items/42",
		},
		{
			name: "multiple placeholders",
			path: "historical-candle/{instrument_key}/{interval}/{to_date}",
			params: map[string]string{
				"instrument_key": "NSE_EQ|INE002A01018",
				"interval":       "1D",
				"to_date":        "2026-08-21",
			},
			want: "historical-candle/NSE_EQ%7CINE002A01018/1D/2026-08-21",
		},
		{
			name:   "value with slash is escaped",
			path:   "items/{id}",
			params: map[string]string{"id": "a/b"},
			want:   "items/a%2Fb",
		},
		{
			name:    "missing parameter",
			path:    "items/{id}",
			wantErr: "missing path parameter id",
		},
		{
			name:    "all missing parameters named",
			path:    "candles/{key}/{interval}",
			params:  map[string]string{},
			wantErr: "missing path parameter key, interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceCall(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("expand")
		gotHeader = r.Header.Get("X-Request-Source")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"42","symbol":"NSE:SBIN"}`)
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	resp, err := svc.Call(context.Background(), "item",
		WithPathParam("id", "42"),
		WithQuery(map[string]string{"expand": "true"}),
		WithHeaders(map[string]string{"X-Request-Source": "test"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "GET", gotMethod)
	assert.Equal(t, "/items/42", gotPath)
	assert.Equal(t, "true", gotQuery)
	assert.Equal(t, "test", gotHeader)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NSE:SBIN", payload["symbol"])
}

func TestServiceCallUnknownEndpoint(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Call(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown endpoint "missing"`)
	assert.Contains(t, err.Error(), "item")
}

func TestServiceCallMissingPathParam(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Call(context.Background(), "item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing path parameter id")
}

func TestServiceCallJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	resp, err := svc.Call(context.Background(), "create",
		WithJSON(map[string]string{"symbol": "NSE:SBIN"}),
	)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"symbol":"NSE:SBIN"}`, string(gotBody))
}

// TestServiceCallEndpointCache verifies the per-endpoint cache settings
// flow through the request context.
func TestServiceCallEndpointCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	// Cached endpoint: second call is served from the cache
	for i := 0; i < 2; i++ {
		_, err := svc.Call(context.Background(), "item", WithPathParam("id", "7"))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Uncached endpoint bypasses the cache entirely
	for i := 0; i < 2; i++ {
		_, err := svc.Call(context.Background(), "status")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestServiceCallPostCached verifies an endpoint configured with a cache
// TTL is cached even for POST, matching catalogs like Groww's aggregated
// snapshot.
func TestServiceCallPostCached(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"snapshot":true}`)
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	for i := 0; i < 2; i++ {
		_, err := svc.Call(context.Background(), "snapshot")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServiceHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	status := svc.Health(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "healthy", status.Status)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestServiceStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL), httpfactory.WithRatePerSecond(0))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Call(context.Background(), "list")
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.RequestCount)
	assert.Equal(t, int64(0), stats.ErrorCount)
}

func TestServiceClose(t *testing.T) {
	svc, err := NewService(testConfig("https://api.example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Close())

	_, err = svc.Call(context.Background(), "list")
	assert.True(t, errors.Is(err, httpfactory.ErrClientClosed))
}
