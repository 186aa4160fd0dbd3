package httpfactory

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		endpoint string
		want     string
	}{
		{"relative endpoint", "https://api.example.com", "/v2/quotes", "https://api.example.com/v2/quotes"},
		{"no leading slash", "https://api.example.com", "v2/quotes", "https://api.example.com/v2/quotes"},
		{"trailing slash base", "https://api.example.com/", "/v2/quotes", "https://api.example.com/v2/quotes"},
		{"absolute endpoint", "https://api.example.com", "https://other.example.com/health", "https://other.example.com/health"},
		{"absolute http endpoint", "https://api.example.com", "http://other.example.com/health", "http://other.example.com/health"},
		{"no base URL", "", "https://api.example.com/v2/quotes", "https://api.example.com/v2/quotes"},
		{"no base URL relative", "", "/v2/quotes", "/v2/quotes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(WithBaseURL(tt.baseURL))
			if got := client.resolveURL(tt.endpoint); got != tt.want {
				t.Errorf("resolveURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestAppendParams(t *testing.T) {
	got, err := appendParams("https://api.example.com/v2/quotes", map[string]string{
		"symbol": "NSE:SBIN",
		"mode":   "full",
	})
	if err != nil {
		t.Fatalf("appendParams returned %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("Parse returned %v", err)
	}

	if u.Query().Get("symbol") != "NSE:SBIN" {
		t.Errorf("Expected symbol=NSE:SBIN, got %s", u.Query().Get("symbol"))
	}
	if u.Query().Get("mode") != "full" {
		t.Errorf("Expected mode=full, got %s", u.Query().Get("mode"))
	}
}

func TestAppendParamsNoParams(t *testing.T) {
	raw := "https://api.example.com/v2/quotes"

	got, err := appendParams(raw, nil)
	if err != nil {
		t.Fatalf("appendParams returned %v", err)
	}

	if got != raw {
		t.Errorf("Expected URL unchanged, got %q", got)
	}
}

func TestAppendParamsMergesExistingQuery(t *testing.T) {
	got, err := appendParams("https://api.example.com/v2/quotes?mode=ltp", map[string]string{
		"symbol": "NSE:SBIN",
	})
	if err != nil {
		t.Fatalf("appendParams returned %v", err)
	}

	u, _ := url.Parse(got)
	if u.Query().Get("mode") != "ltp" {
		t.Errorf("Expected existing mode=ltp preserved, got %s", u.Query().Get("mode"))
	}
	if u.Query().Get("symbol") != "NSE:SBIN" {
		t.Errorf("Expected symbol=NSE:SBIN added, got %s", u.Query().Get("symbol"))
	}
}

func TestPrepareRequestHeaderMerge(t *testing.T) {
	client := New(
		WithBaseURL("https://api.example.com"),
		WithDefaultHeader("Authorization", "Bearer token123"),
		WithDefaultHeader("Accept", "application/json"),
	)

	pr, err := client.prepareRequest("GET", "/v2/quotes",
		WithCallHeader("Accept", "application/xml"),
		WithCallHeader("X-Request-Source", "test"),
	)
	if err != nil {
		t.Fatalf("prepareRequest returned %v", err)
	}

	// Default header survives
	if got := pr.header.Get("Authorization"); got != "Bearer token123" {
		t.Errorf("Expected Authorization preserved, got %q", got)
	}

	// Per-call header overrides default
	if got := pr.header.Get("Accept"); got != "application/xml" {
		t.Errorf("Expected per-call Accept to win, got %q", got)
	}

	if got := pr.header.Get("X-Request-Source"); got != "test" {
		t.Errorf("Expected X-Request-Source set, got %q", got)
	}
}

func TestPrepareRequestHeaderIsolation(t *testing.T) {
	client := New(WithDefaultHeader("Authorization", "Bearer token123"))

	pr, err := client.prepareRequest("GET", "https://api.example.com/v2/quotes")
	if err != nil {
		t.Fatalf("prepareRequest returned %v", err)
	}

	// Mutating the prepared header must not leak into the client defaults
	pr.header.Set("Authorization", "Bearer other")

	if got := client.defaultHeader.Get("Authorization"); got != "Bearer token123" {
		t.Errorf("Default header mutated through prepared request: %q", got)
	}
}

func TestPrepareRequestJSONBody(t *testing.T) {
	client := New()

	pr, err := client.prepareRequest("POST", "https://api.example.com/orders",
		WithJSONBody(map[string]interface{}{
			"symbol":   "NSE:SBIN",
			"quantity": 10,
		}),
	)
	if err != nil {
		t.Fatalf("prepareRequest returned %v", err)
	}

	if got := pr.header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", got)
	}

	if !strings.Contains(string(pr.body), `"symbol":"NSE:SBIN"`) {
		t.Errorf("Body missing symbol field: %s", string(pr.body))
	}
}

func TestPrepareRequestJSONBodyError(t *testing.T) {
	client := New()

	// Channels cannot be marshaled
	_, err := client.prepareRequest("POST", "https://api.example.com/orders",
		WithJSONBody(make(chan int)),
	)
	if err == nil {
		t.Fatal("Expected error for unmarshalable body")
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("Expected *ClientError, got %T", err)
	}
	if clientErr.Type != ErrorTypeValidation {
		t.Errorf("Expected Validation error, got %s", clientErr.Type)
	}
}

func TestPrepareRequestRawBody(t *testing.T) {
	client := New()

	pr, err := client.prepareRequest("POST", "https://api.example.com/upload",
		WithRawBody([]byte("col1,col2\n1,2"), "text/csv"),
	)
	if err != nil {
		t.Fatalf("prepareRequest returned %v", err)
	}

	if got := pr.header.Get("Content-Type"); got != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %q", got)
	}

	if string(pr.body) != "col1,col2\n1,2" {
		t.Errorf("Body mismatch: %s", string(pr.body))
	}
}

func TestPrepareRequestInvalidURL(t *testing.T) {
	client := New()

	_, err := client.prepareRequest("GET", "http://exa mple.com/%zz", WithParam("a", "b"))
	if err == nil {
		t.Fatal("Expected error for invalid URL")
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("Expected *ClientError, got %T", err)
	}
	if clientErr.Type != ErrorTypeValidation {
		t.Errorf("Expected Validation error, got %s", clientErr.Type)
	}
}

func TestPreparedRequestHTTPRequest(t *testing.T) {
	client := New(WithDefaultHeader("Authorization", "Bearer token123"))

	pr, err := client.prepareRequest("POST", "https://api.example.com/orders",
		WithJSONBody(map[string]string{"symbol": "NSE:SBIN"}),
	)
	if err != nil {
		t.Fatalf("prepareRequest returned %v", err)
	}

	req, err := pr.httpRequest(context.Background())
	if err != nil {
		t.Fatalf("httpRequest returned %v", err)
	}

	if req.Method != "POST" {
		t.Errorf("Expected POST, got %s", req.Method)
	}
	if req.URL.String() != "https://api.example.com/orders" {
		t.Errorf("Unexpected URL %s", req.URL)
	}
	if req.Header.Get("Authorization") != "Bearer token123" {
		t.Error("Expected Authorization header on built request")
	}
	if req.Body == nil {
		t.Fatal("Expected non-nil body")
	}

	// Each attempt builds a fresh request with its own body reader
	req2, err := pr.httpRequest(context.Background())
	if err != nil {
		t.Fatalf("second httpRequest returned %v", err)
	}
	if req2 == req {
		t.Error("Expected a fresh request per attempt")
	}
}

func TestWithParamsAccumulate(t *testing.T) {
	ro := &requestOptions{}

	WithParams(map[string]string{"a": "1", "b": "2"})(ro)
	WithParam("c", "3")(ro)
	WithParam("a", "overridden")(ro)

	if len(ro.params) != 3 {
		t.Fatalf("Expected 3 params, got %d", len(ro.params))
	}
	if ro.params["a"] != "overridden" {
		t.Errorf("Expected later WithParam to win, got %s", ro.params["a"])
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://api.example.com/v2/quotes?symbol=NSE:SBIN", "api.example.com/v2/quotes"},
		{"https://api.example.com/", "api.example.com/"},
		{"https://api.example.com", "api.example.com/"},
		{"http://localhost:8080/healthz", "localhost:8080/healthz"},
		{"://bad url", "unknown"},
	}

	for _, tt := range tests {
		if got := endpointLabel(tt.rawURL); got != tt.want {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}
