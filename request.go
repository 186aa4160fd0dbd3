package httpfactory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RequestOption customizes a single call made through the client.
type RequestOption func(*requestOptions)

// requestOptions collects per-call parameters before the outgoing request
// is built.
type requestOptions struct {
	params      map[string]string
	header      http.Header
	body        []byte
	contentType string
	bodyErr     error
}

// WithParams adds query parameters to the call.
func WithParams(params map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.params == nil {
			o.params = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// WithParam adds a single query parameter to the call.
func WithParam(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.params == nil {
			o.params = make(map[string]string, 1)
		}
		o.params[key] = value
	}
}

// WithJSONBody marshals v as the request body and sets Content-Type to
// application/json.
func WithJSONBody(v interface{}) RequestOption {
	return func(o *requestOptions) {
		data, err := json.Marshal(v)
		if err != nil {
			o.bodyErr = err
			return
		}
		o.body = data
		o.contentType = "application/json"
	}
}

// WithRawBody sets the request body and content type as given.
func WithRawBody(body []byte, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.body = body
		o.contentType = contentType
	}
}

// WithCallHeader sets one header for this call, overriding any default
// header with the same name.
func WithCallHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Set(key, value)
	}
}

// WithCallHeaders sets several headers for this call.
func WithCallHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = make(http.Header, len(headers))
		}
		for k, v := range headers {
			o.header.Set(k, v)
		}
	}
}

// preparedRequest is the resolved form of one call: the final URL with
// encoded query, merged headers, and the body bytes sent on each attempt.
type preparedRequest struct {
	method   string
	endpoint string
	fullURL  string
	header   http.Header
	body     []byte
	cacheKey string
}

// prepareRequest resolves the endpoint against the base URL, applies the
// call options, and merges default headers with per-call ones (per-call
// wins).
func (c *Client) prepareRequest(method, endpoint string, opts ...RequestOption) (*preparedRequest, error) {
	ro := &requestOptions{}
	for _, opt := range opts {
		opt(ro)
	}
	if ro.bodyErr != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: "encoding request body",
			Cause:   ro.bodyErr,
			Method:  method,
			URL:     endpoint,
		}
	}

	resolved := c.resolveURL(endpoint)
	fullURL, err := appendParams(resolved, ro.params)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: "invalid request URL",
			Cause:   err,
			Method:  method,
			URL:     resolved,
		}
	}

	header := make(http.Header, len(c.defaultHeader)+len(ro.header))
	for k, vs := range c.defaultHeader {
		header[k] = append([]string(nil), vs...)
	}
	for k, vs := range ro.header {
		header[k] = append([]string(nil), vs...)
	}
	if ro.contentType != "" {
		header.Set("Content-Type", ro.contentType)
	}

	return &preparedRequest{
		method:   method,
		endpoint: endpoint,
		fullURL:  fullURL,
		header:   header,
		body:     ro.body,
		cacheKey: c.cacheKeyFunc(method, resolved, ro.params),
	}, nil
}

// resolveURL joins endpoint onto the configured base URL. Absolute
// endpoints pass through untouched, as does everything when no base URL is
// set.
func (c *Client) resolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if c.baseURL == "" {
		return endpoint
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func appendParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// httpRequest builds a fresh *http.Request for one attempt. The body
// reader must be recreated per attempt so retries send the full payload.
func (pr *preparedRequest) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(pr.body) > 0 {
		body = bytes.NewReader(pr.body)
	}
	req, err := http.NewRequestWithContext(ctx, pr.method, pr.fullURL, body)
	if err != nil {
		return nil, err
	}
	req.Header = pr.header.Clone()
	return req, nil
}

// endpointLabel reduces a URL to host plus path for metrics and logs,
// dropping the query so label cardinality stays bounded.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)

	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}
