package httpfactory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is a fully materialized HTTP response. The body has been read
// and the connection released by the time a Response reaches the caller,
// so it may be kept, shared, and cached freely.
//
// Data holds a lenient interpretation of the body: the unmarshaled JSON
// value when the payload looks like JSON, the raw text otherwise, and nil
// for an empty body. Malformed JSON is never an error here; the raw text
// is kept so the caller can inspect what the server actually sent.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Data       interface{}
	URL        string
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals the raw body into v. Unlike Data, this is strict:
// malformed JSON returns the unmarshal error.
func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("httpfactory: empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// newResponse builds a Response from the raw status, headers, and body,
// applying the lenient body interpretation.
func newResponse(statusCode int, header http.Header, body []byte, url string) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     header,
		Body:       body,
		Data:       decodeBody(header, body),
		URL:        url,
	}
}

func decodeBody(header http.Header, body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}

	looksJSON := strings.Contains(strings.ToLower(header.Get("Content-Type")), "json")
	if !looksJSON {
		trimmed := strings.TrimSpace(string(body))
		looksJSON = strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	}

	if looksJSON {
		var v interface{}
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}
