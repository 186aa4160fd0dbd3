// Package httpfactory provides a resilient asynchronous HTTP client core
// for JSON APIs, built for market data and broker integrations:
//
//   - Retries with capped exponential backoff (1s, 2s, 4s ... capped at 30s)
//   - Rate limiting (minimum interval between requests, context aware)
//   - In‑memory response caching with per‑request overrides
//   - Circuit breaker (open / half‑open / closed states)
//   - Request de‑duplication (merges concurrent identical in‑flight requests)
//   - Concurrent batch fetches with bounded parallelism
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Fully materialized responses – no body streams to leak
//   - Safe concurrent use of a single *Client instance
//   - No lock ever held across network I/O
//
// Typical usage:
//
//	client := httpfactory.New(
//	    httpfactory.WithBaseURL("https://api.example.com"),
//	    httpfactory.WithRatePerSecond(10),
//	    httpfactory.WithMaxRetries(3),
//	    httpfactory.WithCircuitBreaker(httpfactory.CircuitBreakerConfig{}),
//	)
//	defer client.Close()
//
//	resp, err := client.Get(ctx, "/v2/quotes", httpfactory.WithParam("symbol", "NSE:SBIN"))
//
// Responses are fully read and decoded leniently: resp.Data holds the
// parsed JSON value when the payload is JSON, the raw text otherwise.
// Transport failures and 5xx answers are retried; 4xx answers are not.
// The library avoids opinionated logging: provide a Logger (e.g. via
// WithSimpleLogger) + enable debug flags selectively (WithDebug /
// WithDebugConfig) for insight without noise.
package httpfactory
