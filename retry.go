package httpfactory

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// RetryBudget caps the total number of retries across all calls within a
// sliding window, protecting upstreams from retry storms when many calls
// fail at once.
type RetryBudget struct {
	maxRetries  int64
	perWindow   time.Duration
	current     int64
	windowStart int64
}

// NewRetryBudget creates a budget allowing maxRetries retries per window.
func NewRetryBudget(maxRetries int, perWindow time.Duration) *RetryBudget {
	return &RetryBudget{
		maxRetries:  int64(maxRetries),
		perWindow:   perWindow,
		current:     0,
		windowStart: time.Now().UnixNano(),
	}
}

// Allow checks if a retry is allowed under the current budget.
func (rb *RetryBudget) Allow() bool {
	now := time.Now().UnixNano()
	windowStart := atomic.LoadInt64(&rb.windowStart)

	// Check if we need to reset the window
	if now-windowStart >= int64(rb.perWindow) {
		if atomic.CompareAndSwapInt64(&rb.windowStart, windowStart, now) {
			atomic.StoreInt64(&rb.current, 0)
		}
	}

	current := atomic.LoadInt64(&rb.current)
	if current >= rb.maxRetries {
		return false
	}

	newCurrent := atomic.AddInt64(&rb.current, 1)
	return newCurrent <= rb.maxRetries
}

// GetStats returns current retry budget statistics.
func (rb *RetryBudget) GetStats() (current, max int64, windowStart time.Time) {
	return atomic.LoadInt64(&rb.current),
		rb.maxRetries,
		time.Unix(0, atomic.LoadInt64(&rb.windowStart))
}

// doWithRetry runs one attempt of pr and recurses for the next one when
// the outcome is retryable. Every attempt waits on the rate limiter first
// and appends one entry to the request log. Transport errors and 5xx
// responses count as circuit breaker failures and are retried; 4xx
// responses are final.
func (c *Client) doWithRetry(ctx context.Context, hc *http.Client, pr *preparedRequest, attempt int, requestID string, startTime time.Time) (*Response, error) {
	endpoint := endpointLabel(pr.fullURL)

	waitStart := time.Now()
	if err := c.rateLimiter.Acquire(ctx); err != nil {
		if c.metrics != nil {
			c.metrics.RecordError(string(ErrorTypeCanceled), pr.method, endpoint)
		}
		return nil, c.newClientError(ErrorTypeCanceled, "canceled while waiting for rate limiter", err, requestID, pr, 0, attempt, time.Since(startTime))
	}
	if wait := time.Since(waitStart); wait > 0 {
		if c.metrics != nil {
			c.metrics.RecordRateLimiterWait(endpoint, wait)
		}
		if wait >= time.Millisecond && c.debug != nil && c.debug.Enabled && c.debug.LogRateLimit && c.logger != nil {
			c.logger.Debug("Rate limiter wait", "requestID", requestID, "wait", wait, "endpoint", endpoint)
		}
	}

	if attempt > 0 {
		if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", c.maxRetries, "endpoint", endpoint)
		}
		if c.metrics != nil {
			c.metrics.RecordRetry(pr.method, endpoint, attempt)
		}
	}

	req, err := pr.httpRequest(ctx)
	if err != nil {
		return nil, c.newClientError(ErrorTypeValidation, "building request", err, requestID, pr, 0, attempt, time.Since(startTime))
	}

	attemptStart := time.Now()
	httpResp, err := hc.Do(req)

	status := 0
	finalURL := pr.fullURL
	var header http.Header
	var body []byte
	if err == nil {
		status = httpResp.StatusCode
		header = httpResp.Header
		if httpResp.Request != nil && httpResp.Request.URL != nil {
			finalURL = httpResp.Request.URL.String()
		}
		body, err = io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
	}
	duration := time.Since(attemptStart)

	c.requestLog.add(RequestLogEntry{
		Timestamp: attemptStart,
		Method:    pr.method,
		URL:       pr.fullURL,
		Status:    status,
		Duration:  duration,
	})

	// Breaker outcome is recorded after the attempt completes; no breaker
	// lock is ever held around the HTTP call.
	if err != nil || status >= 500 {
		c.circuitBreaker.RecordFailure()
		if c.debug != nil && c.debug.Enabled && c.debug.LogCircuit && c.logger != nil {
			if err != nil {
				c.logger.Warn("Circuit breaker failure recorded", "requestID", requestID, "error", err.Error())
			} else {
				c.logger.Warn("Circuit breaker failure recorded", "requestID", requestID, "statusCode", status)
			}
		}
	} else {
		c.circuitBreaker.RecordSuccess()
	}
	if c.metrics != nil {
		c.metrics.RecordCircuitBreakerState("default", c.circuitBreaker.State())
	}

	if err == nil && status < 400 {
		return newResponse(status, header, body, finalURL), nil
	}

	// 4xx is the caller's problem; retrying cannot fix it.
	if err == nil && status < 500 {
		if c.metrics != nil {
			c.metrics.RecordError(string(ErrorTypeHTTPStatus), pr.method, endpoint)
		}
		statusErr := &StatusError{
			StatusCode: status,
			Status:     http.StatusText(status),
			Method:     pr.method,
			URL:        pr.fullURL,
			Snippet:    bodySnippet(body),
		}
		return nil, c.newClientError(ErrorTypeHTTPStatus, "server returned client error status", statusErr, requestID, pr, status, attempt, time.Since(startTime))
	}

	if err != nil && ctx.Err() != nil {
		if c.metrics != nil {
			c.metrics.RecordError(string(ErrorTypeCanceled), pr.method, endpoint)
		}
		return nil, c.newClientError(ErrorTypeCanceled, "request canceled", err, requestID, pr, 0, attempt, time.Since(startTime))
	}

	if c.metrics != nil {
		if err != nil {
			c.metrics.RecordError(string(ErrorTypeNetwork), pr.method, endpoint)
		} else {
			c.metrics.RecordError(string(ErrorTypeHTTPStatus), pr.method, endpoint)
		}
	}

	if attempt < c.maxRetries {
		if c.retryBudget != nil && !c.retryBudget.Allow() {
			if c.metrics != nil {
				c.metrics.RecordRetryBudgetExceeded(endpoint)
			}
			if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
				c.logger.Warn("Retry budget exceeded", "requestID", requestID, "endpoint", endpoint)
			}
			return nil, c.newClientError(ErrorTypeRetryBudget, "retry budget exceeded", ErrRetryBudgetExceeded, requestID, pr, status, attempt, time.Since(startTime))
		}

		delay := c.backoff.Delay(attempt)
		if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)
		}
		if err := sleepContext(ctx, delay); err != nil {
			return nil, c.newClientError(ErrorTypeCanceled, "canceled during retry backoff", err, requestID, pr, 0, attempt, time.Since(startTime))
		}
		return c.doWithRetry(ctx, hc, pr, attempt+1, requestID, startTime)
	}

	// Retries exhausted
	if err != nil {
		if isTimeout(err) {
			return nil, c.newClientError(ErrorTypeTimeout, "request timed out", err, requestID, pr, 0, attempt, time.Since(startTime))
		}
		return nil, c.newClientError(ErrorTypeNetwork, "network request failed", err, requestID, pr, 0, attempt, time.Since(startTime))
	}
	statusErr := &StatusError{
		StatusCode: status,
		Status:     http.StatusText(status),
		Method:     pr.method,
		URL:        pr.fullURL,
		Snippet:    bodySnippet(body),
	}
	return nil, c.newClientError(ErrorTypeHTTPStatus, "server returned error status", statusErr, requestID, pr, status, attempt, time.Since(startTime))
}

func (c *Client) newClientError(errorType ErrorType, message string, cause error, requestID string, pr *preparedRequest, statusCode, attempt int, duration time.Duration) *ClientError {
	return &ClientError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		RequestID:  requestID,
		Method:     pr.method,
		URL:        pr.fullURL,
		Endpoint:   endpointLabel(pr.fullURL),
		StatusCode: statusCode,
		Attempt:    attempt,
		MaxRetries: c.maxRetries,
		Timestamp:  time.Now(),
		Duration:   duration,
	}
}

// sleepContext sleeps for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func bodySnippet(body []byte) string {
	const limit = 512
	if len(body) > limit {
		body = body[:limit]
	}
	return strings.TrimSpace(string(body))
}
