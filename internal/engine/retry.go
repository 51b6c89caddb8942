/*
PURPOSE:
  Retry settings for WebPageTest calls, applied to the resty client.

REQUIREMENTS:
  User-specified:
  - Transient failures of the public instance must not fail a whole run.

  Implementation-discovered:
  - Transport errors, HTTP 429 and HTTP 5xx are transient. API-level failures
    ({"statusCode": 400, ...} with HTTP 200) are not.
  - Retries must be visible: every retry is reported with the operation name.

ARCHITECTURE INTEGRATION:
  - Used by: NewClient (client.go)
  - Reported to: internal/output (log line + wpt_retry_attempts_total) via OnRetry

IMPLEMENTATION RULES:
  - resty does the waiting (exponential backoff with jitter, capped at MaxWait).
  - A cancelled or expired request context stops retrying; resty checks it first.

RELATED FILES:
  - internal/engine/client.go
  - internal/output/metrics.go
*/

package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RetryConfig configures retries of a single WebPageTest request.
type RetryConfig struct {
	// Count is the number of retries after the first attempt. 0 disables retries.
	Count   int
	Wait    time.Duration
	MaxWait time.Duration

	// OnRetry is called for every failed attempt that qualifies for a retry,
	// including the last one. attempt starts at 1.
	OnRetry func(op string, attempt int, err error)
}

// DefaultRetryConfig retries count times starting at wait, capped at 30s.
func DefaultRetryConfig(count int, wait time.Duration) RetryConfig {
	return RetryConfig{Count: count, Wait: wait, MaxWait: 30 * time.Second}
}

type opKey struct{}

func withOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey{}, op)
}

func (rc RetryConfig) apply(client *resty.Client) {
	if rc.Count <= 0 {
		return
	}
	client.SetRetryCount(rc.Count).
		SetRetryWaitTime(rc.Wait).
		SetRetryMaxWaitTime(rc.MaxWait).
		SetRetryAfter(nil).
		AddRetryCondition(retryable)

	if rc.OnRetry == nil {
		return
	}
	client.AddRetryHook(func(r *resty.Response, err error) {
		op, attempt := "request", 0
		if r != nil && r.Request != nil {
			if v, ok := r.Request.Context().Value(opKey{}).(string); ok {
				op = v
			}
			attempt = r.Request.Attempt
		}
		if err == nil && r != nil {
			err = fmt.Errorf("http status %s", r.Status())
		}
		rc.OnRetry(op, attempt, err)
	})
}

// retryable reports transport errors, 429 and 5xx as transient.
func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
}
