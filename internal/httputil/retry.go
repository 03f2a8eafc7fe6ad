// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP client shared by providers, the
// downloader and the translation service.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RetryBaseDelay is the first backoff after an HTTP 429. Tests override it.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// DoWithRetry sends req and retries only on HTTP 429, doubling the wait from
// RetryBaseDelay each time. Other statuses and transport errors are returned
// as-is. Requests with a body must set GetBody so it can be replayed.
// After maxRetries (default 3) the last 429 response is returned so the
// caller can inspect it. A cancelled ctx during a wait returns ctx.Err().
func DoWithRetry(ctx context.Context, c *Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	backoff := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}
		resp, err := c.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		slog.Debug("rate limited, backing off", "url", req.URL.Redacted(), "wait", backoff, "attempt", attempt+1)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}
