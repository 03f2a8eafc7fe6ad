// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

const (
	// DefaultTimeout bounds every request that does not configure its own.
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "shelfgrab/0.1"
)

// Client is an http.Client that sets a User-Agent and waits on a token
// bucket before each request. The zero limiter means unlimited.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewClient builds a Client from cfg, filling in defaults.
func NewClient(cfg types.HTTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: ua,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return c
}

// WithHTTPClient replaces the transport client, typically with an
// httptest server's client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Do waits for the limiter, sets the User-Agent and sends req.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.http.Do(req)
}

// Get issues a GET and returns the response; callers must close the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// GetPage fetches url and returns the body of a 200 response.
func (c *Client) GetPage(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
