// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

func TestClientSetsUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{UserAgent: "shelfgrab-test"}).WithHTTPClient(ts.Client())
	body, err := c.GetPage(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "shelfgrab-test", got)
}

func TestClientDefaultUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}).WithHTTPClient(ts.Client())
	_, err := c.GetPage(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, got)
}

func TestGetPageNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{}).WithHTTPClient(ts.Client())
	_, err := c.GetPage(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 410")
}

func TestClientLimiterHonoursContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	// One request per minute: the second call must wait and hit the deadline.
	c := NewClient(types.HTTPConfig{RequestsPerMinute: 1}).WithHTTPClient(ts.Client())
	_, err := c.GetPage(context.Background(), ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.GetPage(ctx, ts.URL)
	assert.Error(t, err)
}
