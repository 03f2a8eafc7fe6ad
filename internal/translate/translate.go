// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate calls a LibreTranslate-compatible service. The fetch
// pipeline uses it to search for an author under their name in another
// language.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// DefaultURL is the public LibreTranslate instance.
const DefaultURL = "https://libretranslate.com"

// Translator turns text from one language into another.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Client is a LibreTranslate client bound to one language pair.
type Client struct {
	client     *httputil.Client
	url        string
	source     string
	target     string
	apiKey     string
	maxRetries int
}

// New returns a client for cfg. Source and target default to en and ru.
func New(cfg types.TranslateConfig, client *httputil.Client) *Client {
	c := &Client{
		client:     client,
		url:        strings.TrimRight(cfg.URL, "/"),
		source:     cfg.Source,
		target:     cfg.Target,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.source == "" {
		c.source = "en"
	}
	if c.target == "" {
		c.target = "ru"
	}
	return c
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate posts text to /translate and returns the translation.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}
	body, err := json.Marshal(request{Q: text, Source: c.source, Target: c.target, Format: "text", APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parsing translate response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate returned HTTP %d: %s", resp.StatusCode, out.Error)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out.TranslatedText, nil
}
