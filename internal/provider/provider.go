// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider wraps external book sources behind one capability:
// search by query, resolve a candidate to a file locator, download it.
// Each source (LibGen, Flibusta) implements Provider.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// ErrUnavailable wraps network and parse failures. Callers treat it as
// "no candidates" and move on.
var ErrUnavailable = errors.New("provider unavailable")

// Field selects what a search query is matched against.
type Field int

const (
	// FieldIdentifier searches ISBN-like identifiers.
	FieldIdentifier Field = iota
	// FieldFreeText searches titles, authors and other free text.
	FieldFreeText
)

func (f Field) String() string {
	switch f {
	case FieldIdentifier:
		return "identifier"
	case FieldFreeText:
		return "free-text"
	default:
		return "unknown"
	}
}

// Provider is one external book source.
type Provider interface {
	// Name identifies the source in records and reports.
	Name() string

	// Search returns the candidates for query. No results is an empty
	// slice and a nil error.
	Search(ctx context.Context, query string, field Field) ([]types.Candidate, error)

	// ResolveDownloadLink turns a candidate into a direct file locator.
	// It returns "" and a nil error when the link cannot be resolved.
	ResolveDownloadLink(ctx context.Context, c types.Candidate) (string, error)

	// Download fetches locator into the output directory, named name or,
	// when name is empty, after the locator's last path segment.
	Download(ctx context.Context, locator, name string) (fetch.Result, error)
}

// base carries what every provider needs and implements Download.
type base struct {
	name       string
	baseURL    string
	client     *httputil.Client
	downloader *fetch.Downloader
}

func (b *base) Name() string { return b.name }

func (b *base) Download(ctx context.Context, locator, name string) (fetch.Result, error) {
	return b.downloader.Download(ctx, locator, name)
}

func (b *base) unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, b.name, op, err)
}

// New builds the provider registered under kind ("libgen" or "flibusta").
// The downloader is shared so both flows see one output namespace.
func New(kind string, cfg types.ProviderConfig, d *fetch.Downloader) (Provider, error) {
	client := httputil.NewClient(cfg.HTTPConfig)
	switch kind {
	case KindLibGen:
		return NewLibGen(cfg.BaseURL, client, d), nil
	case KindFlibusta:
		return NewFlibusta(cfg.BaseURL, client, d), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", kind, KindLibGen, KindFlibusta)
	}
}

const (
	KindLibGen   = "libgen"
	KindFlibusta = "flibusta"
)
