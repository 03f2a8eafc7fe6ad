// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"slices"
	"strings"
	"time"
)

// CatalogItem is one row of the reading catalog. It is never mutated after
// the catalog is read.
type CatalogItem struct {
	// ID is the first column of the source row and keys the record store.
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Author  string   `json:"author" yaml:"author"`
	ISBN    string   `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	ISBN13  string   `json:"isbn13,omitempty" yaml:"isbn13,omitempty"`
	Shelves []string `json:"shelves,omitempty" yaml:"shelves,omitempty"`
}

// OnShelf reports whether the item carries the given bookshelf tag.
func (c CatalogItem) OnShelf(shelf string) bool {
	return slices.Contains(c.Shelves, shelf)
}

// Format is the file format of a candidate.
type Format string

const (
	FormatEPUB  Format = "epub"
	FormatMOBI  Format = "mobi"
	FormatPDF   Format = "pdf"
	FormatOther Format = "other"
)

// ParseFormat maps a provider's extension column to the closed Format set.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatEPUB, FormatMOBI, FormatPDF:
		return f
	default:
		return FormatOther
	}
}

// Candidate is one search result from a provider. Candidates are transient
// and never persisted.
type Candidate struct {
	Authors []string `json:"authors"`
	Title   string   `json:"title"`
	Format  Format   `json:"format"`

	// Link is opaque to everything except the provider that produced it.
	Link string `json:"link"`

	// Provider names the source that produced the candidate.
	Provider string `json:"provider,omitempty"`
}

// FirstAuthor returns the first listed author or "" when there is none.
func (c Candidate) FirstAuthor() string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}

// AcquisitionRecord marks a catalog item as fetched. A record exists only
// for items whose file has been confirmed on disk.
type AcquisitionRecord struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`

	// Source is the provider identifier, e.g. "libgen.is" or "flibusta".
	Source string `json:"source" yaml:"source"`

	// File is the downloaded file name relative to the output directory.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	AcquiredAt time.Time `json:"acquired_at,omitzero" yaml:"acquired_at,omitempty"`
}

// DeferredRequest is an item no primary strategy matched. It is handed to
// the deferred worker exactly once.
type DeferredRequest struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
}
