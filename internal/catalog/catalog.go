// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog reads a Goodreads-style CSV export into CatalogItems.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// Required header names. The first column, whatever its name, is the ID.
const (
	colISBN    = "ISBN"
	colISBN13  = "ISBN13"
	colTitle   = "Title"
	colAuthor  = "Author"
	colShelves = "Bookshelves"
)

// Load reads the catalog at path.
func Load(path string) ([]types.CatalogItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a catalog from r. Quoted fields may contain commas. Rows
// with fewer columns than the header are skipped.
func Parse(r io.Reader) ([]types.CatalogItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columns(header)
	if err != nil {
		return nil, err
	}

	var items []types.CatalogItem
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog row: %w", err)
		}
		if len(row) < len(header) || strings.TrimSpace(row[0]) == "" {
			continue
		}
		items = append(items, types.CatalogItem{
			ID:      strings.TrimSpace(row[0]),
			Title:   strings.TrimSpace(row[idx[colTitle]]),
			Author:  strings.TrimSpace(row[idx[colAuthor]]),
			ISBN:    CleanISBN(row[idx[colISBN]]),
			ISBN13:  CleanISBN(row[idx[colISBN13]]),
			Shelves: splitShelves(row[idx[colShelves]]),
		})
	}
	return items, nil
}

func columns(header []string) (map[string]int, error) {
	idx := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, want := range []string{colISBN, colISBN13, colTitle, colAuthor, colShelves} {
		if _, ok := idx[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog header missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// CleanISBN strips the ="..." wrapper spreadsheet exports put around ISBNs.
func CleanISBN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	return strings.Trim(s, `"`)
}

func splitShelves(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
