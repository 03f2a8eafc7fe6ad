// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

type searchCall struct {
	query string
	field provider.Field
}

// stubProvider records calls and answers searches from a function.
type stubProvider struct {
	name   string
	search func(query string, field provider.Field) ([]types.Candidate, error)

	// downloadErr makes every download fail.
	downloadErr error

	mu        sync.Mutex
	searches  []searchCall
	resolved  []types.Candidate
	downloads []string
	present   map[string]bool
}

func newStub(name string) *stubProvider {
	return &stubProvider{name: name, present: make(map[string]bool)}
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, query string, field provider.Field) ([]types.Candidate, error) {
	s.mu.Lock()
	s.searches = append(s.searches, searchCall{query, field})
	s.mu.Unlock()
	if s.search == nil {
		return nil, nil
	}
	return s.search(query, field)
}

func (s *stubProvider) ResolveDownloadLink(_ context.Context, c types.Candidate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, c)
	return c.Link, nil
}

// Download mimics fetch.Downloader: a name seen before is already present
// and costs no network call.
func (s *stubProvider) Download(_ context.Context, locator, name string) (fetch.Result, error) {
	if name == "" {
		name = path.Base(locator)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.present[name] {
		return fetch.Result{Name: name, AlreadyPresent: true}, nil
	}
	s.downloads = append(s.downloads, locator)
	if s.downloadErr != nil {
		return fetch.Result{}, s.downloadErr
	}
	s.present[name] = true
	return fetch.Result{Name: name, Bytes: 42}, nil
}

func (s *stubProvider) searchCalls() []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]searchCall(nil), s.searches...)
}

func (s *stubProvider) downloadCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloads...)
}

type stubTranslator struct {
	out string
	err error
}

func (t stubTranslator) Translate(context.Context, string) (string, error) {
	return t.out, t.err
}

// failingStore accepts nothing.
type failingStore struct {
	store.Store
}

func (failingStore) Has(string) bool { return false }

func (failingStore) Put(context.Context, types.AcquisitionRecord) (bool, error) {
	return false, errors.Join(store.ErrPersistence, errors.New("disk full"))
}

func openStore(t *testing.T) (*store.JSONStore, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), ".store.json")
	s, err := store.OpenJSON(p)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, p
}

func item(id, title, author, isbn, isbn13 string) types.CatalogItem {
	return types.CatalogItem{ID: id, Title: title, Author: author, ISBN: isbn, ISBN13: isbn13, Shelves: []string{"to-read"}}
}
