// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// DefaultJSONPath is where the ledger lives unless configured otherwise.
const DefaultJSONPath = ".store.json"

// JSONStore keeps the ledger in memory and rewrites the whole file on every
// Put. The file is a JSON object keyed by item ID.
type JSONStore struct {
	path string

	mu      sync.Mutex
	records map[string]types.AcquisitionRecord
}

// OpenJSON loads the ledger at path. A missing file is an empty ledger.
func OpenJSON(path string) (*JSONStore, error) {
	s := &JSONStore{path: path, records: make(map[string]types.AcquisitionRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for id, rec := range s.records {
		if rec.ID == "" {
			rec.ID = id
			s.records[id] = rec
		}
	}
	return s, nil
}

func (s *JSONStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

func (s *JSONStore) Get(id string) (types.AcquisitionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *JSONStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Put adds rec and writes the full snapshot while holding the lock, so
// concurrent writers never lose each other's records. If the write fails
// the record stays in memory and is persisted with the next successful Put.
func (s *JSONStore) Put(_ context.Context, rec types.AcquisitionRecord) (bool, error) {
	if rec.ID == "" {
		return false, fmt.Errorf("record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return false, nil
	}
	s.records[rec.ID] = rec

	if err := s.persist(); err != nil {
		return true, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return true, nil
}

// persist writes the snapshot to a temp file and renames it over the
// ledger. Caller holds s.mu.
func (s *JSONStore) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot: %w", closeErr)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *JSONStore) Records() ([]types.AcquisitionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.AcquisitionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b types.AcquisitionRecord) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Close is a no-op; every Put is already on disk.
func (s *JSONStore) Close() error { return nil }

var _ Store = (*JSONStore)(nil)
