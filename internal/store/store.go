// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the durable ledger of acquired catalog items. Both the
// primary scan and the deferred worker write to the same Store, so every
// implementation serializes its read-modify-persist sequence.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// ErrPersistence wraps failures to write the ledger to disk.
var ErrPersistence = errors.New("persisting record store")

// Store maps catalog item IDs to acquisition records. Keys are never
// overwritten once present.
type Store interface {
	// Has reports whether id has a record. Implementations that cannot
	// read the ledger answer true so the item is not fetched again.
	Has(id string) bool

	// Get returns the record for id.
	Get(id string) (types.AcquisitionRecord, bool)

	// Put adds rec and persists the ledger. It returns false without
	// writing when rec.ID is already present.
	Put(ctx context.Context, rec types.AcquisitionRecord) (bool, error)

	// Records returns every record ordered by ID.
	Records() ([]types.AcquisitionRecord, error)

	// Len returns the number of records.
	Len() int

	Close() error
}

// Open opens the ledger at path using the given backend. An empty backend
// means JSON.
func Open(backend types.StoreBackend, path string) (Store, error) {
	switch backend {
	case "", types.StoreJSON:
		return OpenJSON(path)
	case types.StoreSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
