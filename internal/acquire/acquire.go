// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire runs the two acquisition flows: the primary scan over the
// catalog and the deferred worker that drains unmatched items against a
// secondary provider.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/shelfgrab/internal/metrics"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/internal/report"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// ErrNotFound means no candidate satisfied the matcher.
var ErrNotFound = errors.New("no matching candidate")

// now is replaced in tests.
var now = time.Now

// acquisition is one matched candidate on its way to disk and the ledger.
type acquisition struct {
	flow     string
	provider provider.Provider
	link     string
	name     string
	record   types.AcquisitionRecord
}

// complete downloads a.link and records the item once the file is on disk.
// Download failures come back as a report entry with a nil error; only
// persistence failures are returned.
func (a acquisition) complete(ctx context.Context, st store.Store, m *metrics.Metrics) (report.Entry, error) {
	entry := report.Entry{ID: a.record.ID, Title: a.record.Title, Source: a.provider.Name()}

	// An in-flight download and its record outlive cancellation of the
	// surrounding flow, so a file on disk always gets its record.
	ctx = context.WithoutCancel(ctx)
	res, err := a.provider.Download(ctx, a.link, a.name)
	if err != nil {
		slog.Warn("download failed", "flow", a.flow, "id", a.record.ID, "source", a.provider.Name(), "error", err)
		entry.Outcome = report.FailedToDownload
		entry.Detail = err.Error()
		m.Outcome(a.flow, string(entry.Outcome))
		return entry, nil
	}
	if !res.AlreadyPresent {
		m.Downloaded(res.Bytes)
	}
	entry.File = res.Name

	rec := a.record
	rec.Source = a.provider.Name()
	rec.File = res.Name
	rec.AcquiredAt = now().UTC()
	if _, err := st.Put(ctx, rec); err != nil {
		entry.Outcome = report.Failed
		entry.Detail = err.Error()
		m.Outcome(a.flow, string(entry.Outcome))
		return entry, fmt.Errorf("recording %s: %w", rec.ID, err)
	}

	entry.Outcome = report.OK
	if res.AlreadyPresent {
		entry.Detail = "already present"
	}
	m.Outcome(a.flow, string(entry.Outcome))
	return entry, nil
}
