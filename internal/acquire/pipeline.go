// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/shelfgrab/internal/report"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

// Pipeline runs a Controller and a Worker that share one Queue.
type Pipeline struct {
	Controller *Controller
	Worker     *Worker
}

// Run starts the worker, scans items, then waits until the deferred queue
// has drained. A persistence failure in either flow cancels the other and
// is returned.
func (p *Pipeline) Run(ctx context.Context, items []types.CatalogItem) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.Worker.Run(ctx)
	})
	g.Go(func() error {
		if err := p.Controller.Scan(ctx, items); err != nil {
			// Let the worker observe completion even on failure.
			p.Controller.cfg.Queue.Complete()
			return err
		}
		return p.Controller.Finish(ctx)
	})

	err := g.Wait()
	if err != nil {
		slog.Error("pipeline stopped", "error", err)
	}
	return err
}

// Reports returns the primary and deferred reports.
func (p *Pipeline) Reports() []*report.Report {
	return []*report.Report{p.Controller.Report(), p.Worker.Report()}
}
