// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/shelfgrab/internal/match"
	"github.com/pdiddy/shelfgrab/internal/metrics"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/internal/report"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/internal/translate"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

const (
	// FlowPrimary labels the primary scan in logs, metrics and reports.
	FlowPrimary = "primary"

	// DefaultShelf is the catalog shelf that marks an item as wanted.
	DefaultShelf = "to-read"

	// DefaultDrainInterval is how often Finish rechecks the deferred queue.
	DefaultDrainInterval = 10 * time.Second
)

// ControllerConfig wires a Controller. Translator, Metrics, Progress and
// Out are optional.
type ControllerConfig struct {
	Provider      provider.Provider
	Store         store.Store
	Queue         *Queue
	Translator    translate.Translator
	Metrics       *metrics.Metrics
	Progress      *progressbar.ProgressBar
	Out           io.Writer
	Shelf         string
	DrainInterval time.Duration
}

// Controller walks the catalog against the primary provider and hands
// unmatched items to the deferred queue.
type Controller struct {
	cfg      ControllerConfig
	report   *report.Report
	deferred map[string]bool
}

// NewController returns a controller with an empty "Primary" report.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Shelf == "" {
		cfg.Shelf = DefaultShelf
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = DefaultDrainInterval
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Controller{
		cfg:      cfg,
		report:   report.New("Primary"),
		deferred: make(map[string]bool),
	}
}

// Report returns the primary scan's report.
func (c *Controller) Report() *report.Report { return c.report }

// strategy is one step of the primary fallback order.
type strategy struct {
	name  string
	field provider.Field
	// query returns "" to skip the step.
	query func(ctx context.Context, item types.CatalogItem) string
	// identifier steps trust the provider's match and only pick a format.
	identifier bool
}

func (c *Controller) strategies() []strategy {
	return []strategy{
		{name: "isbn", field: provider.FieldIdentifier, identifier: true,
			query: func(_ context.Context, it types.CatalogItem) string { return it.ISBN }},
		{name: "isbn13", field: provider.FieldIdentifier, identifier: true,
			query: func(_ context.Context, it types.CatalogItem) string { return it.ISBN13 }},
		{name: "title-author", field: provider.FieldFreeText,
			query: func(_ context.Context, it types.CatalogItem) string { return joinQuery(it.Title, it.Author) }},
		{name: "title", field: provider.FieldFreeText,
			query: func(_ context.Context, it types.CatalogItem) string { return it.Title }},
		{name: "title-translated-author", field: provider.FieldFreeText,
			query: func(ctx context.Context, it types.CatalogItem) string {
				return joinQuery(it.Title, c.translateAuthor(ctx, it.Author))
			}},
	}
}

// Scan processes items in order. Only persistence failures stop it.
func (c *Controller) Scan(ctx context.Context, items []types.CatalogItem) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !item.OnShelf(c.cfg.Shelf) {
			continue
		}
		if c.cfg.Store.Has(item.ID) {
			slog.Debug("already acquired", "id", item.ID, "title", item.Title)
			continue
		}
		if c.cfg.Progress != nil {
			c.cfg.Progress.Describe(item.Title)
		}
		err := c.process(ctx, item)
		if c.cfg.Progress != nil {
			_ = c.cfg.Progress.Add(1)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Eligible counts the items on shelf that st has no record for.
func Eligible(items []types.CatalogItem, shelf string, st store.Store) int {
	if shelf == "" {
		shelf = DefaultShelf
	}
	n := 0
	for _, item := range items {
		if item.OnShelf(shelf) && !st.Has(item.ID) {
			n++
		}
	}
	return n
}

func (c *Controller) process(ctx context.Context, item types.CatalogItem) error {
	cand, err := c.find(ctx, item)
	if errors.Is(err, ErrNotFound) {
		c.enqueue(item)
		return nil
	}
	if err != nil {
		return err
	}

	p := c.cfg.Provider
	link, err := p.ResolveDownloadLink(ctx, cand)
	if err != nil || link == "" {
		detail := "no download link"
		if err != nil {
			detail = err.Error()
		}
		c.cfg.Metrics.Outcome(FlowPrimary, string(report.FailedToDownload))
		c.add(report.Entry{ID: item.ID, Title: item.Title, Outcome: report.FailedToDownload, Source: p.Name(), Detail: detail})
		return nil
	}

	entry, err := acquisition{
		flow:     FlowPrimary,
		provider: p,
		link:     link,
		record:   types.AcquisitionRecord{ID: item.ID, Title: item.Title, Author: item.Author},
	}.complete(ctx, c.cfg.Store, c.cfg.Metrics)
	c.add(entry)
	return err
}

// find runs the strategies in order and returns the first acceptable
// candidate, or ErrNotFound.
func (c *Controller) find(ctx context.Context, item types.CatalogItem) (types.Candidate, error) {
	p := c.cfg.Provider
	for _, s := range c.strategies() {
		if err := ctx.Err(); err != nil {
			return types.Candidate{}, err
		}
		q := s.query(ctx, item)
		if q == "" {
			continue
		}
		slog.Debug("searching", "provider", p.Name(), "strategy", s.name, "query", q)
		cands, err := p.Search(ctx, q, s.field)
		if err != nil {
			slog.Warn("search failed", "provider", p.Name(), "strategy", s.name, "error", err)
			c.cfg.Metrics.Search(p.Name(), s.name, "error")
			continue
		}

		var (
			cand types.Candidate
			ok   bool
		)
		if s.identifier {
			cand, ok = match.PickFormat(cands)
		} else {
			cand, ok = match.BestMatch(item.Title, cands)
		}
		if ok {
			c.cfg.Metrics.Search(p.Name(), s.name, "match")
			slog.Info("matched", "id", item.ID, "strategy", s.name, "format", cand.Format)
			return cand, nil
		}
		c.cfg.Metrics.Search(p.Name(), s.name, "miss")
	}
	return types.Candidate{}, ErrNotFound
}

// translateAuthor falls back to author when no translator is configured or
// translation fails.
func (c *Controller) translateAuthor(ctx context.Context, author string) string {
	if c.cfg.Translator == nil || author == "" {
		return author
	}
	out, err := c.cfg.Translator.Translate(ctx, author)
	if err != nil || strings.TrimSpace(out) == "" {
		slog.Debug("translation unavailable", "author", author, "error", err)
		return author
	}
	return strings.TrimSpace(out)
}

func (c *Controller) enqueue(item types.CatalogItem) {
	entry := report.Entry{ID: item.ID, Title: item.Title, Outcome: report.Scheduled}
	if !c.deferred[item.ID] {
		c.deferred[item.ID] = true
		c.cfg.Queue.Push(types.DeferredRequest{ID: item.ID, Title: item.Title, Author: item.Author})
		c.cfg.Metrics.QueueDepth(c.cfg.Queue.Len())
	}
	c.cfg.Metrics.Outcome(FlowPrimary, string(entry.Outcome))
	c.add(entry)
}

// add prints e as a progress line and appends it to the report.
func (c *Controller) add(e report.Entry) {
	fmt.Fprintf(c.cfg.Out, "%s %s.. %s\n", report.Marker(e.Outcome), e.Title, e.Outcome)
	c.report.Add(e)
}

// Finish signals completion to the worker and blocks until the deferred
// queue is empty, then prints the primary report.
func (c *Controller) Finish(ctx context.Context) error {
	c.cfg.Queue.Complete()

	ticker := time.NewTicker(c.cfg.DrainInterval)
	defer ticker.Stop()
	for {
		changed := c.cfg.Queue.Changed()
		n := c.cfg.Queue.Len()
		if n == 0 {
			break
		}
		slog.Info("waiting for deferred queue", "pending", n)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-changed:
		}
	}
	c.report.Write(c.cfg.Out)
	return nil
}

func joinQuery(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
