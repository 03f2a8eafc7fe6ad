// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/shelfgrab/internal/match"
	"github.com/pdiddy/shelfgrab/internal/metrics"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/internal/report"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

const (
	// FlowDeferred labels the deferred worker in logs, metrics and reports.
	FlowDeferred = "deferred"

	DefaultPollBase   = 5 * time.Second
	DefaultPollJitter = 15 * time.Second
)

// WorkerConfig wires a Worker. Metrics and Out are optional.
type WorkerConfig struct {
	Provider   provider.Provider
	Store      store.Store
	Queue      *Queue
	Metrics    *metrics.Metrics
	Out        io.Writer
	PollBase   time.Duration
	PollJitter time.Duration

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// Worker drains the deferred queue against the secondary provider, one
// request per cycle with a randomized pause between cycles.
type Worker struct {
	cfg    WorkerConfig
	report *report.Report
}

// NewWorker returns a worker with an empty "Deferred" report. Negative
// durations are treated as zero.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.PollBase < 0 {
		cfg.PollBase = 0
	}
	if cfg.PollJitter < 0 {
		cfg.PollJitter = 0
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Worker{cfg: cfg, report: report.New("Deferred")}
}

// Report returns the deferred worker's report.
func (w *Worker) Report() *report.Report { return w.report }

// Run loops until the queue is drained after completion, ctx is cancelled,
// or recording a result fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if req, ok := w.cfg.Queue.Pop(); ok {
			w.cfg.Metrics.QueueDepth(w.cfg.Queue.Len())
			if err := w.process(ctx, req); err != nil {
				return err
			}
		}
		if w.cfg.Queue.Drained() {
			w.report.Write(w.cfg.Out)
			return nil
		}
		if err := w.wait(ctx, w.delay()); err != nil {
			return err
		}
	}
}

// delay is base plus a uniform share of jitter.
func (w *Worker) delay() time.Duration {
	return w.cfg.PollBase + time.Duration(w.cfg.Rand()*float64(w.cfg.PollJitter))
}

// wait sleeps for d. It returns early when the queue drains so the worker
// stops without serving out a full pause; new requests do not cut it short.
func (w *Worker) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		changed := w.cfg.Queue.Changed()
		if w.cfg.Queue.Drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-changed:
		}
	}
}

func (w *Worker) process(ctx context.Context, req types.DeferredRequest) error {
	p := w.cfg.Provider
	entry := report.Entry{ID: req.ID, Title: req.Title, Source: p.Name()}

	cand, err := w.find(ctx, req)
	if err != nil {
		entry.Outcome = report.NotFound
		w.cfg.Metrics.Outcome(FlowDeferred, string(entry.Outcome))
		w.add(entry)
		return nil
	}

	link, err := p.ResolveDownloadLink(ctx, cand)
	if err != nil || link == "" {
		entry.Outcome = report.FailedToDownload
		entry.Detail = "no download link"
		if err != nil {
			entry.Detail = err.Error()
		}
		w.cfg.Metrics.Outcome(FlowDeferred, string(entry.Outcome))
		w.add(entry)
		return nil
	}

	entry, err = acquisition{
		flow:     FlowDeferred,
		provider: p,
		link:     link,
		name:     DeferredFileName(cand),
		record:   types.AcquisitionRecord{ID: req.ID, Title: req.Title, Author: req.Author},
	}.complete(ctx, w.cfg.Store, w.cfg.Metrics)
	w.add(entry)
	return err
}

// find searches the secondary provider by title and takes the first
// candidate whose title matches.
func (w *Worker) find(ctx context.Context, req types.DeferredRequest) (types.Candidate, error) {
	p := w.cfg.Provider
	cands, err := p.Search(ctx, req.Title, provider.FieldFreeText)
	if err != nil {
		slog.Warn("search failed", "provider", p.Name(), "id", req.ID, "error", err)
		w.cfg.Metrics.Search(p.Name(), "title", "error")
		return types.Candidate{}, ErrNotFound
	}
	matches := match.FilterByTitle(req.Title, cands)
	if len(matches) == 0 {
		w.cfg.Metrics.Search(p.Name(), "title", "miss")
		return types.Candidate{}, ErrNotFound
	}
	w.cfg.Metrics.Search(p.Name(), "title", "match")
	return matches[0], nil
}

func (w *Worker) add(e report.Entry) {
	fmt.Fprintf(w.cfg.Out, "%s %s.. %s (%s)\n", report.Marker(e.Outcome), e.Title, e.Outcome, FlowDeferred)
	w.report.Add(e)
}

// DeferredFileName is "<first author> - <title>.<ext>", with ext taken from
// the candidate's format.
func DeferredFileName(c types.Candidate) string {
	ext := string(c.Format)
	if c.Format == "" || c.Format == types.FormatOther {
		ext = string(types.FormatEPUB)
	}
	return fmt.Sprintf("%s - %s.%s", c.FirstAuthor(), c.Title, ext)
}
