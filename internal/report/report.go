// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report accumulates per-item outcomes for one flow of the
// pipeline and renders them when the flow ends.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

// Outcome is the final state of one catalog item within a flow.
type Outcome string

const (
	OK               Outcome = "ok"
	FailedToDownload Outcome = "failed to download"
	NotFound         Outcome = "not found"
	Scheduled        Outcome = "scheduled"
	Failed           Outcome = "failed"
)

// Entry is one line of a report.
type Entry struct {
	ID      string  `yaml:"id"`
	Title   string  `yaml:"title"`
	Outcome Outcome `yaml:"outcome"`
	Source  string  `yaml:"source,omitempty"`
	File    string  `yaml:"file,omitempty"`
	Detail  string  `yaml:"detail,omitempty"`
}

// Report is safe for concurrent use.
type Report struct {
	name string

	mu      sync.Mutex
	entries []Entry
}

// New returns an empty report titled name.
func New(name string) *Report {
	return &Report{name: name}
}

// Name returns the report title.
func (r *Report) Name() string { return r.name }

// Add appends e.
func (r *Report) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the entries in insertion order.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Counts returns the number of entries per outcome.
func (r *Report) Counts() map[Outcome]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := make(map[Outcome]int)
	for _, e := range r.entries {
		c[e.Outcome]++
	}
	return c
}

// Marker returns the console glyph for an outcome.
func Marker(o Outcome) string {
	switch o {
	case OK:
		return "✅"
	case Scheduled:
		return "🕐"
	default:
		return "🛑"
	}
}

// Write prints every entry followed by a one-line summary.
func (r *Report) Write(w io.Writer) {
	entries := r.Entries()
	fmt.Fprintf(w, "%s:\n", r.name)
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s: %s\n", Marker(e.Outcome), e.Title, e.Outcome)
	}
	c := r.Counts()
	fmt.Fprintf(w, "Summary: %d ok, %d failed to download, %d not found, %d scheduled (total: %d)\n",
		c[OK], c[FailedToDownload], c[NotFound], c[Scheduled], len(entries))
}

// Run is the YAML form of a whole pipeline run.
type Run struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Sections   []Section `yaml:"sections"`
}

// Section is one report inside a Run.
type Section struct {
	Name    string  `yaml:"name"`
	Entries []Entry `yaml:"entries"`
}

// NewRun collects reports into a Run.
func NewRun(runID string, started, finished time.Time, reports ...*Report) Run {
	run := Run{RunID: runID, StartedAt: started, FinishedAt: finished}
	for _, r := range reports {
		run.Sections = append(run.Sections, Section{Name: r.Name(), Entries: r.Entries()})
	}
	return run
}

// WriteFile writes run as YAML to path.
func (run Run) WriteFile(path string) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
