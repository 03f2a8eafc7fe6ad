// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shelfgrab/internal/acquire"
	"github.com/pdiddy/shelfgrab/internal/catalog"
	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/internal/metrics"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/internal/report"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/internal/translate"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [catalog.csv]",
	Short: "Download every wanted book in a reading-list export",
	Long: `Fetch walks the catalog (default data.csv) and, for every item on the
wanted shelf that is not yet recorded, searches the primary provider by ISBN,
ISBN-13, title and author, title alone, and title with the author's name
translated. The first acceptable match is downloaded into the output
directory and recorded.

Items with no match are queued for the secondary provider, which is polled
with a randomized pause between requests. Fetch returns once the catalog is
done and the queue is empty.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("out", "out", "directory that receives downloaded files")
	fetchCmd.Flags().String("shelf", acquire.DefaultShelf, "only fetch items on this bookshelf")
	fetchCmd.Flags().Duration("poll-base", acquire.DefaultPollBase, "fixed part of the pause between deferred requests")
	fetchCmd.Flags().Duration("poll-jitter", acquire.DefaultPollJitter, "upper bound of the random part of the pause")
	fetchCmd.Flags().Duration("drain-interval", acquire.DefaultDrainInterval, "how often to report the deferred queue while waiting for it")
	fetchCmd.Flags().String("translate-url", translate.DefaultURL, "LibreTranslate-compatible endpoint used for author names")
	fetchCmd.Flags().String("translate-target", "ru", "language the author name is translated into")
	fetchCmd.Flags().String("report-file", "", "write the run report as YAML to this path")
	fetchCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this path")
	fetchCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	bindFlags(fetchCmd, map[string]string{
		"out":              "out_dir",
		"shelf":            "shelf",
		"poll-base":        "deferred.poll_base",
		"poll-jitter":      "deferred.poll_jitter",
		"drain-interval":   "deferred.drain_interval",
		"translate-url":    "translate.url",
		"translate-target": "translate.target",
		"report-file":      "report_file",
		"metrics-file":     "metrics_file",
		"no-progress":      "no_progress",
	}, false)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.CatalogPath = args[0]
	}

	runID := ulid.Make().String()
	slog.SetDefault(slog.Default().With("run", runID))
	started := time.Now().UTC()

	items, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, m, err := buildPipeline(cfg, items, st)
	if err != nil {
		return err
	}
	slog.Info("starting", "catalog", cfg.CatalogPath, "items", len(items), "recorded", st.Len(), "out", cfg.OutDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runErr := p.Run(ctx, items)

	if path := viper.GetString("report_file"); path != "" {
		run := report.NewRun(runID, started, time.Now().UTC(), p.Reports()...)
		if err := run.WriteFile(path); err != nil {
			slog.Error("writing report", "path", path, "error", err)
		}
	}
	if path := viper.GetString("metrics_file"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			slog.Error("writing metrics", "path", path, "error", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("fetch: %w", runErr)
	}
	return nil
}

// buildPipeline wires providers, translator, metrics and progress output
// around st.
func buildPipeline(cfg types.AcquisitionConfig, items []types.CatalogItem, st store.Store) (*acquire.Pipeline, *metrics.Metrics, error) {
	d := fetch.New(httputil.NewClient(types.HTTPConfig{
		Timeout:   cfg.Primary.Timeout,
		UserAgent: cfg.Primary.UserAgent,
	}), cfg.OutDir)

	primary, err := provider.New(provider.KindLibGen, cfg.Primary, d)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := provider.New(provider.KindFlibusta, cfg.Secondary, d)
	if err != nil {
		return nil, nil, err
	}
	tr := translate.New(cfg.Translate, httputil.NewClient(cfg.Translate.HTTPConfig))
	m := metrics.New()

	var bar *progressbar.ProgressBar
	if !viper.GetBool("no_progress") {
		bar = progressbar.NewOptions(acquire.Eligible(items, cfg.Shelf, st),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("primary"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	q := acquire.NewQueue()
	return &acquire.Pipeline{
		Controller: acquire.NewController(acquire.ControllerConfig{
			Provider:      primary,
			Store:         st,
			Queue:         q,
			Translator:    tr,
			Metrics:       m,
			Progress:      bar,
			Out:           os.Stdout,
			Shelf:         cfg.Shelf,
			DrainInterval: cfg.Deferred.DrainInterval,
		}),
		Worker: acquire.NewWorker(acquire.WorkerConfig{
			Provider:   secondary,
			Store:      st,
			Queue:      q,
			Metrics:    m,
			Out:        os.Stdout,
			PollBase:   cfg.Deferred.PollBase,
			PollJitter: cfg.Deferred.PollJitter,
		}),
	}, m, nil
}
