// Command scrape runs one scrape pipeline and persists the results.
//
// Usage (cards: set catalog plus every set's card list):
//
//	scrape -config configs/scrape.json5
//
// Usage (block-icon rules page):
//
//	scrape -config configs/scrape.json5 -pipeline blockrules
//
// Validate configuration only:
//
//	scrape -config configs/scrape.json5 -validate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"cardscrape/internal/config"
	"cardscrape/internal/extracthtml"
	"cardscrape/internal/fetch"
	"cardscrape/internal/metrics"
	"cardscrape/internal/metrics/datadog"
	"cardscrape/internal/scrape"
	"cardscrape/internal/storage"

	// config selects the backend; every backend is linked in.
	_ "cardscrape/internal/storage/all"
)

const (
	pipelineCards      = "cards"
	pipelineBlockRules = "blockrules"
)

type runner interface {
	ScrapeCards(ctx context.Context) (scrape.CardsResult, error)
	ScrapeBlockRules(ctx context.Context) (extracthtml.BlockRules, error)
}

// appDeps are the side-effecting seams of runMain.
type appDeps struct {
	readConfig  func(path string) (config.Config, error)
	initMetrics func(ctx context.Context, jobName, backendName string) (func(), error)
	openSink    func(ctx context.Context, cfg storage.Config) (storage.Sink, error)
	newRunner   func(cfg config.Config, sink storage.Sink, logger *slog.Logger) (runner, error)

	// setDefaultLogger, when set, installs the command logger process-wide.
	setDefaultLogger func(*slog.Logger)
}

func defaultDeps() appDeps {
	return appDeps{
		readConfig:  config.Read,
		initMetrics: initMetrics,
		openSink:    storage.New,
		newRunner:   newRunner,

		setDefaultLogger: slog.SetDefault,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}

// runMain returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "config JSON5 path (a sibling .local file is merged over it); empty uses built-in defaults")
	pipeline := fs.String("pipeline", pipelineCards, "pipeline to run: cards or blockrules")
	store := fs.String("store", "", "storage kind override: json, sqlite, postgres, mssql")
	dsn := fs.String("dsn", "", "storage DSN override for SQL backends")
	sets := fs.String("sets", "", "comma-separated set ids to scrape (cards pipeline); empty scrapes all")
	metricsBackend := fs.String("metrics-backend", "", "metrics backend: datadog or none (overrides env METRICS_BACKEND)")
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	verbose := fs.Bool("v", false, "enable debug logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *pipeline != pipelineCards && *pipeline != pipelineBlockRules {
		fmt.Fprintf(stderr, "usage: scrape -pipeline cards|blockrules (got %q)\n", *pipeline)
		return 2
	}

	logger := newLogger(stderr, *verbose)
	if deps.setDefaultLogger != nil {
		deps.setDefaultLogger(logger)
	}

	cfg, err := deps.readConfig(strings.TrimSpace(*cfgPath))
	if err != nil {
		fmt.Fprintf(stderr, "read config: %v\n", err)
		return 2
	}
	applyOverrides(&cfg, *store, *dsn, *sets)

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", displayPath(*cfgPath))
		return 2
	}
	if *validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", displayPath(*cfgPath))
		return 0
	}

	// Decide metrics backend: flag → env → none.
	backendName := *metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	cleanup, err := deps.initMetrics(ctx, cfg.Job, backendName)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	sink, err := deps.openSink(ctx, cfg.Storage.StorageConfig())
	if err != nil {
		fmt.Fprintf(stderr, "open storage: %v\n", err)
		return 1
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("storage close failed", "err", err)
		}
	}()

	r, err := deps.newRunner(cfg, sink, logger)
	if err != nil {
		fmt.Fprintf(stderr, "init runner: %v\n", err)
		return 2
	}

	start := time.Now()
	switch *pipeline {
	case pipelineCards:
		res, err := r.ScrapeCards(ctx)
		if err != nil {
			reportRunError(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "sets=%d sets_fetched=%d cards=%d\n", len(res.Sets), len(res.PerSet), len(res.Cards))

	case pipelineBlockRules:
		rules, err := r.ScrapeBlockRules(ctx)
		if err != nil {
			reportRunError(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "block_x=%d block_4=%d\n", len(rules.BlockX), len(rules.Block4))
	}

	logger.Debug("completed", "pipeline", *pipeline, "elapsed", time.Since(start).Truncate(time.Millisecond))
	return 0
}

// applyOverrides lays command-line values over the loaded config.
func applyOverrides(cfg *config.Config, store, dsn, sets string) {
	if store != "" {
		cfg.Storage.Kind = store
	}
	if dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if sets != "" {
		cfg.Sets = nil
		for _, s := range strings.Split(sets, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Sets = append(cfg.Sets, s)
			}
		}
	}
}

func reportRunError(stderr io.Writer, err error) {
	var fe *fetch.FetchError
	switch {
	case scrape.IsStructureError(err):
		fmt.Fprintf(stderr, "run: page layout changed: %v\n", err)
	case errors.As(err, &fe):
		fmt.Fprintf(stderr, "run: fetch failed with status %d: %v\n", fe.StatusCode, err)
	default:
		fmt.Fprintf(stderr, "run: %v\n", err)
	}
}

func displayPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return "(defaults)"
	}
	return p
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func newRunner(cfg config.Config, sink storage.Sink, logger *slog.Logger) (runner, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, fmt.Errorf("request timeout: %w", err)
	}
	return &scrape.Runner{
		Config:  cfg,
		Fetcher: fetch.New(nil, timeout),
		Sink:    sink,
		Logger:  logger,
	}, nil
}

// metricsBackend is what initMetrics needs from a backend beyond recording.
type metricsBackend interface {
	Close() error
}

// Seams for tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	setMetricsBackend = func(b any) {
		if mb, ok := b.(metrics.Backend); ok {
			metrics.SetBackend(mb)
		}
	}
	logPrintf = log.Printf
)

// initMetrics wires the named backend into the metrics package and returns
// a cleanup that flushes and closes it. cleanup is never nil.
//
// An unknown backend name disables metrics with a log line rather than
// failing the run.
func initMetrics(ctx context.Context, jobName, backendName string) (func(), error) {
	noop := func() {}
	if jobName == "" {
		jobName = "cardscrape"
	}

	switch backendName {
	case "", "none", "noop":
		return noop, nil

	case "datadog":
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       extraTags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return noop, fmt.Errorf("datadog: %w", err)
		}
		logPrintf("metrics: backend=%v job_name=%v tags=%v", backendName, jobName, extraTags)
		setMetricsBackend(b)

		// Close stops the periodic flush loop and submits what is left.
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close/flush error: %v", err)
			}
		}, nil

	default:
		logPrintf("metrics: unknown backend %q; metrics disabled", backendName)
		return noop, nil
	}
}
