// Package pipeline runs the borrower ETL once: extract, transform, load,
// analyze, report. Every stage finishes before the next begins.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"borrower-etl/apperrors"
	"borrower-etl/config"
	"borrower-etl/metrics"
	"borrower-etl/models"
	"borrower-etl/services"
	"borrower-etl/storage"
	"borrower-etl/utils"

	"github.com/google/uuid"
)

// Result describes a completed run
type Result struct {
	RunID      string
	Extracted  int
	Loaded     int
	Cleaning   services.CleanStats
	Report     *models.AnalysisReport
	ReportPath string
}

// Pipeline holds everything one run needs; it keeps no state between runs
type Pipeline struct {
	cfg     *config.Config
	logger  *utils.Logger
	metrics *metrics.Metrics
	console io.Writer
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithConsole redirects the end-of-run summary (stdout by default, nil disables it)
func WithConsole(w io.Writer) Option {
	return func(p *Pipeline) { p.console = w }
}

func New(cfg *config.Config, logger *utils.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, logger: logger, metrics: metrics.New(), console: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metrics exposes the collectors filled by Run
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Run executes the pipeline. An extraction failure (missing file, missing
// columns) returns before storage is touched, so no database or report is produced.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	logger := p.logger.With("run " + runID[:8])
	res := &Result{RunID: runID, ReportPath: p.cfg.Report.Path}

	logger.Info("Borrower ETL starting: input=%s storage=%s:%s report=%s",
		p.cfg.Input.Path, p.cfg.Storage.Driver, p.cfg.Storage.DSN, p.cfg.Report.Path)

	// ================== Extract ====================
	var raw []*models.RawBorrower
	err := p.stage(metrics.StageExtract, func() error {
		reader := storage.OpenTableReader(p.cfg.Input.Path, p.cfg.DelimiterRune(), logger)
		table, err := reader.Read()
		if err != nil {
			return err
		}
		raw, err = services.NewExtractor(logger).Bind(table)
		return err
	})
	if err != nil {
		logger.Error("Extraction failed: %v", err)
		return nil, err
	}
	res.Extracted = len(raw)
	p.metrics.RowsExtracted.Add(float64(len(raw)))

	// ================== Transform ====================
	var borrowers []*models.Borrower
	_ = p.stage(metrics.StageTransform, func() error {
		borrowers, res.Cleaning = services.NewDataCleaner(logger).Clean(raw)
		return nil
	})
	p.metrics.RecordCoercionFailures(res.Cleaning.Failures)

	// ================== Load ====================
	err = p.stage(metrics.StageLoad, func() error {
		store, err := p.openStore(ctx, logger)
		if err != nil {
			return err
		}
		res.Loaded, err = loadBorrowers(ctx, store, borrowers)
		return err
	})
	if err != nil {
		logger.Error("Load failed: %v", err)
		return nil, err
	}
	p.metrics.RowsLoaded.Add(float64(res.Loaded))

	// ================== Analyze ====================
	err = p.stage(metrics.StageAnalyze, func() error {
		store, err := p.openStore(ctx, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		res.Report, err = services.NewAnalyzer(store.DB(), store.Dialect(), logger).Analyze(ctx)
		return err
	})
	if err != nil {
		logger.Error("Analysis failed: %v", err)
		return nil, err
	}

	// ================== Report ====================
	err = p.stage(metrics.StageReport, func() error {
		return services.NewReportWriter(p.cfg.Report.Path, logger).Write(res.Report)
	})
	if err != nil {
		logger.Error("Report failed: %v", err)
		return nil, err
	}
	if p.console != nil {
		services.PrintAnalysisSummary(p.console, res.Report)
	}

	p.metrics.MarkSuccess(time.Now())
	if p.cfg.Metrics.File != "" {
		if err := p.metrics.WriteTextfile(p.cfg.Metrics.File); err != nil {
			// the report already exists, so the run still counts as successful
			logger.Warn("Could not export metrics: %v", err)
		} else {
			logger.Info("Metrics written to %s", p.cfg.Metrics.File)
		}
	}

	logger.Info("Borrower ETL finished: %d extracted, %d loaded, %d values nulled",
		res.Extracted, res.Loaded, res.Cleaning.TotalFailures())
	return res, nil
}

// loadBorrowers replaces the stored dataset and always releases the store
func loadBorrowers(ctx context.Context, store storage.BorrowerStore, borrowers []*models.Borrower) (n int, err error) {
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = apperrors.WrapStorageError(cerr, "failed to close store")
		}
	}()
	return store.Replace(ctx, borrowers)
}

func (p *Pipeline) openStore(ctx context.Context, logger *utils.Logger) (*storage.SQLStore, error) {
	return storage.Open(ctx, p.cfg.Storage.Driver, p.cfg.Storage.DSN, p.cfg.Storage.ConnectTimeout, logger)
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.ObserveStage(name, time.Since(start))
	return err
}
