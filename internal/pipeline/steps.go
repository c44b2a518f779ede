package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitecrawler/internal/crawler"
	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/report"
)

// CrawlStep runs the crawl itself and attaches the resulting
// statistics snapshot to the run.
//
// Design decision: The step holds crawler options rather than a
// built Crawler because the seed URL lives on the run. Building the
// crawler inside Do lets one step instance serve any site while the
// options stay fixed.
type CrawlStep struct {
	// opts configure the crawler built for each run.
	opts []crawler.Option

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step with the given crawler options.
func NewCrawlStep(crawlerOpts []crawler.Option, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		opts:   crawlerOpts,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do builds a crawler for the run's seed and executes it. The
// statistics snapshot is attached to the run even when the crawl was
// cut short, so later steps can still report partial results.
func (s *CrawlStep) Do(ctx context.Context, run *model.CrawlRun) error {
	opts := make([]crawler.Option, 0, len(s.opts)+1)
	opts = append(opts, crawler.WithSiteName(run.Site))
	opts = append(opts, s.opts...)

	c, err := crawler.New(run.Seed, opts...)
	if err != nil {
		return fmt.Errorf("failed to build crawler: %w", err)
	}

	stats, err := c.Run(ctx)
	if stats != nil {
		run.Statistics = stats
	}
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	s.logger.Info("crawl finished",
		"site", run.Site,
		"fetches", stats.FetchAttempts,
		"elapsed", stats.Elapsed(),
	)

	return nil
}

// ReportStep writes the run's statistics through a report writer.
// The writer is typically a MultiWriter combining terminal and file
// output.
type ReportStep struct {
	// writer receives the statistics snapshot.
	writer report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a report step targeting the given writer.
func NewReportStep(writer report.Writer, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		writer: writer,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the statistics report.
func (s *ReportStep) Do(_ context.Context, run *model.CrawlRun) error {
	if run.Statistics == nil {
		return ErrNoStatistics
	}

	n, err := s.writer.Write(run.Statistics)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Debug("report written",
		"site", run.Site,
		"bytes", n,
	)

	return nil
}

// CSVExportStep writes the per-URL CSV log files for the run and
// records their paths on the run.
type CSVExportStep struct {
	// writer owns the output directory.
	writer *report.CSVWriter

	// logger for structured logging.
	logger *slog.Logger
}

// CSVExportStepOption configures a CSVExportStep.
type CSVExportStepOption func(*CSVExportStep)

// WithCSVLogger sets a custom logger for the CSV export step.
func WithCSVLogger(logger *slog.Logger) CSVExportStepOption {
	return func(s *CSVExportStep) {
		s.logger = logger
	}
}

// NewCSVExportStep creates a CSV export step writing into outputDir.
func NewCSVExportStep(outputDir string, opts ...CSVExportStepOption) *CSVExportStep {
	s := &CSVExportStep{
		writer: report.NewCSVWriter(outputDir),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CSVExportStep) Name() string {
	return "csv_export"
}

// Do writes the three CSV files and appends their paths to the run.
func (s *CSVExportStep) Do(_ context.Context, run *model.CrawlRun) error {
	if run.Statistics == nil {
		return ErrNoStatistics
	}

	paths, err := s.writer.WriteFiles(run.Statistics)
	if err != nil {
		return fmt.Errorf("failed to export CSV files: %w", err)
	}

	run.OutputFiles = append(run.OutputFiles, paths...)

	s.logger.Debug("csv files written",
		"site", run.Site,
		"files", len(paths),
	)

	return nil
}

// PersistStep saves the run's statistics to the crawl database and
// records the session ID on the run.
type PersistStep struct {
	// db is the open crawl database.
	db *database.CrawlDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persist step writing into db.
func NewPersistStep(db *database.CrawlDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the statistics as a new crawl session.
func (s *PersistStep) Do(ctx context.Context, run *model.CrawlRun) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	if run.Statistics == nil {
		return ErrNoStatistics
	}

	id, err := s.db.SaveStatistics(ctx, run.Statistics)
	if err != nil {
		return fmt.Errorf("failed to save crawl session: %w", err)
	}

	run.SessionID = id

	s.logger.Info("crawl session saved",
		"site", run.Site,
		"session_id", id,
	)

	return nil
}
