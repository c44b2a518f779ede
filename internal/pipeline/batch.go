package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Target identifies one site to crawl in a batch.
type Target struct {
	// Site is the short site name, e.g. "nytimes".
	Site string

	// Seed is the URL the crawl starts from.
	Seed string
}

// BatchProcessor handles concurrent crawls of multiple sites.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-site execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each target.
	// Taking the target lets callers apply per-site settings such as
	// a site-specific page cap or politeness delay.
	pipelineFactory func(target Target) *Pipeline

	// concurrency is the maximum number of sites crawled at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed runs.
	// Access is synchronized via mutex.
	results []*model.CrawlRun
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent site crawls.
// Default is 2 if not specified. Note this is crawls, not workers:
// each crawl runs its own worker pool internally.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each target to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// crawls and allows per-site customization.
func NewBatchProcessor(pipelineFactory func(target Target) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		results:         make([]*model.CrawlRun, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple sites concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each site gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all runs collected, in target order, even for sites that
// failed. The error return indicates whether the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]*model.CrawlRun, error) {
	bp.logger.Info("starting batch crawl",
		"total_sites", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.CrawlRun, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling site",
				"site", target.Site,
				"index", i+1,
				"total", len(targets),
			)

			run := model.NewCrawlRun(target.Site, target.Seed)

			pipeline := bp.pipelineFactory(target)
			err := pipeline.Execute(ctx, run)

			// Store the run regardless of error.
			// It carries the error information when the crawl failed.
			bp.mu.Lock()
			bp.results[i] = run
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"site", target.Site,
					"error", err,
				)
				// Don't return the error to the errgroup so the
				// remaining sites still get crawled.
				return nil
			}

			bp.logger.Info("crawl completed",
				"site", target.Site,
			)

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch crawl complete",
		"total_sites", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls multiple sites and calls a callback
// for each completed run. This is useful for streaming results.
//
// The callback receives the run and the index of the target in the
// original slice. The callback is called from the goroutine that
// completed the crawl, so it should be thread-safe if it accesses
// shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []Target,
	callback func(run *model.CrawlRun, index int),
) error {
	bp.logger.Info("starting batch crawl with callback",
		"total_sites", len(targets),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			run := model.NewCrawlRun(target.Site, target.Seed)
			pipeline := bp.pipelineFactory(target)
			_ = pipeline.Execute(ctx, run) //nolint:errcheck // Error is stored in the run

			callback(run, i)

			return nil
		})
	}

	return g.Wait()
}
