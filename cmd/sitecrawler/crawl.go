package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawler/internal/config"
	"github.com/nao1215/sitecrawler/internal/crawler"
	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/log"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/pipeline"
	"github.com/nao1215/sitecrawler/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [site|url]...",
		Short: "Crawl one or more sites and report statistics",
		Long: `Crawl fetches pages from one or more sites with a bounded, polite
worker pool and summarizes the results.

Each site argument is either a name from the built-in catalog (nytimes,
wsj, foxnews, usatoday, latimes), a name defined in a .sitecrawler
configuration file, or a seed URL.

For every site the crawl writes three CSV files into the output
directory (fetch_<site>.csv, visit_<site>.csv, urls_<site>.csv) and
prints a statistics report to the terminal.

Examples:
  # Crawl a catalog site with the defaults
  sitecrawler crawl nytimes

  # Crawl an arbitrary site, capped at 500 pages
  sitecrawler crawl --max-pages 500 https://example.com/

  # Crawl two sites concurrently with a Markdown report per site
  sitecrawler crawl --concurrency 2 --markdown nytimes latimes

  # Persist the crawl session for later inspection
  sitecrawler crawl --save nytimes`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per site (0 crawls nothing)")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the seed (0 disables the depth limit)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent workers per site")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Per-worker politeness delay between fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests and matched against robots.txt")
	cmd.Flags().BoolP("subdomains", "s", false,
		"Treat subdomains of the site's domain as part of the site")

	// Batch crawling flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of sites crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawler in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for CSV files and reports")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report per site into the output directory")
	cmd.Flags().BoolP("json", "j", false,
		"Print JSON statistics instead of the text report")

	// Persistence flags
	cmd.Flags().Bool("save", false,
		"Save crawl sessions to the database for later inspection")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory, implies --save)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.IncludeSubdomains, err = cmd.Flags().GetBool("subdomains")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the site catalog from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently run on the built-in catalog.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Catalog, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir != "" {
		cfg.SaveToDB = true
	}
	if cfg.SaveToDB && cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the sites to crawl
	cfg.Sites = args

	return cfg, nil
}

// runCrawl resolves the sites and crawls them through the pipeline.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	resolved := make([]config.ResolvedSite, 0, len(cfg.Sites))
	targets := make([]pipeline.Target, 0, len(cfg.Sites))
	for _, arg := range cfg.Sites {
		site, err := cfg.ResolveSite(arg)
		if err != nil {
			return fmt.Errorf("unknown site %q (catalog: %v, or pass a seed URL): %w",
				arg, config.BuiltinSiteNames(), err)
		}
		resolved = append(resolved, site)
		targets = append(targets, pipeline.Target{Site: site.Name, Seed: site.Seed})
	}

	// Index per-site settings by target so the pipeline factory can
	// look them up. Later duplicates win, matching target order.
	siteByName := make(map[string]config.ResolvedSite, len(resolved))
	for _, site := range resolved {
		siteByName[site.Name] = site
	}

	// Open the database when persistence is requested
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	bp := pipeline.NewBatchProcessor(
		func(target pipeline.Target) *pipeline.Pipeline {
			return buildPipeline(cfg, siteByName[target.Site], db, logger)
		},
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Printf("Crawling %d site(s) (concurrency: %d)...\n\n", len(targets), concurrency)
	startTime := time.Now()

	// Reports print from the completion callback under a mutex so
	// concurrent crawls do not interleave their terminal output.
	var mu sync.Mutex
	var failures int
	err := bp.ProcessBatchWithCallback(ctx, targets, func(run *model.CrawlRun, index int) {
		mu.Lock()
		defer mu.Unlock()

		if run.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "[%d/%d] Crawl failed: %s: %v\n",
				index+1, len(targets), run.Site, run.Error)
			if run.Statistics == nil {
				return
			}
		} else {
			fmt.Printf("[%d/%d] Crawl completed: %s\n\n", index+1, len(targets), run.Site)
		}

		if err := printReport(cfg, run.Statistics); err != nil {
			logger.Error("report failed", "site", run.Site, "error", err)
		}
		if run.SessionID != 0 {
			fmt.Printf("Saved as session %d\n", run.SessionID)
		}
		if len(run.OutputFiles) > 0 {
			fmt.Printf("Output files: %v\n", run.OutputFiles)
		}
		fmt.Println()
	})

	fmt.Printf("Done in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failures == len(targets) && failures > 0 {
		return errors.New("all crawls failed")
	}
	return nil
}

// buildPipeline assembles the step sequence for one site.
func buildPipeline(cfg *config.Config, site config.ResolvedSite, db *database.CrawlDB, logger *slog.Logger) *pipeline.Pipeline {
	siteLogger := log.WithSite(logger, site.Name)

	p := pipeline.New(
		pipeline.WithLogger(siteLogger),
		pipeline.WithContinueOnError(true),
	)

	p.AddStep(pipeline.NewCrawlStep(
		crawlerOptions(cfg, site),
		pipeline.WithCrawlLogger(siteLogger),
	))

	if cfg.MarkdownReport {
		path := filepath.Join(cfg.OutputDir, "report_"+site.Name+".md")
		p.AddStep(pipeline.NewReportStep(
			newFileReportWriter(path, func(w io.Writer) report.Writer {
				return report.NewMarkdownWriter(w)
			}),
			pipeline.WithReportLogger(siteLogger),
		))
	}

	p.AddStep(pipeline.NewCSVExportStep(
		cfg.OutputDir,
		pipeline.WithCSVLogger(siteLogger),
	))

	if db != nil {
		p.AddStep(pipeline.NewPersistStep(
			db,
			pipeline.WithPersistLogger(siteLogger),
		))
	}

	return p
}

// crawlerOptions converts the effective settings for one site into
// crawler options. Site-specific settings override the global flags.
func crawlerOptions(cfg *config.Config, site config.ResolvedSite) []crawler.Option {
	maxPages := cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	maxDepth := cfg.MaxDepth
	if site.MaxDepth > 0 {
		maxDepth = site.MaxDepth
	}
	workers := cfg.Workers
	if site.Workers > 0 {
		workers = site.Workers
	}
	delay := cfg.Delay
	if !site.Delay.IsZero() {
		delay = site.Delay.Duration
	}

	opts := []crawler.Option{
		crawler.WithMaxPages(maxPages),
		crawler.WithMaxDepth(maxDepth),
		crawler.WithWorkers(workers),
		crawler.WithDelay(delay),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithAllowedContentTypes(cfg.AllowedContentTypes),
		crawler.WithIncludeSubdomains(cfg.IncludeSubdomains || site.IncludeSubdomains),
		crawler.WithFetcher(crawler.NewHTTPFetcher(
			crawler.WithFetchUserAgent(cfg.UserAgent),
			crawler.WithFetchTimeout(cfg.Timeout),
			crawler.WithFetchMaxBodySize(cfg.MaxBodySize),
		)),
	}
	if site.Domain != "" {
		opts = append(opts, crawler.WithDomain(site.Domain))
	}
	return opts
}

// printReport writes the statistics to stdout in the requested format.
func printReport(cfg *config.Config, stats *model.Statistics) error {
	if stats == nil {
		return nil
	}

	var w report.Writer
	if cfg.JSONReport {
		w = report.NewVersionedJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(os.Stdout)
	}

	_, err := w.Write(stats)
	return err
}

// fileReportWriter writes a report into a file, creating the parent
// directory on demand. The file is opened at write time so pipelines
// that fail before reporting leave no empty artifacts behind.
type fileReportWriter struct {
	path  string
	build func(io.Writer) report.Writer
}

// newFileReportWriter creates a writer for path. The build function
// wraps the open file in the format-specific writer.
func newFileReportWriter(path string, build func(io.Writer) report.Writer) *fileReportWriter {
	return &fileReportWriter{path: path, build: build}
}

// Write implements report.Writer.
func (w *fileReportWriter) Write(stats *model.Statistics) (int, error) {
	dir := filepath.Dir(w.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create report file: %w", err)
	}

	n, err := w.build(f).Write(stats)
	if err != nil {
		_ = f.Close()
		return n, err
	}
	return n, f.Close()
}
