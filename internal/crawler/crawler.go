package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Crawler errors.
var (
	// ErrInvalidSeed is returned when the seed URL is unparsable or
	// has a non-http(s) scheme.
	ErrInvalidSeed = errors.New("invalid seed URL: must be absolute http or https")
)

// Default crawl settings, used when no option overrides them.
// User-facing defaults live in the config package; these are the
// library-level fallbacks.
const (
	// DefaultMaxPages bounds the total fetch attempts per crawl.
	DefaultMaxPages = 100

	// DefaultWorkers is the number of concurrent workers.
	DefaultWorkers = 4

	// DefaultDelay is the per-worker politeness delay.
	DefaultDelay = 1 * time.Second
)

// Crawler owns the shared crawl structures and the worker pool.
// Construct one per crawl with New; a Crawler is not reusable after
// Run returns.
type Crawler struct {
	seed                string
	siteName            string
	domain              string
	includeSubdomains   bool
	maxPages            int
	maxDepth            int
	workers             int
	delay               time.Duration
	userAgent           string
	allowedContentTypes []string

	fetcher Fetcher
	logger  *slog.Logger
	stats   *Collector
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithSiteName sets the short site name carried into the statistics
// snapshot and used in output file names.
func WithSiteName(name string) Option {
	return func(c *Crawler) {
		c.siteName = name
	}
}

// WithDomain sets the target domain for in-site filtering. When not
// set, the seed URL's host is used.
func WithDomain(domain string) Option {
	return func(c *Crawler) {
		c.domain = domain
	}
}

// WithIncludeSubdomains widens domain matching to subdomains of the
// target domain. The default is exact-host matching.
func WithIncludeSubdomains(include bool) Option {
	return func(c *Crawler) {
		c.includeSubdomains = include
	}
}

// WithMaxPages sets the hard cap on fetch attempts. Zero means the
// crawl terminates immediately with empty statistics.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithMaxDepth caps the link distance from the seed. Zero disables
// the depth limit.
func WithMaxDepth(n int) Option {
	return func(c *Crawler) {
		c.maxDepth = n
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithDelay sets the per-worker politeness delay between fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithUserAgent sets the agent name used for robots.txt matching.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		c.userAgent = ua
	}
}

// WithAllowedContentTypes sets the visit allow list. Entries are
// matched as lowercase substrings of the cleaned content type.
func WithAllowedContentTypes(types []string) Option {
	return func(c *Crawler) {
		c.allowedContentTypes = types
	}
}

// WithFetcher substitutes the HTTP fetcher. Tests use this to crawl
// without network I/O.
func WithFetcher(f Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithLogger sets the structured logger for the crawl.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler for the given seed URL.
//
// Design decision: The seed is validated here rather than in Run so a
// misconfigured crawl fails before any goroutine is started.
func New(seed string, opts ...Option) (*Crawler, error) {
	canonical, err := CanonicalURL(seed)
	if err != nil {
		return nil, ErrInvalidSeed
	}
	u, err := url.Parse(canonical)
	if err != nil || !isHTTPScheme(u.Scheme) || u.Host == "" {
		return nil, ErrInvalidSeed
	}

	c := &Crawler{
		seed:      canonical,
		maxPages:  DefaultMaxPages,
		workers:   DefaultWorkers,
		delay:     DefaultDelay,
		userAgent: DefaultUserAgent,
		stats:     NewCollector(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.domain == "" {
		c.domain = u.Hostname()
	}
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(WithFetchUserAgent(c.userAgent))
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Run executes the crawl and returns the statistics snapshot. It
// blocks until every worker has terminated; no goroutine outlives the
// call. On context cancellation the partial snapshot is returned
// together with the context's error.
func (c *Crawler) Run(ctx context.Context) (*model.Statistics, error) {
	startedAt := time.Now()

	c.logger.Info("starting crawl",
		"seed", c.seed,
		"domain", c.domain,
		"maxPages", c.maxPages,
		"workers", c.workers,
		"delay", c.delay,
	)

	frontier := NewFrontier(c.maxPages)
	robots := NewRobotsGate(c.fetcher, c.userAgent, c.logger)

	// Wake any worker blocked on the frontier when the context is
	// cancelled. In-flight fetches complete; their results are still
	// recorded, but nothing new is admitted afterwards.
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, frontier.Close)
	defer stop()

	// With maxPages == 0 the seed is rejected and the crawl ends
	// before any fetch, yielding an all-zero snapshot.
	frontier.TryAdmit(c.seed, 0)

	for i := 0; i < c.workers; i++ {
		w := &worker{
			id:                  i + 1,
			frontier:            frontier,
			robots:              robots,
			fetcher:             c.fetcher,
			stats:               c.stats,
			logger:              c.logger,
			limiter:             newPolitenessLimiter(c.delay),
			domain:              c.domain,
			includeSubdomains:   c.includeSubdomains,
			maxDepth:            c.maxDepth,
			allowedContentTypes: c.allowedContentTypes,
		}
		g.Go(func() error {
			return w.run(gctx)
		})
	}

	err := g.Wait()
	// A worker woken by frontier.Close on cancellation returns nil
	// without ever observing ctx.Done(), so g.Wait() alone can miss
	// the cancellation. Reconcile with the context afterwards.
	if err == nil {
		err = ctx.Err()
	}

	stats := c.stats.Snapshot()
	stats.Site = c.siteName
	stats.Seed = c.seed
	stats.Domain = c.domain
	stats.Workers = c.workers
	stats.StartedAt = startedAt

	c.logger.Info("crawl finished",
		"fetchAttempts", stats.FetchAttempts,
		"visits", len(stats.Visits),
		"elapsed", stats.Elapsed(),
	)

	return stats, err
}
