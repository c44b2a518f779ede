package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are tuned for large news sites, which is what the built-in
// site catalog targets. All of them can be overridden via CLI flags
// or the configuration file.
const (
	// DefaultMaxPages bounds the total number of fetch attempts per
	// crawl. 10000 pages gives a statistically useful sample of a
	// large site without crawling it exhaustively.
	DefaultMaxPages = 10000

	// DefaultMaxDepth is the maximum link depth from the seed.
	// Depth 0 means only the seed page itself. News front pages
	// reach almost all of their content within a dozen hops, so 16
	// is effectively unbounded in practice while still cutting off
	// calendar-style infinite link chains.
	DefaultMaxDepth = 16

	// DefaultWorkers is the number of concurrent crawl workers.
	// Seven workers with a two second delay keeps the aggregate
	// request rate at a few pages per second, which large sites
	// tolerate without rate limiting.
	DefaultWorkers = 7

	// DefaultConcurrency is the number of sites crawled at once when
	// several sites are given on the command line.
	DefaultConcurrency = 1

	// DefaultDelay is the per-worker politeness delay between
	// consecutive fetches.
	DefaultDelay = 2 * time.Second

	// DefaultTimeout is the per-request timeout. News pages are
	// heavy but served from CDNs; ten seconds is generous.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests and
	// in robots.txt group matching.
	DefaultUserAgent = "sitecrawler/1.0 (+https://github.com/nao1215/sitecrawler)"

	// DefaultMaxBodySize limits the response body bytes read per
	// page. 10MB covers any HTML page and the document types on the
	// allow list while preventing memory exhaustion from unexpected
	// responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultOutputDir is where CSV files and reports are written.
	DefaultOutputDir = "./output"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitecrawler"
)

// DefaultAllowedContentTypes is the visit allow list: a fetched page
// counts as a visit only when its cleaned content type matches one of
// these. Pages outside the list are still recorded as fetches.
func DefaultAllowedContentTypes() []string {
	return []string{
		"text/html",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/gif",
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
		"image/svg+xml",
	}
}

// Config holds all configuration options for sitecrawler.
// It is populated from CLI flags and the optional configuration file,
// then passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested
// structs (e.g., CrawlConfig, ReportConfig) for simplicity. The number
// of options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Sites is the list of sites to crawl. Each entry is either a
	// catalog name (e.g., "nytimes") or an absolute seed URL.
	Sites []string

	// MaxPages is the maximum number of fetch attempts per site.
	// Zero means crawl nothing; the snapshot is still produced.
	MaxPages int

	// MaxDepth is the maximum link depth from the seed. Zero
	// disables the depth limit.
	MaxDepth int

	// Workers is the number of concurrent crawl workers per site.
	Workers int

	// Concurrency is the number of sites crawled at the same time
	// when several sites are given. Zero means one at a time.
	Concurrency int

	// Delay is the per-worker politeness delay between fetches on
	// the same worker. The aggregate request rate is Workers/Delay.
	Delay time.Duration

	// Timeout is the per-request timeout. This applies to individual
	// fetches, not the overall crawl duration.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps site operators identify crawler
	// traffic and lets robots.txt target it by name.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means use the
	// default.
	MaxBodySize int64

	// IncludeSubdomains widens the site boundary from exact host
	// match to the registered domain and all of its subdomains.
	IncludeSubdomains bool

	// AllowedContentTypes is the visit allow list. Empty means admit
	// every content type.
	AllowedContentTypes []string

	// OutputDir is the directory for CSV files and reports.
	// Created automatically if it does not exist.
	OutputDir string

	// MarkdownReport enables Markdown report output in addition to
	// the plain-text report and CSV files.
	MarkdownReport bool

	// JSONReport switches the terminal report from plain text to
	// JSON for tool integration.
	JSONReport bool

	// ConfigFilePath is the path to the configuration file. If
	// empty, the tool searches for .sitecrawler in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// Catalog holds the site catalog loaded from the config file.
	// Populated by LoadConfigFile; nil means built-in sites only.
	Catalog *File

	// DBDir is the directory path for storing the SQLite database.
	// When set, crawl statistics are saved for historical queries.
	// When empty, results are not persisted.
	// Defaults to the XDG data directory when --save is given.
	DBDir string

	// SaveToDB indicates whether to save crawl results to the
	// database. Automatically set to true when DBDir is configured.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (page cap, worker
// count, delays). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		MaxPages:            DefaultMaxPages,
		MaxDepth:            DefaultMaxDepth,
		Workers:             DefaultWorkers,
		Concurrency:         DefaultConcurrency,
		Delay:               DefaultDelay,
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodySize:         DefaultMaxBodySize,
		AllowedContentTypes: DefaultAllowedContentTypes(),
		OutputDir:           DefaultOutputDir,
	}
}

// XDGDataDir returns the XDG data directory for sitecrawler.
// On Linux: ~/.local/share/sitecrawler
// On macOS: ~/Library/Application Support/sitecrawler
// On Windows: %LOCALAPPDATA%\sitecrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecrawler.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for sitecrawler.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSite
	}

	// MaxPages zero is a valid degenerate crawl; negative is not.
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// Zero workers would mean no crawling at all.
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	// Zero concurrency falls back to sequential crawling.
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
