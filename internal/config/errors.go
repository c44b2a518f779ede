package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to
// use errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than
// fmt.Errorf() because we don't need dynamic values in these messages.
var (
	// ErrNoSite is returned when no site name or seed URL is given.
	ErrNoSite = errors.New("no site specified: provide a catalog name or a seed URL")

	// ErrUnknownSite is returned when a site name is neither in the
	// configuration file nor in the built-in catalog, and does not
	// parse as a seed URL.
	ErrUnknownSite = errors.New("unknown site: not in the catalog and not a valid seed URL")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 for a crawl that fetches nothing.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Use 0 to fetch only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is not
	// positive. Zero workers would mean no crawling.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidConcurrency is returned when the site concurrency is
	// negative. Use 0 to crawl sites one at a time.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidDelay is returned when the politeness delay is
	// negative. Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A zero or negative timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
