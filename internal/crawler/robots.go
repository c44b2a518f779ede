package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/sitecrawler/internal/model"
)

// RobotsGate decides whether a URL may be fetched according to the
// target host's robots.txt. Rule sets are fetched lazily on first
// reference to a host and cached for the remainder of the crawl, so
// each host is fetched exactly once no matter how many workers ask.
//
// Policy: fail-open. When robots.txt cannot be fetched or parsed
// (missing, server error, network failure, garbage content), the gate
// allows everything on that host. The crawl's fetch-everything posture
// takes priority over strict compliance.
type RobotsGate struct {
	// fetcher retrieves robots.txt documents. Robots fetches do not
	// pass through the frontier and do not count toward the page cap.
	fetcher Fetcher

	// userAgent is the agent name matched against robots.txt groups.
	userAgent string

	// logger records cache misses and fetch failures.
	logger *slog.Logger

	// group collapses concurrent first accesses to the same host into
	// a single robots.txt fetch.
	group singleflight.Group

	// mu guards cache.
	mu sync.RWMutex

	// cache maps host to its parsed rule set. A nil value means
	// "allow everything" (fail-open result, or an allow-all file).
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsGate creates a robots gate that fetches robots.txt with the
// given fetcher and evaluates rules for the given user agent.
func NewRobotsGate(fetcher Fetcher, userAgent string, logger *slog.Logger) *RobotsGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		fetcher:   fetcher,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the URL may be fetched under the host's
// robots.txt rules. Unparsable URLs are not allowed; everything else
// defaults to allowed unless an applicable rule forbids it.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	rules := g.rules(ctx, u)
	if rules == nil {
		return true
	}

	grp := rules.FindGroup(g.userAgent)
	if grp == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return grp.Test(path)
}

// rules returns the cached rule set for the URL's host, fetching and
// parsing robots.txt on first access. Concurrent first accesses are
// collapsed by singleflight so the origin sees one request per host.
func (g *RobotsGate) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	g.mu.RLock()
	rules, ok := g.cache[host]
	g.mu.RUnlock()
	if ok {
		return rules
	}

	v, _, _ := g.group.Do(host, func() (any, error) {
		// Re-check under the write path: another singleflight round
		// may have populated the cache between RUnlock and Do.
		g.mu.RLock()
		cached, ok := g.cache[host]
		g.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fetched := g.fetch(ctx, u.Scheme, host)

		g.mu.Lock()
		g.cache[host] = fetched
		g.mu.Unlock()

		return fetched, nil
	})

	rules, _ = v.(*robotstxt.RobotsData)
	return rules
}

// fetch retrieves and parses robots.txt for a host. It returns nil
// (allow everything) on any failure.
func (g *RobotsGate) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"

	result, err := g.fetcher.Fetch(ctx, robotsURL)
	if err != nil || result.Kind != model.ErrorNone {
		g.logger.Debug("robots.txt unavailable, failing open", "host", host)
		return nil
	}

	if result.StatusCode != 200 {
		// 404 means no policy; 4xx/5xx and redirects to error pages
		// are treated the same way. Fail open.
		g.logger.Debug("robots.txt fetch returned non-200, failing open",
			"host", host,
			"status", result.StatusCode,
		)
		return nil
	}

	rules, err := robotstxt.FromBytes(result.Body)
	if err != nil {
		g.logger.Debug("robots.txt unparsable, failing open", "host", host, "error", err)
		return nil
	}

	g.logger.Debug("robots.txt loaded", "host", host)
	return rules
}
