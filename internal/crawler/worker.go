package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitecrawler/internal/model"
)

// excludedExtensions lists URL path extensions that are never
// enqueued: style sheets, scripts, media, and archives. Images are
// deliberately not excluded, so image fetches still show up in the
// content-type histogram.
var excludedExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".json": {}, ".xml": {},
	".bmp": {}, ".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {},
	".mov": {}, ".mpeg": {}, ".ram": {}, ".m4v": {}, ".wmv": {},
	".rm": {}, ".smil": {}, ".swf": {}, ".wma": {},
	".zip": {}, ".rar": {}, ".gz": {}, ".tar": {}, ".7z": {},
	".exe": {}, ".bin": {}, ".dmg": {}, ".iso": {},
}

// newPolitenessLimiter builds a per-worker rate limiter with one token
// per delay interval. The initial token is consumed at construction so
// the very first fetch waits a full interval like every later one.
func newPolitenessLimiter(delay time.Duration) *rate.Limiter {
	l := rate.NewLimiter(rate.Every(delay), 1)
	l.Allow()
	return l
}

// worker is one unit of crawl concurrency. It loops over the frontier
// until termination, carrying no mutable state of its own: everything
// shared lives behind the frontier, the robots gate, and the
// collector, each of which is safe for concurrent use.
type worker struct {
	id       int
	frontier *Frontier
	robots   *RobotsGate
	fetcher  Fetcher
	stats    *Collector
	logger   *slog.Logger

	// limiter enforces the politeness delay. Each worker owns its
	// own limiter: with N workers the aggregate request rate is
	// N per delay interval, which is the documented policy.
	limiter *rate.Limiter

	// domain is the target domain for in-site filtering.
	domain string

	// includeSubdomains widens domain matching from exact-host to
	// suffix matching (e.g. "www.example.com" matches "example.com").
	includeSubdomains bool

	// maxDepth caps the link distance from the seed. Zero disables
	// the depth limit.
	maxDepth int

	// allowedContentTypes is the visit allow list. A fetched page
	// whose cleaned content type matches none of these substrings is
	// counted as a fetch but not as a visit.
	allowedContentTypes []string
}

// run executes the worker loop until the frontier reports
// termination or the context is cancelled.
func (w *worker) run(ctx context.Context) error {
	w.logger.Debug("worker started", "worker", w.id)
	defer w.logger.Debug("worker finished", "worker", w.id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item, ok := w.frontier.Next()
		if !ok {
			return nil
		}
		w.process(ctx, item)
	}
}

// process handles one dequeued URL: robots check, politeness wait,
// fetch, link extraction, filtering, and recording.
func (w *worker) process(ctx context.Context, item Item) {
	defer w.frontier.Done()

	if !w.robots.Allowed(ctx, item.URL) {
		w.logger.Debug("robots disallowed", "url", item.URL)
		w.stats.RecordFetch(model.FetchRecord{
			URL:        item.URL,
			StatusCode: model.StatusRobotsDisallowed,
			Kind:       model.ErrorRobotsDisallowed,
		})
		return
	}

	// Politeness delay before every fetch. Wait returns early only
	// when the context is cancelled, in which case the crawl is
	// being torn down and the URL is abandoned unrecorded.
	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	result, err := w.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		w.logger.Warn("fetch rejected", "url", item.URL, "error", err)
		w.stats.RecordFetch(model.FetchRecord{
			URL:        item.URL,
			StatusCode: model.StatusInternalError,
			Kind:       model.ErrorOther,
		})
		return
	}

	w.stats.RecordFetch(model.FetchRecord{
		URL:        item.URL,
		StatusCode: result.StatusCode,
		Kind:       result.Kind,
	})

	if n := w.stats.FetchCount(); n%100 == 0 {
		w.logger.Info("crawl progress", "fetched", n, "url", item.URL)
	}

	if !result.Succeeded() {
		return
	}

	contentType := model.CleanContentType(result.ContentType)
	if !w.contentTypeAllowed(contentType) {
		return
	}

	outlinks := 0
	if strings.Contains(contentType, "html") && len(result.Body) > 0 {
		outlinks = w.extractAndEnqueue(item, result)
	}

	w.stats.RecordVisit(model.VisitRecord{
		URL:         item.URL,
		SizeBytes:   int64(len(result.Body)),
		Outlinks:    outlinks,
		ContentType: contentType,
	})
}

// extractAndEnqueue parses the page, records every discovered link,
// and admits the in-site crawlable ones to the frontier. It returns
// the number of extracted links. A parse failure drops the page's
// links but never fails the worker.
func (w *worker) extractAndEnqueue(item Item, result *model.FetchResult) int {
	parser, err := NewParser(item.URL)
	if err != nil {
		return 0
	}

	parsed, err := parser.ParseBytes(result.Body, result.ContentType)
	if err != nil {
		w.logger.Debug("html parse failed", "url", item.URL, "error", err)
		return 0
	}

	for _, link := range parsed.Links {
		w.handleLink(link, item.Depth)
	}
	return len(parsed.Links)
}

// handleLink records one extracted link and decides whether to admit
// it. The OK/N_OK indicator depends only on scheme and domain; the
// extension filter and the depth limit affect admission, not the
// indicator.
func (w *worker) handleLink(link string, parentDepth int) {
	u, err := url.Parse(link)
	if err != nil {
		// Malformed link: drop it, keep the rest of the page.
		return
	}

	within := isHTTPScheme(u.Scheme) && w.matchesDomain(u.Hostname())
	w.stats.RecordDiscovered(model.DiscoveredURL{URL: link, WithinSite: within})

	if !within {
		return
	}
	if w.maxDepth > 0 && parentDepth >= w.maxDepth {
		return
	}
	if !crawlableExtension(u.Path) {
		return
	}

	w.frontier.TryAdmit(link, parentDepth+1)
}

// contentTypeAllowed reports whether a cleaned content type is in the
// visit allow list. An empty allow list admits everything.
func (w *worker) contentTypeAllowed(contentType string) bool {
	if len(w.allowedContentTypes) == 0 {
		return true
	}
	lower := strings.ToLower(contentType)
	for _, allowed := range w.allowedContentTypes {
		if strings.Contains(lower, allowed) {
			return true
		}
	}
	return false
}

// matchesDomain reports whether a host belongs to the target domain.
// Matching is exact by default; with includeSubdomains, any host
// ending in "." + domain also matches.
func (w *worker) matchesDomain(host string) bool {
	if strings.EqualFold(host, w.domain) {
		return true
	}
	if w.includeSubdomains {
		return strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(w.domain))
	}
	return false
}

// isHTTPScheme reports whether the scheme is http or https.
func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// crawlableExtension reports whether a URL path has an extension
// worth fetching. Paths without an extension are assumed to be HTML.
func crawlableExtension(urlPath string) bool {
	ext := strings.ToLower(path.Ext(urlPath))
	if ext == "" {
		return true
	}
	_, excluded := excludedExtensions[ext]
	return !excluded
}
