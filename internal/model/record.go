package model

import (
	"net/http"
	"strings"
)

// ErrorKind classifies why a fetch attempt failed.
// ErrorNone means the fetch completed with a real HTTP status code,
// which may still be a non-2xx response.
type ErrorKind int

const (
	// ErrorNone indicates the fetch completed and StatusCode is the
	// status code the server actually returned.
	ErrorNone ErrorKind = iota

	// ErrorTimeout indicates the request exceeded the configured timeout.
	ErrorTimeout

	// ErrorConnection indicates a transport-level failure such as a
	// connection reset, refused connection, or DNS resolution failure.
	ErrorConnection

	// ErrorTooManyRedirects indicates the redirect limit was exceeded.
	ErrorTooManyRedirects

	// ErrorRobotsDisallowed indicates robots.txt forbade the URL.
	// The URL was never fetched; the record exists so the fetch log
	// accounts for every dequeued URL.
	ErrorRobotsDisallowed

	// ErrorOther covers unexpected failures that do not fit the
	// categories above.
	ErrorOther
)

// Synthetic status codes recorded for fetches that never produced a
// real HTTP response, so that every attempt in the fetch log has a
// numeric status.
const (
	// StatusTimeout is recorded for requests that timed out.
	StatusTimeout = http.StatusRequestTimeout // 408

	// StatusConnectionFailed is recorded for transport-level failures.
	StatusConnectionFailed = http.StatusServiceUnavailable // 503

	// StatusInternalError is recorded for unclassified failures.
	StatusInternalError = http.StatusInternalServerError // 500

	// StatusRobotsDisallowed is recorded for URLs skipped because of
	// robots.txt. Zero distinguishes "never attempted" from any real
	// or synthetic HTTP status.
	StatusRobotsDisallowed = 0
)

// String returns a short human-readable name for the error kind.
// It is used as the status column in the fetch log when no HTTP
// status code exists.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorTimeout:
		return "timeout"
	case ErrorConnection:
		return "connection_error"
	case ErrorTooManyRedirects:
		return "too_many_redirects"
	case ErrorRobotsDisallowed:
		return "robots_disallowed"
	default:
		return "error"
	}
}

// StatusCode returns the synthetic status code recorded for this
// error kind. For ErrorNone the caller should use the real response
// status instead.
func (k ErrorKind) StatusCode() int {
	switch k {
	case ErrorTimeout:
		return StatusTimeout
	case ErrorConnection:
		return StatusConnectionFailed
	case ErrorRobotsDisallowed:
		return StatusRobotsDisallowed
	default:
		return StatusInternalError
	}
}

// FetchRecord describes a single fetch attempt. Exactly one record is
// created per URL dequeued from the frontier, whether the fetch
// succeeded, failed, or was skipped by the robots gate. Records are
// immutable after creation.
type FetchRecord struct {
	// URL is the canonical URL that was attempted.
	URL string `json:"url"`

	// StatusCode is the HTTP status code, or a synthetic code for
	// failures that never produced a response.
	StatusCode int `json:"status_code"`

	// Kind classifies the failure. ErrorNone for completed fetches.
	Kind ErrorKind `json:"error_kind"`
}

// Succeeded reports whether the fetch completed with a 2xx status.
func (r FetchRecord) Succeeded() bool {
	return r.Kind == ErrorNone && r.StatusCode >= 200 && r.StatusCode < 300
}

// VisitRecord describes a successfully fetched page that passed the
// content-type filter. Only visits contribute to the content-type and
// size histograms. Records are immutable after creation.
type VisitRecord struct {
	// URL is the canonical URL of the visited page.
	URL string `json:"url"`

	// SizeBytes is the response body size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// Outlinks is the number of links extracted from the page.
	// Zero for non-HTML content.
	Outlinks int `json:"outlinks"`

	// ContentType is the MIME type without any charset suffix,
	// e.g. "text/html" rather than "text/html; charset=utf-8".
	ContentType string `json:"content_type"`
}

// Discovery indicators for extracted URLs.
//
// IndicatorOK marks a URL within the crawl domain with an http(s)
// scheme; IndicatorNotOK marks everything else. The indicator reflects
// in-domain discoverability only: a URL filtered out later by
// content type still carries IndicatorOK.
const (
	IndicatorOK    = "OK"
	IndicatorNotOK = "N_OK"
)

// DiscoveredURL describes one URL extracted from a visited page.
// One record is created per extracted link regardless of whether the
// link is ever fetched. Records are immutable after creation.
type DiscoveredURL struct {
	// URL is the canonical (fragment-stripped, absolute) URL.
	URL string `json:"url"`

	// WithinSite is true when the URL's host matched the target
	// domain and its scheme was http or https.
	WithinSite bool `json:"within_site"`
}

// Indicator returns the report indicator for this discovery:
// "OK" for in-site URLs and "N_OK" for everything else.
func (d DiscoveredURL) Indicator() string {
	if d.WithinSite {
		return IndicatorOK
	}
	return IndicatorNotOK
}

// FetchResult is the outcome of a single HTTP fetch as returned by a
// Fetcher. Transport failures are expressed through Kind with a
// synthetic status code rather than a Go error, so that workers can
// record every attempt uniformly.
type FetchResult struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after following redirects. Equal to URL
	// when no redirect occurred.
	FinalURL string

	// StatusCode is the HTTP status code, or a synthetic code when
	// Kind is not ErrorNone.
	StatusCode int

	// Header contains the response headers. Nil on failure.
	Header http.Header

	// ContentType is the raw Content-Type header value, possibly
	// including a charset suffix.
	ContentType string

	// Body is the response body, truncated to the fetcher's body
	// size limit. Nil on failure.
	Body []byte

	// Kind classifies transport failures. ErrorNone for completed
	// requests (including non-2xx responses).
	Kind ErrorKind
}

// Succeeded reports whether the fetch completed with a 2xx status.
func (r *FetchResult) Succeeded() bool {
	return r.Kind == ErrorNone && r.StatusCode >= 200 && r.StatusCode < 300
}

// CleanContentType strips any parameter suffix from a Content-Type
// header value, returning just the MIME type. For example,
// "text/html; charset=utf-8" becomes "text/html".
func CleanContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}
