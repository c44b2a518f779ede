package crawler

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Fetcher retrieves a single URL. Implementations map transport
// failures into the result's Kind field with a synthetic status code
// instead of returning a Go error, so callers can record every attempt
// the same way. The error return is reserved for caller mistakes such
// as an unparsable URL.
//
// Design decision: We accept an interface here so the worker loop and
// the robots gate can be tested against fake fetchers without any
// network I/O.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// errTooManyRedirects is the sentinel returned by the redirect policy
// when the redirect limit is exceeded. It is matched with errors.Is to
// classify the failure.
var errTooManyRedirects = errors.New("stopped after too many redirects")

// Default fetcher settings: a short timeout so a slow news site
// cannot stall a worker, and a body cap to bound memory per fetch.
const (
	// DefaultFetchTimeout is the per-request timeout.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxRedirects is the redirect-following limit.
	DefaultMaxRedirects = 10

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs and match it in robots.txt.
	DefaultUserAgent = "sitecrawler/1.0 (+https://github.com/nao1215/sitecrawler)"
)

// HTTPFetcher fetches URLs over plain HTTP(S). Each fetch opens its
// own connection through the shared transport; no state is shared
// between concurrent calls beyond the http.Client, which is safe for
// concurrent use.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithFetchTimeout sets the per-request timeout.
func WithFetchTimeout(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = d
	}
}

// WithFetchUserAgent sets the User-Agent header sent with each request.
func WithFetchUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithFetchMaxBodySize sets the maximum number of response body bytes read.
func WithFetchMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// NewHTTPFetcher creates an HTTP fetcher with sane defaults.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: DefaultFetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= DefaultMaxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves the URL and classifies the outcome. A non-2xx
// status is a completed fetch, not a failure; only transport-level
// problems set a non-ErrorNone Kind.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		kind := classifyFetchError(err)
		return &model.FetchResult{
			URL:        rawURL,
			FinalURL:   rawURL,
			StatusCode: kind.StatusCode(),
			Kind:       kind,
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		kind := classifyFetchError(err)
		return &model.FetchResult{
			URL:        rawURL,
			FinalURL:   resp.Request.URL.String(),
			StatusCode: kind.StatusCode(),
			Kind:       kind,
		}, nil
	}

	return &model.FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Kind:        model.ErrorNone,
	}, nil
}

// classifyFetchError maps a transport error to an ErrorKind so every
// failed attempt gets a synthetic status code: timeouts become 408,
// connection problems 503, everything else 500.
func classifyFetchError(err error) model.ErrorKind {
	if errors.Is(err, errTooManyRedirects) {
		return model.ErrorTooManyRedirects
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return model.ErrorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrorTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return model.ErrorTimeout
		}
		return model.ErrorConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.ErrorConnection
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.ErrorConnection
	}

	return model.ErrorOther
}
