package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// Item is a unit of pending work in the frontier: a canonical URL and
// the depth at which it was discovered.
type Item struct {
	// URL is the canonical URL to fetch.
	URL string

	// Depth is the link distance from the seed. The seed has depth 0.
	Depth int
}

// Frontier is the shared work queue of a crawl. It combines the
// pending-URL queue, the visited set, and the global fetch-attempt cap
// in a single structure guarded by one mutex.
//
// Design decision: The visited set and the queue are one component
// rather than two separately locked structures because admission must
// be a single atomic check-cap-and-check-dedup-and-insert step. Two
// locks would open a check-then-act race in which two workers both see
// a URL as unvisited and both enqueue it.
//
// Invariants:
//   - A URL is admitted at most once for the lifetime of the crawl.
//   - The total number of items ever dequeued never exceeds maxPages.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds admitted items not yet dequeued. FIFO order; the
	// relative order of items admitted concurrently by different
	// workers is unspecified.
	queue []Item

	// seen holds every URL ever admitted; entries are never removed.
	seen map[string]struct{}

	// pending counts items admitted but not yet fully processed.
	// It is incremented on admit and decremented by Done. When
	// pending reaches zero with an empty queue, no worker can
	// produce new work and the crawl is over.
	pending int

	// dequeued counts total successful Next calls, capped at maxPages.
	dequeued int

	// maxPages is the hard cap on dequeues (fetch attempts).
	maxPages int

	// closed is set when the cap is reached, the work runs out, or
	// Close is called. Once closed, Next returns immediately and
	// TryAdmit rejects everything.
	closed bool
}

// NewFrontier creates a frontier with the given fetch-attempt cap.
// A cap of zero produces a frontier that rejects every admission,
// which makes a crawl terminate immediately with empty statistics.
func NewFrontier(maxPages int) *Frontier {
	f := &Frontier{
		seen:     make(map[string]struct{}),
		maxPages: maxPages,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// TryAdmit atomically admits a URL if and only if the fetch-attempt
// cap has not been reached and the URL has never been admitted before.
// It returns true when the URL was enqueued.
//
// This is the sole deduplication gate: callers must route every
// candidate URL through TryAdmit exactly once, at discovery time.
func (f *Frontier) TryAdmit(rawURL string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.dequeued >= f.maxPages {
		return false
	}
	if _, ok := f.seen[rawURL]; ok {
		return false
	}

	f.seen[rawURL] = struct{}{}
	f.queue = append(f.queue, Item{URL: rawURL, Depth: depth})
	f.pending++
	f.cond.Broadcast()
	return true
}

// Next blocks until an item is available or the crawl is over, and
// returns ok=false in the latter case. A worker observing ok=false
// must exit; the frontier guarantees no further work will appear.
//
// Termination is exact, not timeout-based: a worker sleeping here is
// woken whenever an item is admitted, an item is completed, or the
// frontier closes. The crawl is over when the cap is reached or when
// the queue is empty and no dequeued item is still being processed.
func (f *Frontier) Next() (Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return Item{}, false
		}
		if f.dequeued >= f.maxPages {
			f.closeLocked()
			return Item{}, false
		}
		if len(f.queue) > 0 {
			item := f.queue[0]
			f.queue = f.queue[1:]
			f.dequeued++
			return item, true
		}
		if f.pending == 0 {
			// Queue empty and nothing in flight: no worker can
			// enqueue anything new.
			f.closeLocked()
			return Item{}, false
		}
		f.cond.Wait()
	}
}

// Done marks one previously dequeued item as fully processed,
// including any admissions of its outlinks. Every successful Next
// must be paired with exactly one Done.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending--
	f.cond.Broadcast()
}

// Close terminates the frontier early, waking all blocked workers.
// It is safe to call concurrently and more than once. In-flight items
// are unaffected; their Done calls remain valid.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

// closeLocked marks the frontier closed. Callers must hold f.mu.
func (f *Frontier) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}

// Dequeued returns the total number of items handed out so far.
func (f *Frontier) Dequeued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dequeued
}

// SeenCount returns the number of distinct URLs ever admitted.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// CanonicalURL normalizes a URL for deduplication and output:
// the fragment is dropped, scheme and host are lowercased, and an
// empty path becomes "/". It returns an error for unparsable URLs.
//
// Design decision: We normalize because the same page commonly appears
// under several spellings ("...#frag", uppercase hosts, bare roots).
// Canonicalization happens once, before admission, so the visited set
// and every record share a single identity per page.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
