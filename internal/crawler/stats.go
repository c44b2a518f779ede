package crawler

import (
	"sync"
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Collector aggregates fetch outcomes, visits, and discovered URLs
// from all workers. Every recording operation is internally
// synchronized; callers never take an external lock.
//
// Design decision: One mutex per collector rather than a global crawl
// lock keeps contention on the statistics hot path independent from
// the frontier hot path. Within the collector, record operations only
// append and bump counters, so the critical sections stay short.
// The expensive aggregate (the Statistics value itself) is built once
// in Snapshot, after all writers have finished.
type Collector struct {
	mu sync.Mutex

	fetches    []model.FetchRecord
	visits     []model.VisitRecord
	discovered []model.DiscoveredURL

	statusCodes  map[int]int
	sizeBuckets  map[model.SizeBucket]int
	contentTypes map[string]int

	uniqueExtracted   map[string]struct{}
	uniqueWithinSite  map[string]struct{}
	uniqueOutsideSite map[string]struct{}
}

// NewCollector creates an empty statistics collector.
func NewCollector() *Collector {
	return &Collector{
		statusCodes:       make(map[int]int),
		sizeBuckets:       make(map[model.SizeBucket]int),
		contentTypes:      make(map[string]int),
		uniqueExtracted:   make(map[string]struct{}),
		uniqueWithinSite:  make(map[string]struct{}),
		uniqueOutsideSite: make(map[string]struct{}),
	}
}

// RecordFetch appends one fetch attempt to the fetch log and updates
// the status-code histogram. Called exactly once per dequeued URL.
func (c *Collector) RecordFetch(record model.FetchRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetches = append(c.fetches, record)
	c.statusCodes[record.StatusCode]++
}

// RecordVisit appends one successful visit to the visit log and
// updates the content-type and size histograms. The record's
// ContentType must already be cleaned of charset parameters.
func (c *Collector) RecordVisit(record model.VisitRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visits = append(c.visits, record)
	c.contentTypes[record.ContentType]++
	c.sizeBuckets[model.BucketForSize(record.SizeBytes)]++
}

// RecordDiscovered appends one extracted URL to the discovered log and
// updates the unique URL sets. Called once per extracted link,
// duplicates included.
func (c *Collector) RecordDiscovered(record model.DiscoveredURL) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.discovered = append(c.discovered, record)
	c.uniqueExtracted[record.URL] = struct{}{}
	if record.WithinSite {
		c.uniqueWithinSite[record.URL] = struct{}{}
	} else {
		c.uniqueOutsideSite[record.URL] = struct{}{}
	}
}

// FetchCount returns the number of fetch records so far. Used for
// progress logging during the crawl.
func (c *Collector) FetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fetches)
}

// Snapshot builds the immutable statistics aggregate. It must be
// called after all workers have terminated; the returned value
// reflects every prior record call exactly once and shares no mutable
// state with the collector.
func (c *Collector) Snapshot() *model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	succeeded := 0
	for _, f := range c.fetches {
		if f.Succeeded() {
			succeeded++
		}
	}

	stats := &model.Statistics{
		FetchAttempts:     len(c.fetches),
		FetchesSucceeded:  succeeded,
		FetchesFailed:     len(c.fetches) - succeeded,
		TotalExtracted:    len(c.discovered),
		UniqueExtracted:   len(c.uniqueExtracted),
		UniqueWithinSite:  len(c.uniqueWithinSite),
		UniqueOutsideSite: len(c.uniqueOutsideSite),
		StatusCodes:       make(map[int]int, len(c.statusCodes)),
		SizeBuckets:       make(map[model.SizeBucket]int, len(c.sizeBuckets)),
		ContentTypes:      make(map[string]int, len(c.contentTypes)),
		Fetches:           make([]model.FetchRecord, len(c.fetches)),
		Visits:            make([]model.VisitRecord, len(c.visits)),
		Discovered:        make([]model.DiscoveredURL, len(c.discovered)),
		FinishedAt:        time.Now(),
	}

	for code, n := range c.statusCodes {
		stats.StatusCodes[code] = n
	}
	for bucket, n := range c.sizeBuckets {
		stats.SizeBuckets[bucket] = n
	}
	for ct, n := range c.contentTypes {
		stats.ContentTypes[ct] = n
	}
	copy(stats.Fetches, c.fetches)
	copy(stats.Visits, c.visits)
	copy(stats.Discovered, c.discovered)

	return stats
}
