package model

import (
	"fmt"
	"time"
)

// SizeBucket identifies a response size range in the size histogram.
// The range boundaries are fixed; reports depend on the labels.
type SizeBucket int

const (
	// SizeUnder1KB is the bucket for responses smaller than 1KB.
	SizeUnder1KB SizeBucket = iota
	// Size1KBTo10KB is the bucket for responses of 1KB up to 10KB.
	Size1KBTo10KB
	// Size10KBTo100KB is the bucket for responses of 10KB up to 100KB.
	Size10KBTo100KB
	// Size100KBTo1MB is the bucket for responses of 100KB up to 1MB.
	Size100KBTo1MB
	// SizeOver1MB is the bucket for responses of 1MB or larger.
	SizeOver1MB

	// sizeBucketCount is the number of buckets. Keep last.
	sizeBucketCount
)

// SizeBucketCount is the number of size buckets in the histogram.
const SizeBucketCount = int(sizeBucketCount)

// String returns the report label for the bucket, e.g. "1KB ~ <10KB".
func (b SizeBucket) String() string {
	switch b {
	case SizeUnder1KB:
		return "< 1KB"
	case Size1KBTo10KB:
		return "1KB ~ <10KB"
	case Size10KBTo100KB:
		return "10KB ~ <100KB"
	case Size100KBTo1MB:
		return "100KB ~ <1MB"
	default:
		return ">= 1MB"
	}
}

// MarshalText renders the bucket as its report label. JSON objects
// keyed by bucket use the labels instead of bare integers.
func (b SizeBucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a report label back into a bucket.
func (b *SizeBucket) UnmarshalText(text []byte) error {
	for _, candidate := range SizeBuckets() {
		if candidate.String() == string(text) {
			*b = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown size bucket label %q", string(text))
}

// BucketForSize returns the histogram bucket for a response size.
func BucketForSize(sizeBytes int64) SizeBucket {
	switch kb := sizeBytes / 1024; {
	case sizeBytes < 1024:
		return SizeUnder1KB
	case kb < 10:
		return Size1KBTo10KB
	case kb < 100:
		return Size10KBTo100KB
	case kb < 1024:
		return Size100KBTo1MB
	default:
		return SizeOver1MB
	}
}

// SizeBuckets returns all buckets in report order.
func SizeBuckets() []SizeBucket {
	return []SizeBucket{
		SizeUnder1KB,
		Size1KBTo10KB,
		Size10KBTo100KB,
		Size100KBTo1MB,
		SizeOver1MB,
	}
}

// Statistics is the immutable snapshot of everything collected during
// a crawl. It is produced exactly once, after all workers have
// terminated, and is the sole input to report writers and the crawl
// database.
//
// Design decision: the snapshot carries both the aggregate histograms
// and the raw record collections. Report writers need the raw logs
// (fetch, visit, discovered) and the aggregates; computing aggregates
// here keeps every writer trivially consistent with the logs.
type Statistics struct {
	// Site is the short site name used in output file names.
	Site string `json:"site"`

	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Domain is the target domain used for link filtering.
	Domain string `json:"domain"`

	// Workers is the number of concurrent workers used.
	Workers int `json:"workers"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last worker terminated.
	FinishedAt time.Time `json:"finished_at"`

	// FetchAttempts is the total number of fetch records, including
	// failures and robots-skipped URLs.
	FetchAttempts int `json:"fetch_attempts"`

	// FetchesSucceeded is the number of fetches with a 2xx status.
	FetchesSucceeded int `json:"fetches_succeeded"`

	// FetchesFailed is FetchAttempts minus FetchesSucceeded.
	FetchesFailed int `json:"fetches_failed"`

	// TotalExtracted is the total number of discovered URL records,
	// counting duplicates.
	TotalExtracted int `json:"total_urls_extracted"`

	// UniqueExtracted is the number of distinct discovered URLs.
	UniqueExtracted int `json:"unique_urls_extracted"`

	// UniqueWithinSite is the number of distinct in-site URLs.
	UniqueWithinSite int `json:"unique_urls_within_site"`

	// UniqueOutsideSite is the number of distinct out-of-site URLs.
	UniqueOutsideSite int `json:"unique_urls_outside_site"`

	// StatusCodes maps status code to occurrence count across all
	// fetch attempts. Synthetic codes are included.
	StatusCodes map[int]int `json:"status_codes"`

	// SizeBuckets maps size bucket to visit count.
	SizeBuckets map[SizeBucket]int `json:"size_buckets"`

	// ContentTypes maps cleaned MIME type to visit count.
	ContentTypes map[string]int `json:"content_types"`

	// Fetches is the fetch log in record order.
	Fetches []FetchRecord `json:"fetches"`

	// Visits is the visit log in record order.
	Visits []VisitRecord `json:"visits"`

	// Discovered is the discovered-URL log in record order.
	Discovered []DiscoveredURL `json:"discovered"`
}

// Elapsed returns the wall-clock duration of the crawl.
func (s *Statistics) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
