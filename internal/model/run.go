package model

// CrawlRun accumulates the state of a single site crawl as it moves
// through the pipeline. Steps fill it in: the crawl step attaches the
// statistics snapshot, the persist step records the session ID, the
// report step appends output file paths.
type CrawlRun struct {
	// Site is the short site name, e.g. "nytimes".
	Site string

	// Seed is the URL the crawl starts from.
	Seed string

	// Statistics is the snapshot produced by the crawl step.
	// Nil until the crawl has run.
	Statistics *Statistics

	// SessionID is the database session the run was saved under.
	// Zero when the run was not persisted.
	SessionID int64

	// OutputFiles lists the artifact paths written for this run.
	OutputFiles []string

	// PerformedSteps lists the names of the executed steps in order.
	PerformedSteps []string

	// TimedOut is true when the run was cut short by its context.
	TimedOut bool

	// Error holds the first critical error, if any.
	Error error

	// ErrorMessage is Error rendered as a string for serialization.
	ErrorMessage string
}

// NewCrawlRun creates an empty run for the given site and seed.
func NewCrawlRun(site, seed string) *CrawlRun {
	return &CrawlRun{
		Site: site,
		Seed: seed,
	}
}

// Succeeded reports whether the run completed without a critical error.
func (r *CrawlRun) Succeeded() bool {
	return r.Error == nil && r.Statistics != nil
}
