package pipeline

import "errors"

// Design decision: We define sentinel errors at package level because:
// 1. Callers can use errors.Is() for reliable error checking
// 2. Error messages stay consistent across the codebase
// 3. It documents the failure modes a pipeline run can hit
var (
	// ErrNoStatistics is returned by steps that need crawl results
	// when the crawl step has not run or failed to produce them.
	ErrNoStatistics = errors.New("pipeline: run has no statistics")

	// ErrNoDatabase is returned by the persist step when no database
	// handle was provided.
	ErrNoDatabase = errors.New("pipeline: no database configured")
)
