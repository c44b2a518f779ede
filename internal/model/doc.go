// Package model defines the data types shared across the crawler:
// per-fetch records, per-visit records, discovered URL entries, and the
// immutable statistics snapshot produced at the end of a crawl.
package model
