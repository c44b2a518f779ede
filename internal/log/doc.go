// Package log provides crawl-aware logging built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - A per-site handler that tags every record with the site name,
//     so interleaved output from concurrent site crawls stays readable
//   - Truncation of oversized URL attributes (news-site URLs routinely
//     carry hundreds of bytes of tracking parameters)
//   - Configurable log levels with verbose mode support
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Tag a logger for one site's crawl
//	siteLogger := log.WithSite(logger, "nytimes")
//	siteLogger.Info("crawl progress", "fetched", 100)
//	// => level=INFO msg="crawl progress" site=nytimes fetched=100
package log
