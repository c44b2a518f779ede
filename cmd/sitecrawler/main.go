// Package main provides the entry point for the sitecrawler CLI.
//
// sitecrawler is a polite, bounded web crawler for news sites. It
// fetches pages in parallel, respects robots.txt, and produces crawl
// statistics as text reports, CSV logs, and database sessions.
//
// Usage:
//
//	sitecrawler crawl nytimes
//	sitecrawler crawl https://example.com/
//
// See --help for all available options.
package main

// main is the entry point for sitecrawler.
func main() {
	Execute()
}
