package report

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// The section layout follows the classic crawl-report format: fetch
// statistics, outgoing URLs, status codes, file sizes, content types.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the statistics in human-readable format.
func (w *SimpleWriter) Write(stats *model.Statistics) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, stats)
	w.writeFetchStatistics(&sb, stats)
	w.writeOutgoingURLs(&sb, stats)
	w.writeStatusCodes(&sb, stats)
	w.writeFileSizes(&sb, stats)
	w.writeContentTypes(&sb, stats)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the crawl identification block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, stats *model.Statistics) {
	fmt.Fprintf(sb, "Site crawled: %s\n", stats.Domain)
	fmt.Fprintf(sb, "Seed URL: %s\n", stats.Seed)
	fmt.Fprintf(sb, "Number of workers: %d\n", stats.Workers)
	if !stats.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Crawl started: %s\n", stats.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(sb, "Elapsed: %s\n", stats.Elapsed().Round(time.Second))
	}
	sb.WriteString("\n")
}

// writeFetchStatistics writes the fetch counters.
func (w *SimpleWriter) writeFetchStatistics(sb *strings.Builder, stats *model.Statistics) {
	sb.WriteString("Fetch Statistics\n")
	sb.WriteString("================\n")
	fmt.Fprintf(sb, "# fetches attempted: %d\n", stats.FetchAttempts)
	fmt.Fprintf(sb, "# fetches succeeded: %d\n", stats.FetchesSucceeded)
	fmt.Fprintf(sb, "# fetches failed or aborted: %d\n", stats.FetchesFailed)
	sb.WriteString("\n")
}

// writeOutgoingURLs writes the extracted URL counters.
func (w *SimpleWriter) writeOutgoingURLs(sb *strings.Builder, stats *model.Statistics) {
	sb.WriteString("Outgoing URLs:\n")
	sb.WriteString("==============\n")
	fmt.Fprintf(sb, "Total URLs extracted: %d\n", stats.TotalExtracted)
	fmt.Fprintf(sb, "# unique URLs extracted: %d\n", stats.UniqueExtracted)
	fmt.Fprintf(sb, "# unique URLs within site: %d\n", stats.UniqueWithinSite)
	fmt.Fprintf(sb, "# unique URLs outside site: %d\n", stats.UniqueOutsideSite)
	sb.WriteString("\n")
}

// writeStatusCodes writes the status code histogram in ascending
// code order, with reason phrases where the code has one.
func (w *SimpleWriter) writeStatusCodes(sb *strings.Builder, stats *model.Statistics) {
	sb.WriteString("Status Codes:\n")
	sb.WriteString("=============\n")

	for _, code := range sortedStatusCodes(stats.StatusCodes) {
		if desc := statusText(code); desc != "" {
			fmt.Fprintf(sb, "%d %s: %d\n", code, desc, stats.StatusCodes[code])
		} else {
			fmt.Fprintf(sb, "%d: %d\n", code, stats.StatusCodes[code])
		}
	}
	sb.WriteString("\n")
}

// writeFileSizes writes the size histogram in bucket order. Empty
// buckets are listed too, so reports from different crawls line up.
func (w *SimpleWriter) writeFileSizes(sb *strings.Builder, stats *model.Statistics) {
	sb.WriteString("File Sizes:\n")
	sb.WriteString("===========\n")
	for _, bucket := range model.SizeBuckets() {
		fmt.Fprintf(sb, "%s: %d\n", bucket, stats.SizeBuckets[bucket])
	}
	sb.WriteString("\n")
}

// writeContentTypes writes the content type histogram sorted by type.
func (w *SimpleWriter) writeContentTypes(sb *strings.Builder, stats *model.Statistics) {
	sb.WriteString("Content Types:\n")
	sb.WriteString("==============\n")

	for _, ct := range sortedContentTypes(stats.ContentTypes) {
		fmt.Fprintf(sb, "%s: %d\n", ct, stats.ContentTypes[ct])
	}
}

// statusText returns the reason phrase for a status code.
// Synthetic code 0 marks URLs skipped by the robots gate.
func statusText(code int) string {
	if code == model.StatusRobotsDisallowed {
		return "Disallowed by robots.txt"
	}
	return http.StatusText(code)
}
