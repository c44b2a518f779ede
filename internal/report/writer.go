package report

import (
	"io"
	"sort"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Writer defines the interface for report output.
// Implementations write crawl statistics in various formats.
//
// Design decision: We use an interface to allow different output
// formats and destinations. This enables writing to files, stdout, or
// network connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(stats *model.Statistics) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different from
// io.Writer - we write statistics, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(stats *model.Statistics) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(stats)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// sortedStatusCodes returns the histogram keys in ascending order so
// every writer lists status codes the same way.
func sortedStatusCodes(codes map[int]int) []int {
	sorted := make([]int, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	sort.Ints(sorted)
	return sorted
}

// sortedContentTypes returns the histogram keys in lexical order.
func sortedContentTypes(types map[string]int) []string {
	sorted := make([]string, 0, len(types))
	for ct := range types {
		sorted = append(sorted, ct)
	}
	sort.Strings(sorted)
	return sorted
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
