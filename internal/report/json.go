package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/sitecrawler/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full statistics snapshot in JSON format.
func (w *JSONWriter) Write(stats *model.Statistics) (int, error) {
	return w.writeJSON(stats)
}

// writeJSON encodes the given value to JSON and writes it to the
// output. HTML escaping is disabled so size-bucket keys like "< 1KB"
// stay readable; the output is a report, not an HTML payload. The
// encoder appends the trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}

	if err := enc.Encode(v); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// JSONReport wraps the statistics snapshot with generator metadata.
//
// Design decision: We wrap the statistics rather than adding fields to
// model.Statistics because this keeps output-specific metadata out of
// the core data structure.
type JSONReport struct {
	// Version is the sitecrawler version that generated this report.
	Version string `json:"version"`

	// Statistics is the full crawl snapshot.
	Statistics *model.Statistics `json:"statistics"`
}

// VersionedJSONWriter outputs statistics wrapped with version metadata.
type VersionedJSONWriter struct {
	*JSONWriter

	// version is the sitecrawler version string.
	version string
}

// NewVersionedJSONWriter creates a writer that tags reports with a version.
// An empty version is reported as "dev".
func NewVersionedJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *VersionedJSONWriter {
	if version == "" {
		version = "dev"
	}
	return &VersionedJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the statistics wrapped with metadata.
func (w *VersionedJSONWriter) Write(stats *model.Statistics) (int, error) {
	return w.writeJSON(&JSONReport{
		Version:    w.version,
		Statistics: stats,
	})
}
