package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitecrawler/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the statistics in Markdown format.
func (w *MarkdownWriter) Write(stats *model.Statistics) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, stats)
	w.writeFetchStatistics(md, stats)
	w.writeOutgoingURLs(md, stats)
	w.writeStatusCodes(md, stats)
	w.writeFileSizes(md, stats)
	w.writeContentTypes(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the crawl identification table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, stats *model.Statistics) {
	title := stats.Site
	if title == "" {
		title = stats.Domain
	}
	md.H1("Crawl Report: " + cases.Title(language.English).String(title))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + stats.Domain + "`"},
			{"Seed URL", "`" + stats.Seed + "`"},
			{"Workers", strconv.Itoa(stats.Workers)},
			{"Started", stats.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", stats.Elapsed().String()},
		},
	})
	md.PlainText("")
}

// writeFetchStatistics writes the fetch counter table with an alert
// when the failure rate is noteworthy.
func (w *MarkdownWriter) writeFetchStatistics(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("Fetch Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Fetches attempted", strconv.Itoa(stats.FetchAttempts)},
			{"Fetches succeeded", strconv.Itoa(stats.FetchesSucceeded)},
			{"Fetches failed or aborted", strconv.Itoa(stats.FetchesFailed)},
		},
	})
	md.PlainText("")

	switch {
	case stats.FetchAttempts == 0:
		md.Note("No pages were fetched. Check the seed URL and the page cap.")
	case stats.FetchesFailed*2 > stats.FetchAttempts:
		md.Warningf(
			"More than half of the fetches failed (%d of %d). The site may be rate limiting the crawler.",
			stats.FetchesFailed, stats.FetchAttempts,
		)
	}
	md.PlainText("")
}

// writeOutgoingURLs writes the extracted URL table.
func (w *MarkdownWriter) writeOutgoingURLs(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("Outgoing URLs")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total URLs extracted", strconv.Itoa(stats.TotalExtracted)},
			{"Unique URLs extracted", strconv.Itoa(stats.UniqueExtracted)},
			{"Unique URLs within site", strconv.Itoa(stats.UniqueWithinSite)},
			{"Unique URLs outside site", strconv.Itoa(stats.UniqueOutsideSite)},
		},
	})
	md.PlainText("")
}

// writeStatusCodes writes the status code table in ascending order.
func (w *MarkdownWriter) writeStatusCodes(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("Status Codes")
	md.PlainText("")

	codes := sortedStatusCodes(stats.StatusCodes)
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		label := strconv.Itoa(code)
		if desc := statusText(code); desc != "" {
			label += " " + desc
		}
		rows = append(rows, []string{label, strconv.Itoa(stats.StatusCodes[code])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFileSizes writes the size histogram as a table plus a mermaid
// pie chart when anything was visited.
func (w *MarkdownWriter) writeFileSizes(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("File Sizes")
	md.PlainText("")

	rows := make([][]string, 0, model.SizeBucketCount)
	total := 0
	for _, bucket := range model.SizeBuckets() {
		rows = append(rows, []string{bucket.String(), strconv.Itoa(stats.SizeBuckets[bucket])})
		total += stats.SizeBuckets[bucket]
	}

	md.Table(markdown.TableSet{
		Header: []string{"Size Range", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Page Size Distribution"),
			piechart.WithShowData(true),
		)
		for _, bucket := range model.SizeBuckets() {
			if n := stats.SizeBuckets[bucket]; n > 0 {
				chart.LabelAndIntValue(bucket.String(), uint64(n))
			}
		}

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeContentTypes writes the content type table sorted by type.
func (w *MarkdownWriter) writeContentTypes(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("Content Types")
	md.PlainText("")

	types := sortedContentTypes(stats.ContentTypes)
	rows := make([][]string, 0, len(types))
	for _, ct := range types {
		rows = append(rows, []string{"`" + ct + "`", strconv.Itoa(stats.ContentTypes[ct])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Content Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawler](https://github.com/nao1215/sitecrawler)*")
}
