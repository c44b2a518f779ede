package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/sitecrawler/internal/model"
)

// CSVWriter produces the three per-site CSV files:
//
//	fetch_<site>.csv - every fetch attempt with its status code
//	visit_<site>.csv - every successful visit with size, outlinks, type
//	urls_<site>.csv  - every discovered URL with its OK/N_OK indicator
//
// Unlike the stream writers, CSVWriter owns a directory: it creates
// the output directory on demand and writes one file per record kind.
type CSVWriter struct {
	// outputDir is the directory the CSV files are written into.
	outputDir string
}

// NewCSVWriter creates a CSVWriter targeting the given directory.
func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

// WriteFiles writes the three CSV files for the crawl and returns the
// paths written. The site name in the file names comes from the
// statistics.
func (w *CSVWriter) WriteFiles(stats *model.Statistics) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	site := stats.Site
	if site == "" {
		site = "crawl"
	}

	fetchPath := filepath.Join(w.outputDir, "fetch_"+site+".csv")
	if err := w.writeFetchFile(fetchPath, stats.Fetches); err != nil {
		return nil, err
	}

	visitPath := filepath.Join(w.outputDir, "visit_"+site+".csv")
	if err := w.writeVisitFile(visitPath, stats.Visits); err != nil {
		return nil, err
	}

	urlsPath := filepath.Join(w.outputDir, "urls_"+site+".csv")
	if err := w.writeURLsFile(urlsPath, stats.Discovered); err != nil {
		return nil, err
	}

	return []string{fetchPath, visitPath, urlsPath}, nil
}

// writeFetchFile writes fetch_<site>.csv with URL and status columns.
func (w *CSVWriter) writeFetchFile(path string, fetches []model.FetchRecord) error {
	return w.writeFile(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"URL", "Status"}); err != nil {
			return err
		}
		for _, f := range fetches {
			if err := cw.Write([]string{cleanURL(f.URL), strconv.Itoa(f.StatusCode)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeVisitFile writes visit_<site>.csv with size, outlink count, and
// content type columns.
func (w *CSVWriter) writeVisitFile(path string, visits []model.VisitRecord) error {
	return w.writeFile(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"URL", "Size (bytes)", "# Outlinks", "Content-Type"}); err != nil {
			return err
		}
		for _, v := range visits {
			row := []string{
				cleanURL(v.URL),
				strconv.FormatInt(v.SizeBytes, 10),
				strconv.Itoa(v.Outlinks),
				v.ContentType,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeURLsFile writes urls_<site>.csv with the OK/N_OK indicator.
func (w *CSVWriter) writeURLsFile(path string, discovered []model.DiscoveredURL) error {
	return w.writeFile(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"URL", "Indicator"}); err != nil {
			return err
		}
		for _, d := range discovered {
			if err := cw.Write([]string{cleanURL(d.URL), d.Indicator()}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeFile opens path, runs fill with a csv.Writer on it, and flushes.
func (w *CSVWriter) writeFile(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path) //nolint:gosec // Paths are built from the configured output dir
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := fill(cw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// cleanURL replaces commas in a URL with underscores so spreadsheet
// tools that split on commas inside quoted fields stay usable.
func cleanURL(url string) string {
	return strings.ReplaceAll(url, ",", "_")
}
