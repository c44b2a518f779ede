package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/model"
)

// seedSessions saves two crawl sessions into a fresh database and
// returns its directory.
func seedSessions(t *testing.T) string {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	}()

	for _, site := range []string{"nytimes", "wsj"} {
		stats := &model.Statistics{
			Site:             site,
			Seed:             "https://www." + site + ".com/",
			Domain:           site + ".com",
			Workers:          7,
			StartedAt:        time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			FinishedAt:       time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
			FetchAttempts:    2,
			FetchesSucceeded: 2,
			StatusCodes:      map[int]int{200: 2},
			SizeBuckets:      map[model.SizeBucket]int{model.Size1KBTo10KB: 2},
			ContentTypes:     map[string]int{"text/html": 2},
		}
		if _, err := db.SaveStatistics(context.Background(), stats); err != nil {
			t.Fatalf("failed to save statistics: %v", err)
		}
	}

	return dbDir
}

// TestSessionsCmdList tests session listing.
func TestSessionsCmdList(t *testing.T) {
	t.Parallel()

	t.Run("lists saved sessions", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		var buf bytes.Buffer
		cmd := NewSessionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "nytimes") || !strings.Contains(output, "wsj") {
			t.Errorf("expected both sites listed, got %q", output)
		}
	})

	t.Run("filters by site", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		var buf bytes.Buffer
		cmd := NewSessionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--site", "wsj"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "nytimes") {
			t.Errorf("expected only wsj sessions, got %q", output)
		}
		if !strings.Contains(output, "wsj") {
			t.Errorf("expected wsj sessions, got %q", output)
		}
	})

	t.Run("fails without a database", func(t *testing.T) {
		t.Parallel()

		cmd := NewSessionsCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error for a missing database")
		}
	})
}

// TestSessionsCmdShow tests printing one saved session.
func TestSessionsCmdShow(t *testing.T) {
	t.Parallel()

	t.Run("prints the text report", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		var buf bytes.Buffer
		cmd := NewSessionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "1"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Fetch Statistics") {
			t.Errorf("expected a statistics report, got %q", output)
		}
		if !strings.Contains(output, "# fetches attempted: 2") {
			t.Errorf("expected fetch counts, got %q", output)
		}
	})

	t.Run("prints JSON with the json flag", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		var buf bytes.Buffer
		cmd := NewSessionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--json", "1"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), `"fetch_attempts": 2`) {
			t.Errorf("expected JSON statistics, got %q", buf.String())
		}
	})

	t.Run("fails for a missing session", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		cmd := NewSessionsCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"--db-dir", dbDir, "999"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error for a missing session")
		}
	})

	t.Run("fails for a non-numeric session ID", func(t *testing.T) {
		t.Parallel()

		dbDir := seedSessions(t)

		cmd := NewSessionsCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"--db-dir", dbDir, "abc"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error for a bad session ID")
		}
	})
}
