package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testStatistics builds a small but fully-populated statistics value.
func testStatistics() *model.Statistics {
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return &model.Statistics{
		Site:              "nytimes",
		Seed:              "https://www.nytimes.com/",
		Domain:            "www.nytimes.com",
		Workers:           7,
		StartedAt:         started,
		FinishedAt:        started.Add(42 * time.Minute),
		FetchAttempts:     3,
		FetchesSucceeded:  2,
		FetchesFailed:     1,
		TotalExtracted:    4,
		UniqueExtracted:   3,
		UniqueWithinSite:  2,
		UniqueOutsideSite: 1,
		StatusCodes:       map[int]int{200: 2, 408: 1},
		SizeBuckets:       map[model.SizeBucket]int{model.Size1KBTo10KB: 2},
		ContentTypes:      map[string]int{"text/html": 2},
		Fetches: []model.FetchRecord{
			{URL: "https://www.nytimes.com/", StatusCode: 200, Kind: model.ErrorNone},
			{URL: "https://www.nytimes.com/world", StatusCode: 200, Kind: model.ErrorNone},
			{URL: "https://www.nytimes.com/slow", StatusCode: 408, Kind: model.ErrorTimeout},
		},
		Visits: []model.VisitRecord{
			{URL: "https://www.nytimes.com/", SizeBytes: 2048, Outlinks: 3, ContentType: "text/html"},
			{URL: "https://www.nytimes.com/world", SizeBytes: 4096, Outlinks: 1, ContentType: "text/html"},
		},
		Discovered: []model.DiscoveredURL{
			{URL: "https://www.nytimes.com/world", WithinSite: true},
			{URL: "https://www.nytimes.com/slow", WithinSite: true},
			{URL: "https://example.com/x", WithinSite: false},
			{URL: "https://www.nytimes.com/world", WithinSite: true},
		},
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "sitecrawler.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false fails on missing database", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database, got nil")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		opts := Options{CreateIfNotExists: false, EnableWAL: false}
		db2, err := Open(dbDir, opts)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db2.Close()
	})
}

// TestSaveStatistics tests the round trip through SaveStatistics and
// GetStatistics.
func TestSaveStatistics(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	want := testStatistics()
	sessionID, err := db.SaveStatistics(ctx, want)
	if err != nil {
		t.Fatalf("SaveStatistics() error = %v", err)
	}
	if sessionID == 0 {
		t.Fatal("SaveStatistics() returned zero session id")
	}

	got, err := db.GetStatistics(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetStatistics() returned nil for a stored session")
	}

	if got.Site != want.Site {
		t.Errorf("Site = %q, want %q", got.Site, want.Site)
	}
	if got.Seed != want.Seed {
		t.Errorf("Seed = %q, want %q", got.Seed, want.Seed)
	}
	if got.FetchAttempts != want.FetchAttempts {
		t.Errorf("FetchAttempts = %d, want %d", got.FetchAttempts, want.FetchAttempts)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, want.StartedAt)
	}
	if !got.FinishedAt.Equal(want.FinishedAt) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, want.FinishedAt)
	}

	if got.StatusCodes[200] != 2 || got.StatusCodes[408] != 1 {
		t.Errorf("StatusCodes = %v", got.StatusCodes)
	}
	if got.SizeBuckets[model.Size1KBTo10KB] != 2 {
		t.Errorf("SizeBuckets = %v", got.SizeBuckets)
	}
	if got.ContentTypes["text/html"] != 2 {
		t.Errorf("ContentTypes = %v", got.ContentTypes)
	}

	if len(got.Fetches) != len(want.Fetches) {
		t.Fatalf("len(Fetches) = %d, want %d", len(got.Fetches), len(want.Fetches))
	}
	if got.Fetches[2].Kind != model.ErrorTimeout {
		t.Errorf("Fetches[2].Kind = %v, want ErrorTimeout", got.Fetches[2].Kind)
	}
	if len(got.Visits) != len(want.Visits) {
		t.Fatalf("len(Visits) = %d, want %d", len(got.Visits), len(want.Visits))
	}
	if got.Visits[0].SizeBytes != 2048 {
		t.Errorf("Visits[0].SizeBytes = %d, want 2048", got.Visits[0].SizeBytes)
	}
	if len(got.Discovered) != len(want.Discovered) {
		t.Fatalf("len(Discovered) = %d, want %d", len(got.Discovered), len(want.Discovered))
	}
	if got.Discovered[2].WithinSite {
		t.Error("Discovered[2].WithinSite = true, want false")
	}
}

// TestGetStatisticsMissing tests the nil return for unknown sessions.
func TestGetStatisticsMissing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	got, err := db.GetStatistics(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetStatistics() = %+v, want nil for unknown session", got)
	}
}

// TestListSessions tests session listing and the site filter.
func TestListSessions(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	first := testStatistics()
	if _, err := db.SaveStatistics(ctx, first); err != nil {
		t.Fatalf("SaveStatistics() error = %v", err)
	}

	second := testStatistics()
	second.Site = "wsj"
	second.Seed = "https://www.wsj.com/"
	second.StartedAt = first.StartedAt.Add(time.Hour)
	second.FinishedAt = first.FinishedAt.Add(time.Hour)
	if _, err := db.SaveStatistics(ctx, second); err != nil {
		t.Fatalf("SaveStatistics() error = %v", err)
	}

	t.Run("all sessions newest first", func(t *testing.T) {
		sessions, err := db.ListSessions(ctx, "")
		if err != nil {
			t.Fatalf("ListSessions() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("len(sessions) = %d, want 2", len(sessions))
		}
		if sessions[0].Site != "wsj" {
			t.Errorf("sessions[0].Site = %q, want the newer 'wsj'", sessions[0].Site)
		}
		if sessions[0].FetchAttempts != 3 {
			t.Errorf("sessions[0].FetchAttempts = %d, want 3", sessions[0].FetchAttempts)
		}
	})

	t.Run("filtered by site", func(t *testing.T) {
		sessions, err := db.ListSessions(ctx, "nytimes")
		if err != nil {
			t.Fatalf("ListSessions() error = %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("len(sessions) = %d, want 1", len(sessions))
		}
		if sessions[0].Site != "nytimes" {
			t.Errorf("sessions[0].Site = %q, want 'nytimes'", sessions[0].Site)
		}
	})

	t.Run("unknown site returns empty", func(t *testing.T) {
		sessions, err := db.ListSessions(ctx, "nosuchsite")
		if err != nil {
			t.Fatalf("ListSessions() error = %v", err)
		}
		if len(sessions) != 0 {
			t.Errorf("len(sessions) = %d, want 0", len(sessions))
		}
	})
}

// TestParseTimestamp tests the multi-format timestamp parser.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "RFC3339",
			input: "2026-08-20T10:00:00Z",
			want:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "SQLite default",
			input: "2026-08-20 10:00:00",
			want:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "garbage returns zero time",
			input: "not a timestamp",
			want:  time.Time{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
