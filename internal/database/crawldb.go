package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecrawler/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl statistics.
// It manages connection pooling and provides methods for saving and
// querying crawl sessions.
//
// Design decision: We use a single database file for all sites rather
// than one file per site. This allows cross-site session listings and
// simplifies backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are
// created. If false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "sitecrawler.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections buy
	// nothing for this write-heavy workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per completed crawl, with the aggregate statistics
	CREATE TABLE IF NOT EXISTS crawl_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		seed TEXT NOT NULL,
		domain TEXT NOT NULL,
		workers INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		fetch_attempts INTEGER NOT NULL,
		fetches_succeeded INTEGER NOT NULL,
		fetches_failed INTEGER NOT NULL,
		total_extracted INTEGER NOT NULL,
		unique_extracted INTEGER NOT NULL,
		unique_within_site INTEGER NOT NULL,
		unique_outside_site INTEGER NOT NULL,
		status_codes TEXT NOT NULL,
		size_buckets TEXT NOT NULL,
		content_types TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_site ON crawl_sessions(site);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON crawl_sessions(started_at);

	-- One row per fetch attempt
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		error_kind INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_session ON fetches(session_id);

	-- One row per successful visit
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		outlinks INTEGER NOT NULL,
		content_type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_visits_session ON visits(session_id);

	-- One row per extracted URL, duplicates included
	CREATE TABLE IF NOT EXISTS discovered (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		within_site INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_discovered_session ON discovered(session_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveStatistics stores a crawl's statistics as a new session. The
// session row and all per-URL records are written in one transaction,
// so a session is either fully present or absent.
func (cdb *CrawlDB) SaveStatistics(ctx context.Context, stats *model.Statistics) (int64, error) {
	statusJSON, err := json.Marshal(stats.StatusCodes)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize status codes: %w", err)
	}
	bucketsJSON, err := json.Marshal(stats.SizeBuckets)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize size buckets: %w", err)
	}
	typesJSON, err := json.Marshal(stats.ContentTypes)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize content types: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_sessions (
		site, seed, domain, workers, started_at, finished_at,
		fetch_attempts, fetches_succeeded, fetches_failed,
		total_extracted, unique_extracted, unique_within_site, unique_outside_site,
		status_codes, size_buckets, content_types
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.Site,
		stats.Seed,
		stats.Domain,
		stats.Workers,
		stats.StartedAt.UTC().Format(time.RFC3339),
		stats.FinishedAt.UTC().Format(time.RFC3339),
		stats.FetchAttempts,
		stats.FetchesSucceeded,
		stats.FetchesFailed,
		stats.TotalExtracted,
		stats.UniqueExtracted,
		stats.UniqueWithinSite,
		stats.UniqueOutsideSite,
		string(statusJSON),
		string(bucketsJSON),
		string(typesJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session id: %w", err)
	}

	fetchStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fetches (session_id, url, status_code, error_kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fetch insert: %w", err)
	}
	defer fetchStmt.Close()

	for _, f := range stats.Fetches {
		if _, err := fetchStmt.ExecContext(ctx, sessionID, f.URL, f.StatusCode, int(f.Kind)); err != nil {
			return 0, fmt.Errorf("failed to insert fetch record: %w", err)
		}
	}

	visitStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO visits (session_id, url, size_bytes, outlinks, content_type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare visit insert: %w", err)
	}
	defer visitStmt.Close()

	for _, v := range stats.Visits {
		if _, err := visitStmt.ExecContext(ctx, sessionID, v.URL, v.SizeBytes, v.Outlinks, v.ContentType); err != nil {
			return 0, fmt.Errorf("failed to insert visit record: %w", err)
		}
	}

	discoveredStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO discovered (session_id, url, within_site) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare discovered insert: %w", err)
	}
	defer discoveredStmt.Close()

	for _, d := range stats.Discovered {
		within := 0
		if d.WithinSite {
			within = 1
		}
		if _, err := discoveredStmt.ExecContext(ctx, sessionID, d.URL, within); err != nil {
			return 0, fmt.Errorf("failed to insert discovered record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}

	return sessionID, nil
}

// SessionSummary contains summary information about a stored crawl.
// This is used for listing sessions without loading their per-URL
// records.
type SessionSummary struct {
	// ID is the unique identifier of the session in the database.
	ID int64

	// Site is the short site name the crawl targeted.
	Site string

	// Seed is the URL the crawl started from.
	Seed string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// FinishedAt is when the crawl completed.
	FinishedAt time.Time

	// FetchAttempts is the total number of fetch attempts.
	FetchAttempts int

	// FetchesSucceeded is the number of 2xx fetches.
	FetchesSucceeded int
}

// ListSessions returns summaries of stored sessions, newest first.
// If site is non-empty, only that site's sessions are returned.
func (cdb *CrawlDB) ListSessions(ctx context.Context, site string) ([]SessionSummary, error) {
	query := `
	SELECT id, site, seed, started_at, finished_at, fetch_attempts, fetches_succeeded
	FROM crawl_sessions
	`
	args := make([]any, 0, 1)
	if site != "" {
		query += " WHERE site = ?"
		args = append(args, site)
	}
	query += " ORDER BY started_at DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var started, finished string

		if err := rows.Scan(&s.ID, &s.Site, &s.Seed, &started, &finished, &s.FetchAttempts, &s.FetchesSucceeded); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetStatistics reconstructs the full statistics for a stored session,
// including the per-URL records. Returns nil if the session does not
// exist.
func (cdb *CrawlDB) GetStatistics(ctx context.Context, sessionID int64) (*model.Statistics, error) {
	query := `
	SELECT site, seed, domain, workers, started_at, finished_at,
		fetch_attempts, fetches_succeeded, fetches_failed,
		total_extracted, unique_extracted, unique_within_site, unique_outside_site,
		status_codes, size_buckets, content_types
	FROM crawl_sessions
	WHERE id = ?
	`

	stats := &model.Statistics{}
	var started, finished string
	var statusJSON, bucketsJSON, typesJSON string

	err := cdb.db.QueryRowContext(ctx, query, sessionID).Scan(
		&stats.Site,
		&stats.Seed,
		&stats.Domain,
		&stats.Workers,
		&started,
		&finished,
		&stats.FetchAttempts,
		&stats.FetchesSucceeded,
		&stats.FetchesFailed,
		&stats.TotalExtracted,
		&stats.UniqueExtracted,
		&stats.UniqueWithinSite,
		&stats.UniqueOutsideSite,
		&statusJSON,
		&bucketsJSON,
		&typesJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	stats.StartedAt = parseTimestamp(started)
	stats.FinishedAt = parseTimestamp(finished)

	if err := json.Unmarshal([]byte(statusJSON), &stats.StatusCodes); err != nil {
		return nil, fmt.Errorf("failed to parse status codes: %w", err)
	}
	if err := json.Unmarshal([]byte(bucketsJSON), &stats.SizeBuckets); err != nil {
		return nil, fmt.Errorf("failed to parse size buckets: %w", err)
	}
	if err := json.Unmarshal([]byte(typesJSON), &stats.ContentTypes); err != nil {
		return nil, fmt.Errorf("failed to parse content types: %w", err)
	}

	if stats.Fetches, err = cdb.sessionFetches(ctx, sessionID); err != nil {
		return nil, err
	}
	if stats.Visits, err = cdb.sessionVisits(ctx, sessionID); err != nil {
		return nil, err
	}
	if stats.Discovered, err = cdb.sessionDiscovered(ctx, sessionID); err != nil {
		return nil, err
	}

	return stats, nil
}

func (cdb *CrawlDB) sessionFetches(ctx context.Context, sessionID int64) ([]model.FetchRecord, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, status_code, error_kind FROM fetches WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var records []model.FetchRecord
	for rows.Next() {
		var r model.FetchRecord
		var kind int
		if err := rows.Scan(&r.URL, &r.StatusCode, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan fetch record: %w", err)
		}
		r.Kind = model.ErrorKind(kind)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (cdb *CrawlDB) sessionVisits(ctx context.Context, sessionID int64) ([]model.VisitRecord, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, size_bytes, outlinks, content_type FROM visits WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var records []model.VisitRecord
	for rows.Next() {
		var r model.VisitRecord
		if err := rows.Scan(&r.URL, &r.SizeBytes, &r.Outlinks, &r.ContentType); err != nil {
			return nil, fmt.Errorf("failed to scan visit record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (cdb *CrawlDB) sessionDiscovered(ctx context.Context, sessionID int64) ([]model.DiscoveredURL, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, within_site FROM discovered WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovered: %w", err)
	}
	defer rows.Close()

	var records []model.DiscoveredURL
	for rows.Next() {
		var r model.DiscoveredURL
		var within int
		if err := rows.Scan(&r.URL, &within); err != nil {
			return nil, fmt.Errorf("failed to scan discovered record: %w", err)
		}
		r.WithinSite = within != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // how SaveStatistics writes timestamps
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero
// time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
