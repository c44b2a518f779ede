package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawler/internal/config"
	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/report"
)

// NewSessionsCmd creates the sessions command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List or show saved crawl sessions",
		Long: `Sessions lists crawl sessions saved with 'crawl --save', newest first.
Pass a session ID to print the full statistics report for that session.

Examples:
  # List all saved sessions
  sitecrawler sessions

  # List the sessions for one site
  sitecrawler sessions --site nytimes

  # Show the full report for session 12
  sitecrawler sessions 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionsCmd,
	}

	cmd.Flags().StringP("site", "s", "",
		"Only list sessions for the named site")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the session report as JSON")

	return cmd
}

// runSessionsCmd executes the sessions command.
func runSessionsCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no crawl database found in %s (run 'crawl --save' first): %w", dbDir, err)
	}
	defer db.Close() //nolint:errcheck

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session ID %q", args[0])
		}
		return showSession(cmd, db, id)
	}

	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	return listSessions(cmd, db, site)
}

// listSessions prints the saved sessions, newest first.
func listSessions(cmd *cobra.Command, db *database.CrawlDB, site string) error {
	sessions, err := db.ListSessions(cmd.Context(), site)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No saved sessions.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-10s %-20s %-10s %s\n", "ID", "SITE", "STARTED", "FETCHES", "SUCCEEDED")
	for _, s := range sessions {
		fmt.Fprintf(out, "%-6d %-10s %-20s %-10d %d\n",
			s.ID, s.Site, s.StartedAt.Local().Format(time.DateTime),
			s.FetchAttempts, s.FetchesSucceeded)
	}

	return nil
}

// showSession prints the full report for one saved session.
func showSession(cmd *cobra.Command, db *database.CrawlDB, id int64) error {
	stats, err := db.GetStatistics(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load session %d: %w", id, err)
	}
	if stats == nil {
		return fmt.Errorf("session %d not found", id)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	var w report.Writer
	if asJSON {
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	_, err = w.Write(stats)
	return err
}
