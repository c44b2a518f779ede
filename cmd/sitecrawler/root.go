// Package main provides the entry point for the sitecrawler CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitecrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawler",
		Short: "Polite, bounded web crawler for news sites",
		Long: `sitecrawler crawls a site from a seed URL with a fixed worker pool,
honoring robots.txt and a per-worker politeness delay. It records every
fetch, visit, and discovered URL, and summarizes the crawl as reports,
CSV logs, and database sessions.

Sites can be named from the built-in catalog (nytimes, wsj, foxnews,
usatoday, latimes), from a .sitecrawler configuration file, or given
directly as a seed URL.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
