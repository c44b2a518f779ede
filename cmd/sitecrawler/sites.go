package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawler/internal/config"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the sites available to crawl",
		Long: `Sites lists the names recognized by the crawl command: the built-in
catalog of news sites plus any sites defined in a .sitecrawler
configuration file. Catalog entries from the file shadow built-in
sites with the same name.`,
		RunE: runSitesCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawler in current or home directory)")

	return cmd
}

// runSitesCmd executes the sites command.
func runSitesCmd(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.ConfigFilePath = configPath

	if found := config.FindConfigFile(configPath); found != "" {
		cfg.Catalog, err = config.LoadConfigFile(found)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", found, err)
		}
	} else if configPath != "" {
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Built-in sites:")
	for _, name := range config.BuiltinSiteNames() {
		site, err := cfg.ResolveSite(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  %-10s %s\n", name, site.Seed)
	}

	if cfg.Catalog != nil && len(cfg.Catalog.Sites) > 0 {
		fmt.Fprintln(out, "\nConfigured sites:")
		for _, name := range catalogSiteNames(cfg.Catalog) {
			site, err := cfg.ResolveSite(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "  %-10s %s\n", name, site.Seed)
		}
	}

	return nil
}

// catalogSiteNames returns the config file site names, sorted.
func catalogSiteNames(catalog *config.File) []string {
	names := make([]string, 0, len(catalog.Sites))
	for name := range catalog.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
