package config

import (
	"net/url"
	"sort"
	"strings"
)

// Site holds per-site crawl settings. Zero-valued fields fall back to
// the catalog defaults and then to the global configuration.
type Site struct {
	// Seed is the absolute URL the crawl starts from.
	Seed string `yaml:"seed,omitempty"`

	// Domain overrides the site boundary. If empty, the boundary is
	// derived from the seed URL's host.
	Domain string `yaml:"domain,omitempty"`

	// IncludeSubdomains widens the boundary to subdomains of Domain.
	IncludeSubdomains bool `yaml:"includeSubdomains,omitempty"`

	// MaxPages overrides the global page cap for this site.
	MaxPages int `yaml:"maxPages,omitempty"`

	// MaxDepth overrides the global depth limit for this site.
	// Zero inherits the catalog default.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// Workers overrides the global worker count for this site.
	Workers int `yaml:"workers,omitempty"`

	// Delay overrides the global politeness delay for this site.
	Delay Duration `yaml:"delay,omitempty"`
}

// File represents the structure of the .sitecrawler configuration file.
type File struct {
	// Sites maps site names to their configurations. Names from the
	// file shadow built-in catalog entries with the same name.
	Sites map[string]Site `yaml:"sites,omitempty"`

	// Defaults contains site settings applied to every site unless
	// overridden in the site-specific configuration.
	Defaults Site `yaml:"defaults,omitempty"`
}

// builtinSites is the catalog of well-known news sites the tool can
// crawl by name alone.
var builtinSites = map[string]Site{
	"nytimes":  {Seed: "https://www.nytimes.com"},
	"wsj":      {Seed: "https://www.wsj.com"},
	"foxnews":  {Seed: "https://www.foxnews.com"},
	"usatoday": {Seed: "https://www.usatoday.com"},
	"latimes":  {Seed: "https://www.latimes.com"},
}

// BuiltinSiteNames returns the names in the built-in catalog, sorted.
func BuiltinSiteNames() []string {
	names := make([]string, 0, len(builtinSites))
	for name := range builtinSites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvedSite is a site with its name attached, ready to crawl.
type ResolvedSite struct {
	// Name is the short site name used in output file names and in
	// the statistics. For ad-hoc URL sites it is derived from the
	// host.
	Name string

	// Site holds the merged per-site settings.
	Site
}

// ResolveSite maps a CLI site argument to a crawlable site. The
// argument is looked up in the configuration file first, then in the
// built-in catalog; anything else must parse as an absolute http(s)
// URL and becomes an ad-hoc site named after its host.
func (c *Config) ResolveSite(arg string) (ResolvedSite, error) {
	if c.Catalog != nil {
		if site, ok := c.Catalog.Sites[arg]; ok {
			return ResolvedSite{Name: arg, Site: c.Catalog.merge(site)}, nil
		}
	}

	if site, ok := builtinSites[arg]; ok {
		if c.Catalog != nil {
			site = c.Catalog.merge(site)
		}
		return ResolvedSite{Name: arg, Site: site}, nil
	}

	u, err := url.Parse(arg)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ResolvedSite{}, ErrUnknownSite
	}

	site := Site{Seed: arg}
	if c.Catalog != nil {
		site = c.Catalog.merge(site)
	}
	return ResolvedSite{Name: siteNameFromHost(u.Hostname()), Site: site}, nil
}

// merge fills a site's unset fields from the file's defaults.
func (cf *File) merge(site Site) Site {
	if site.Seed == "" {
		site.Seed = cf.Defaults.Seed
	}
	if site.Domain == "" {
		site.Domain = cf.Defaults.Domain
	}
	if !site.IncludeSubdomains {
		site.IncludeSubdomains = cf.Defaults.IncludeSubdomains
	}
	if site.MaxPages == 0 {
		site.MaxPages = cf.Defaults.MaxPages
	}
	if site.MaxDepth == 0 {
		site.MaxDepth = cf.Defaults.MaxDepth
	}
	if site.Workers == 0 {
		site.Workers = cf.Defaults.Workers
	}
	if site.Delay.IsZero() {
		site.Delay = cf.Defaults.Delay
	}
	return site
}

// siteNameFromHost derives a short site name from a host, for ad-hoc
// URL sites: "www.example.com" becomes "example.com". The name only
// feeds output file names, so it stays close to the host.
func siteNameFromHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
