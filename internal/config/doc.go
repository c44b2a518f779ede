// Package config provides configuration structures and utilities for
// sitecrawler. It defines the crawl settings, the site catalog with its
// YAML file format, and report output preferences.
package config
