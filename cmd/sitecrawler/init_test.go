package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewInitCmd tests the init command.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates configuration file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), configFileName)

		var buf bytes.Buffer
		cmd := NewInitCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected config file to exist: %v", err)
		}
		if !strings.Contains(string(content), "defaults:") {
			t.Error("expected template to contain a defaults section")
		}
		if !strings.Contains(string(content), "sites:") {
			t.Error("expected template to contain a sites section")
		}
		if !strings.Contains(buf.String(), "Created configuration file") {
			t.Error("expected confirmation output")
		}
	})

	t.Run("generated file loads as a catalog", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), configFileName)

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The template must round trip through the loader.
		sitesCmd := NewSitesCmd()
		var out bytes.Buffer
		sitesCmd.SetOut(&out)
		sitesCmd.SetArgs([]string{"-c", path})
		if err := sitesCmd.Execute(); err != nil {
			t.Fatalf("generated template failed to load: %v", err)
		}
		if !strings.Contains(out.String(), "nytimes") {
			t.Error("expected built-in sites in listing")
		}
	})

	t.Run("refuses to overwrite existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), configFileName)
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error for existing file")
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) != "existing" {
			t.Error("expected existing file to be untouched")
		}
	})

	t.Run("overwrites with force flag", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), configFileName)
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path, "-f"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected config file to exist: %v", err)
		}
	})
}
