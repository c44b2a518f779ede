package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSitesCmd tests the sites listing command.
func TestSitesCmd(t *testing.T) {
	t.Run("lists the built-in catalog", func(t *testing.T) {
		chdirT(t, t.TempDir())

		var buf bytes.Buffer
		cmd := NewSitesCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs(nil)

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, name := range []string{"nytimes", "wsj", "foxnews", "usatoday", "latimes"} {
			if !strings.Contains(output, name) {
				t.Errorf("expected %q in listing, got %q", name, output)
			}
		}
		if !strings.Contains(output, "https://www.nytimes.com") {
			t.Error("expected seed URLs in listing")
		}
	})

	t.Run("lists configured sites", func(t *testing.T) {
		dir := t.TempDir()
		chdirT(t, dir)

		content := "sites:\n  mysite:\n    seed: https://www.example.com/\n"
		path := filepath.Join(dir, configFileName)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		var buf bytes.Buffer
		cmd := NewSitesCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs(nil)

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Configured sites:") {
			t.Errorf("expected configured section, got %q", output)
		}
		if !strings.Contains(output, "mysite") || !strings.Contains(output, "https://www.example.com/") {
			t.Errorf("expected configured site in listing, got %q", output)
		}
	})

	t.Run("fails for a missing explicit config", func(t *testing.T) {
		chdirT(t, t.TempDir())

		cmd := NewSitesCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"-c", "no-such-file.yaml"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error for a missing config file")
		}
	})
}
