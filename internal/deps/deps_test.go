package deps

import (
	"os"
	"path/filepath"
	"testing"

	"eris/internal/config"
)

func TestCheck(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := Check([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Optional: true},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail: %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing should skip optional entries, got %#v", missing)
	}
}

func TestRequirements(t *testing.T) {
	cfg := config.Default()
	cfg.Windows.Command = []string{" wmctrl ", "-l"}
	cfg.Recognition.Enabled = true

	reqs := Requirements(&cfg)
	if len(reqs) != 1 || reqs[0].Command != "wmctrl" || reqs[0].Optional {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}

	cfg.Recognition.Enabled = false
	if reqs := Requirements(&cfg); !reqs[0].Optional {
		t.Fatal("window command should be optional while recognition is disabled")
	}
}
