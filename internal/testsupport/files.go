package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StubWindowCommand writes an executable under dir that prints one wmctrl -l
// style line per title and returns its path.
func StubWindowCommand(t testing.TB, dir string, titles ...string) string {
	t.Helper()

	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	for i, title := range titles {
		line := fmt.Sprintf("0x%08x  0 host %s", 0x04000001+i, title)
		fmt.Fprintf(&script, "printf '%%s\\n' '%s'\n", strings.ReplaceAll(line, "'", `'\''`))
	}
	target := filepath.Join(binDir, "wmctrl-stub")
	if err := os.WriteFile(target, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", target, err)
	}
	return target
}
