// Package deps reports whether the external programs eris shells out to are
// installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"eris/internal/config"
)

// Requirement names an external program.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the availability of one Requirement.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Requirements lists the programs cfg depends on. Only the window command is
// needed today; without it no window titles are ever seen.
func Requirements(cfg *config.Config) []Requirement {
	req := Requirement{
		Name:        "Window command",
		Description: "Lists open window titles for recognition",
		Optional:    cfg != nil && !cfg.Recognition.Enabled,
	}
	if cfg != nil && len(cfg.Windows.Command) > 0 {
		req.Command = strings.TrimSpace(cfg.Windows.Command[0])
	}
	return []Requirement{req}
}

// Check resolves each requirement on PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch path, err := lookPath(req.Command); {
		case req.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		default:
			status.Available = true
			status.Path = path
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required entries that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
