// Package windows lists the titles of open top-level windows.
package windows

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"eris/internal/config"
)

// Lister returns the titles of all open windows in stacking order.
type Lister interface {
	WindowTitles(ctx context.Context) ([]string, error)
}

// Static is a fixed title list.
type Static []string

// WindowTitles returns a copy of the list.
func (s Static) WindowTitles(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// Func adapts a function to the Lister interface.
type Func func(ctx context.Context) ([]string, error)

// WindowTitles calls f.
func (f Func) WindowTitles(ctx context.Context) ([]string, error) {
	return f(ctx)
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// wmctrlLine matches "wmctrl -l" rows: window id, desktop, host, title.
var wmctrlLine = regexp.MustCompile(`^0x[0-9a-fA-F]+\s+-?\d+\s+\S+\s?(.*)$`)

// CommandLister runs an external command and reads one window per output
// line. Rows in wmctrl format are reduced to their title; any other line is
// taken as a title verbatim.
type CommandLister struct {
	command []string
	timeout time.Duration
	run     commandRunner
}

// NewCommandLister builds a lister for command. A zero timeout means no timeout.
func NewCommandLister(command []string, timeout time.Duration) (*CommandLister, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("window command is empty")
	}
	return &CommandLister{
		command: append([]string(nil), command...),
		timeout: timeout,
		run:     defaultCommandRunner,
	}, nil
}

// FromConfig builds the lister configured in cfg.
func FromConfig(cfg *config.Config) (*CommandLister, error) {
	return NewCommandLister(cfg.Windows.Command, cfg.WindowCommandTimeout())
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (l *CommandLister) WithCommandRunner(r commandRunner) {
	if l != nil && r != nil {
		l.run = r
	}
}

// WindowTitles runs the command and parses its output.
func (l *CommandLister) WindowTitles(ctx context.Context) ([]string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	output, err := l.run(ctx, l.command[0], l.command[1:]...)
	if err != nil {
		return nil, fmt.Errorf("list windows with %s: %w", l.command[0], err)
	}
	return ParseTitles(output), nil
}

// ParseTitles splits command output into window titles, skipping blank lines.
func ParseTitles(output []byte) []string {
	var titles []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if m := wmctrlLine.FindStringSubmatch(line); m != nil {
			line = m[1]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		titles = append(titles, line)
	}
	return titles
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return output, nil
}
