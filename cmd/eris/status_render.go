package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

var statusKinds = map[statusKind]struct {
	label string
	color string
}{
	statusInfo: {"INFO", "\x1b[34m"},
	statusOK:   {"OK", "\x1b[32m"},
	statusWarn: {"WARN", "\x1b[33m"},
}

const (
	ansiReset        = "\x1b[0m"
	ansiHeader       = "\x1b[1;34m"
	statusLabelWidth = 14
)

// statusLine is one "label: [KIND] detail" row of a status section.
type statusLine struct {
	Label  string
	Kind   statusKind
	Detail string
}

func (l statusLine) render(colorize bool) string {
	kind := statusKinds[l.Kind]
	text := "[" + kind.label + "]"
	if l.Detail != "" {
		text += " " + l.Detail
	}
	row := fmt.Sprintf("  %-*s %s", statusLabelWidth, l.Label+":", text)
	if colorize {
		return kind.color + row + ansiReset
	}
	return row
}

// writeSection prints a titled block of status lines followed by a blank line.
func writeSection(out io.Writer, title string, lines []statusLine, colorize bool) {
	header := "== " + strings.TrimSpace(title) + " =="
	if colorize {
		fmt.Fprintln(out, ansiHeader+header+ansiReset)
	} else {
		fmt.Fprintln(out, header)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line.render(colorize))
	}
	fmt.Fprintln(out)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
