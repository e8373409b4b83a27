package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"eris/internal/daemonctl"
	"eris/internal/deps"
	"eris/internal/display"
	"eris/internal/ipc"
	"eris/internal/novel"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon and what is being read",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := display.ReadStatus(cfg.Paths.StatusFile)
			missing := errors.Is(err, fs.ErrNotExist)
			if err != nil && !missing {
				return fmt.Errorf("read status file: %w", err)
			}
			state, err := daemonctl.Status(cfg)
			if err != nil {
				return err
			}
			dependencies := deps.Check(deps.Requirements(cfg))
			var live *ipc.StatusResponse
			if state.Running {
				live = queryDaemon(cmd.Context(), cfg.Paths.SocketPath)
			}

			if jsonOut {
				payload := struct {
					Running      bool                `json:"running"`
					PID          int                 `json:"pid,omitempty"`
					Recognition  *ipc.StatusResponse `json:"recognition,omitempty"`
					Snapshot     *display.Snapshot   `json:"snapshot,omitempty"`
					Dependencies []deps.Status       `json:"dependencies"`
				}{Running: state.Running, PID: state.PID, Recognition: live, Dependencies: dependencies}
				if !missing {
					payload.Snapshot = &snap
				}
				return writeJSON(cmd, payload)
			}

			daemonLines := []statusLine{{Label: "Process", Kind: statusWarn, Detail: "not running"}}
			if state.Running {
				daemonLines[0] = statusLine{Label: "Process", Kind: statusOK, Detail: "pid " + strconv.Itoa(state.PID)}
			}
			if state.Running {
				daemonLines = append(daemonLines, recognitionLine(live))
			}
			daemonLines = append(daemonLines, statusLine{Label: "Library", Kind: statusInfo, Detail: cfg.Paths.LibraryPath})
			for _, dep := range dependencies {
				daemonLines = append(daemonLines, dependencyLine(dep))
			}

			readingSection := []statusLine{{Label: "Status file", Kind: statusWarn, Detail: "not written yet"}}
			if !missing {
				readingSection = readingLines(snap)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeSection(out, "Daemon", daemonLines, colorize)
			writeSection(out, "Reading", readingSection, colorize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// queryDaemon asks the running daemon for its live state. Nil means the
// socket did not answer.
func queryDaemon(ctx context.Context, socket string) *ipc.StatusResponse {
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil
	}
	defer client.Close()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := client.Status(ctx)
	if err != nil {
		return nil
	}
	return resp
}

func recognitionLine(live *ipc.StatusResponse) statusLine {
	switch {
	case live == nil:
		return statusLine{Label: "Recognition", Kind: statusWarn, Detail: "daemon socket not answering"}
	case !live.Enabled:
		return statusLine{Label: "Recognition", Kind: statusWarn, Detail: "paused"}
	case live.Candidate != "":
		return statusLine{Label: "Recognition", Kind: statusOK, Detail: fmt.Sprintf("%s (%s)", live.Phase, live.Candidate)}
	default:
		return statusLine{Label: "Recognition", Kind: statusOK, Detail: string(live.Phase)}
	}
}

func dependencyLine(dep deps.Status) statusLine {
	switch {
	case dep.Available:
		return statusLine{Label: dep.Name, Kind: statusOK, Detail: dep.Path}
	case dep.Optional:
		return statusLine{Label: dep.Name, Kind: statusInfo, Detail: dep.Detail + " (optional)"}
	default:
		return statusLine{Label: dep.Name, Kind: statusWarn, Detail: dep.Detail}
	}
}

func readingLines(snap display.Snapshot) []statusLine {
	var lines []statusLine
	now := snap.ReadingNow
	switch {
	case snap.View != display.ViewReading || now == nil:
		lines = append(lines, statusLine{Label: "Now", Kind: statusInfo, Detail: "not reading"})
	case now.Matched():
		lines = append(lines,
			statusLine{Label: "Now", Kind: statusOK, Detail: now.Novel.Title},
			statusLine{Label: "Chapter", Kind: statusInfo, Detail: describeReading(*now)},
			statusLine{Label: "Recorded", Kind: statusInfo, Detail: formatContent(now.Novel.Read)},
		)
	default:
		lines = append(lines, statusLine{Label: "Now", Kind: statusWarn, Detail: "unrecognized: " + now.NovelName})
		if now.Source != "" {
			lines = append(lines, statusLine{Label: "Source", Kind: statusInfo, Detail: now.Source})
		}
	}
	if len(snap.Suggestions) > 0 {
		titles := make([]string, 0, len(snap.Suggestions))
		for _, s := range snap.Suggestions {
			titles = append(titles, s.Title)
		}
		detail := fmt.Sprintf("%q matches %s", snap.SuggestionKeyword, strings.Join(titles, ", "))
		lines = append(lines, statusLine{Label: "Suggestions", Kind: statusInfo, Detail: detail})
	}
	if !snap.UpdatedAt.IsZero() {
		lines = append(lines, statusLine{Label: "Updated", Kind: statusInfo, Detail: snap.UpdatedAt.Local().Format(time.DateTime)})
	}
	return lines
}

func describeReading(r display.ReadingNow) string {
	text := formatContent(novel.Content{Volumes: r.Volume, Chapters: r.Chapter, SideStories: r.SideStory})
	if r.ChapterTitle != "" {
		text += " (" + r.ChapterTitle + ")"
	}
	return text
}
