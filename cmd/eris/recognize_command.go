package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eris/internal/config"
	"eris/internal/daemon"
	"eris/internal/library"
	"eris/internal/novel"
	"eris/internal/windows"
)

type recognizeView struct {
	Selected     string   `json:"selected,omitempty"`
	Keyword      string   `json:"keyword,omitempty"`
	Ignored      string   `json:"ignored,omitempty"`
	Parsed       bool     `json:"parsed"`
	Tokens       []string `json:"tokens,omitempty"`
	Site         string   `json:"site,omitempty"`
	NovelName    string   `json:"novel_name,omitempty"`
	Source       string   `json:"source,omitempty"`
	Reading      bool     `json:"reading"`
	Volume       int      `json:"volume,omitempty"`
	Chapter      float64  `json:"chapter,omitempty"`
	SideStory    int      `json:"side_story,omitempty"`
	ChapterTitle string   `json:"chapter_title,omitempty"`
	Match        string   `json:"match"`
	NovelID      string   `json:"novel_id,omitempty"`
	NovelTitle   string   `json:"novel_title,omitempty"`
	Similarity   float64  `json:"similarity,omitempty"`
}

func newRecognizeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "recognize [window-title...]",
		Short: "Dry-run recognition against the library",
		Long: "Runs keyword selection, title parsing and library matching once and prints the result.\n" +
			"With no arguments the configured window command is queried. Nothing is recorded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				titles := args
				if len(titles) == 0 {
					lister, err := windows.FromConfig(cfg)
					if err != nil {
						return err
					}
					titles, err = lister.WindowTitles(cmd.Context())
					if err != nil {
						return err
					}
				}
				novels, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				view := buildRecognizeView(daemon.Recognize(cfg.RecognitionSettings(), novels, titles, nil))
				if jsonOut {
					return writeJSON(cmd, view)
				}
				renderRecognizeView(cmd, view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func buildRecognizeView(r daemon.Recognition) recognizeView {
	view := recognizeView{
		Selected: r.Selection.Title,
		Keyword:  r.Selection.Keyword,
		Ignored:  r.Selection.Ignored,
		Parsed:   r.Parsed,
		Match:    r.Match.Kind.String(),
	}
	if !r.Parsed {
		return view
	}
	view.Tokens = r.Title.Tokens
	view.Site = r.Title.Site.String()
	view.NovelName = r.Title.NovelName
	view.Source = r.Title.Data.Source
	view.Reading = r.Title.Data.Reading
	view.Volume = r.Title.Data.Volume
	view.Chapter = r.Title.Data.Chapter
	view.SideStory = r.Title.Data.SideStory
	view.ChapterTitle = r.Title.Data.ChapterTitle
	if r.Match.Found() {
		view.NovelID = r.Match.Novel.ID
		view.NovelTitle = r.Match.Novel.Title
		view.Similarity = r.Match.Similarity
	}
	return view
}

func renderRecognizeView(cmd *cobra.Command, view recognizeView) {
	out := cmd.OutOrStdout()
	switch {
	case view.Ignored != "":
		fmt.Fprintf(out, "Scan aborted by ignore keyword %q\n", view.Ignored)
		return
	case view.Selected == "":
		fmt.Fprintln(out, "No window title matched the title keywords")
		return
	case !view.Parsed:
		fmt.Fprintf(out, "Selected %q but it has no \"a - b\" shape\n", view.Selected)
		return
	}

	rows := [][]string{
		{"Selected", view.Selected},
		{"Keyword", view.Keyword},
		{"Tokens", strings.Join(view.Tokens, " | ")},
		{"Site", view.Site},
		{"Novel name", view.NovelName},
		{"Source", view.Source},
		{"Reading", yesNo(view.Reading)},
	}
	if view.Reading {
		rows = append(rows,
			[]string{"Volume", strconv.Itoa(view.Volume)},
			[]string{"Chapter", novel.FormatChapter(view.Chapter)},
			[]string{"Side story", strconv.Itoa(view.SideStory)},
			[]string{"Chapter title", view.ChapterTitle},
		)
	}
	rows = append(rows, []string{"Match", view.Match})
	if view.NovelID != "" {
		rows = append(rows,
			[]string{"Novel", fmt.Sprintf("%s (%s)", view.NovelTitle, view.NovelID)},
			[]string{"Similarity", fmt.Sprintf("%.0f%%", view.Similarity*100)},
		)
	}
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
}
