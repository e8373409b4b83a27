package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eris/internal/config"
	"eris/internal/library"
	"eris/internal/novel"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Inspect and edit the novel library",
	}

	libraryCmd.AddCommand(newLibraryAddCommand(ctx))
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryKeywordCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatusCommand(ctx))
	libraryCmd.AddCommand(newLibraryMoveCommand(ctx))
	libraryCmd.AddCommand(newLibraryReadCommand(ctx))
	libraryCmd.AddCommand(newLibraryHistoryCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))

	return libraryCmd
}

func newLibraryAddCommand(ctx *commandContext) *cobra.Command {
	var (
		keywords    []string
		statusFlag  string
		listFlag    string
		volumes     int
		chapters    float64
		sideStories int
		source      string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a novel to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := novel.Novel{
				Title:     args[0],
				Keywords:  keywords,
				Available: novel.Content{Volumes: volumes, Chapters: chapters, SideStories: sideStories},
				Source:    source,
			}
			if statusFlag != "" {
				status, err := novel.ParseStatus(statusFlag)
				if err != nil {
					return err
				}
				n.Status = status
			}
			if listFlag != "" {
				list, err := novel.ParseListStatus(listFlag)
				if err != nil {
					return err
				}
				n.List = list
			}
			return ctx.withEditor(func(_ *library.Store, editor libraryEditor) error {
				added, err := editor.AddNovel(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Title, added.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "Recognition keyword (repeatable)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Publication status (ongoing, completed, hiatus, ...)")
	cmd.Flags().StringVar(&listFlag, "list", "", "Reading list (reading, plan_to_read, on_hold, completed, dropped)")
	cmd.Flags().IntVar(&volumes, "volumes", 0, "Available volumes")
	cmd.Flags().Float64Var(&chapters, "chapters", 0, "Available chapters")
	cmd.Flags().IntVar(&sideStories, "side-stories", 0, "Available side stories")
	cmd.Flags().StringVar(&source, "source", "", "Where the novel is read")
	return cmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var listFlags []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List novels, optionally filtered by reading list",
		RunE: func(cmd *cobra.Command, args []string) error {
			lists := make([]novel.ListStatus, 0, len(listFlags))
			for _, raw := range listFlags {
				list, err := novel.ParseListStatus(raw)
				if err != nil {
					return err
				}
				lists = append(lists, list)
			}
			return ctx.withStore(func(_ *config.Config, store *library.Store) error {
				novels, err := store.List(cmd.Context(), lists...)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, novels)
				}
				out := cmd.OutOrStdout()
				if len(novels) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(novels))
				for _, n := range novels {
					rows = append(rows, []string{
						n.Title,
						string(n.List),
						string(n.Status),
						formatContent(n.Read),
						formatContent(n.Available),
						shortID(n.ID),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Title", "List", "Status", "Read", "Available", "ID"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&listFlags, "list", "l", nil, "Only show these reading lists")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id|title|keyword>",
		Short: "Show one novel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *library.Store) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, n)
				}
				out := cmd.OutOrStdout()
				rows := [][]string{
					{"ID", n.ID},
					{"Title", n.Title},
					{"Keywords", strings.Join(n.Keywords, ", ")},
					{"Status", string(n.Status)},
					{"List", string(n.List)},
					{"Read", formatContent(n.Read)},
					{"Available", formatContent(n.Available)},
					{"Source", n.Source},
				}
				fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newLibraryKeywordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keyword <id|title> <keyword>",
		Short: "Add a recognition keyword to a novel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEditor(func(store *library.Store, editor libraryEditor) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := editor.AddKeyword(cmd.Context(), n.ID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s keywords: %s\n", updated.Title, strings.Join(updated.Keywords, ", "))
				return nil
			})
		},
	}
}

func newLibraryStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id|title> <status>",
		Short: "Set a novel's publication status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := novel.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return ctx.withEditor(func(store *library.Store, editor libraryEditor) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := editor.MarkStatus(cmd.Context(), n.ID, status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Title, updated.Status)
				return nil
			})
		},
	}
}

func newLibraryMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id|title> <list>",
		Short: "Move a novel to another reading list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := novel.ParseListStatus(args[1])
			if err != nil {
				return err
			}
			return ctx.withEditor(func(store *library.Store, editor libraryEditor) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := editor.Move(cmd.Context(), n.ID, list)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s moved to %s\n", updated.Title, updated.List)
				return nil
			})
		},
	}
}

func newLibraryReadCommand(ctx *commandContext) *cobra.Command {
	var (
		volume    int
		chapter   float64
		sideStory int
	)

	cmd := &cobra.Command{
		Use:   "read <id|title>",
		Short: "Set recorded progress exactly",
		Long:  "Replaces the stored volume, chapter and side story counters. Unlike automatic recognition this can move progress backwards.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEditor(func(store *library.Store, editor libraryEditor) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				commit, err := editor.ChapterRead(cmd.Context(), n.ID,
					novel.Reading{Volume: volume, Chapter: chapter, SideStory: sideStory})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s\n", commit.Novel.Title, formatContent(commit.Novel.Read))
				if commit.Changes.ListChanged() {
					fmt.Fprintf(out, "List: %s -> %s\n", commit.Changes.ListFrom, commit.Changes.ListTo)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&volume, "volume", 0, "Volumes read")
	cmd.Flags().Float64Var(&chapter, "chapter", 0, "Chapters read")
	cmd.Flags().IntVar(&sideStory, "side-story", 0, "Side stories read")
	return cmd
}

func newLibraryHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history [id|title]",
		Short: "Show the reading log, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *library.Store) error {
				var id string
				if len(args) == 1 {
					n, err := resolveNovel(cmd.Context(), store, args[0])
					if err != nil {
						return err
					}
					id = n.ID
				}
				items, err := store.History(cmd.Context(), id, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No history")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.CreatedAt.Local().Format("2006-01-02 15:04"),
						item.NovelTitle,
						string(item.Action),
						historyDetail(item),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"When", "Novel", "Action", "Detail"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|title>",
		Aliases: []string{"rm"},
		Short:   "Remove a novel from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEditor(func(store *library.Store, editor libraryEditor) error {
				n, err := resolveNovel(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := editor.Remove(cmd.Context(), n.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", n.Title)
				return nil
			})
		},
	}
}

// resolveNovel accepts an id, an exact title or a recognition keyword.
func resolveNovel(ctx context.Context, store *library.Store, ref string) (*novel.Novel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("novel id or title is required")
	}
	lookups := []func(context.Context, string) (*novel.Novel, error){
		store.Get,
		store.FindByTitle,
		store.FindByKeyword,
	}
	for _, lookup := range lookups {
		n, err := lookup(ctx, ref)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, library.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", library.ErrNotFound, ref)
}

func historyDetail(item library.HistoryItem) string {
	switch item.Action {
	case library.ActionContentRead:
		if item.Content == nil {
			return ""
		}
		detail := formatContent(*item.Content)
		if item.ChapterTitle != "" {
			detail += " (" + item.ChapterTitle + ")"
		}
		return detail
	case library.ActionNovelListChange:
		return string(item.List)
	case library.ActionNovelStatus:
		return string(item.Status)
	default:
		return ""
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
