package library

import (
	"context"
	"database/sql"
	"fmt"

	"eris/internal/logging"
	"eris/internal/novel"
)

// Commit is the outcome of a progress commit.
type Commit struct {
	Novel   novel.Novel
	Changes novel.Changes
}

// CommitProgress applies a chapter read to the novel identified by id.
//
// Automatic reads (exact false) are skipped when the chapter title is already
// in the novel's history and otherwise only move progress forward. Manual
// reads replace the stored counters. A content read entry is logged whenever
// any counter is above zero, and a list change entry when the list moved.
func (s *Store) CommitProgress(ctx context.Context, id string, reading novel.Reading, exact bool, policy novel.ReadPolicy) (Commit, error) {
	var result Commit
	err := s.inTx(ctx, "commit progress", func(tx *sql.Tx) error {
		current, err := getNovel(ctx, tx, id)
		if err != nil {
			return err
		}

		if !exact && reading.ChapterTitle != "" {
			seen, err := chapterTitleRecorded(ctx, tx, id, reading.ChapterTitle)
			if err != nil {
				return err
			}
			if seen {
				result = Commit{Novel: current, Changes: novel.Changes{
					Before: current.Read, After: current.Read,
					ListFrom: current.List, ListTo: current.List,
					Reason: "chapter title already recorded",
				}}
				return nil
			}
		}

		updated, changes := novel.ApplyReading(current, reading, exact, policy)
		result = Commit{Novel: updated, Changes: changes}
		if !changes.Applied {
			return nil
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE novels
             SET read_volumes = ?, read_chapters = ?, read_side_stories = ?, list_status = ?, updated_at = ?
             WHERE id = ?`,
			updated.Read.Volumes, updated.Read.Chapters, updated.Read.SideStories,
			updated.List, s.timestamp(), id,
		)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}

		if changes.ListChanged() {
			if err := s.appendHistory(ctx, tx, HistoryItem{
				NovelID: id, NovelTitle: updated.Title, Action: ActionNovelListChange, List: updated.List,
			}); err != nil {
				return err
			}
		}
		if updated.Read.Volumes > 0 || updated.Read.Chapters > 0 || updated.Read.SideStories > 0 {
			read := updated.Read
			if err := s.appendHistory(ctx, tx, HistoryItem{
				NovelID: id, NovelTitle: updated.Title, Action: ActionContentRead,
				Content: &read, ChapterTitle: reading.ChapterTitle,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Commit{}, err
	}

	attrs := logging.NovelAttrs(result.Novel.ID, result.Novel.Title)
	if result.Changes.Applied {
		attrs = append(attrs,
			logging.String("chapter", novel.FormatChapter(result.Novel.Read.Chapters)),
			logging.Int("volume", result.Novel.Read.Volumes),
			logging.Int("side_story", result.Novel.Read.SideStories),
			logging.Bool("exact", exact),
		)
		if result.Changes.ListChanged() {
			attrs = append(attrs, logging.String("list", string(result.Changes.ListTo)))
		}
		s.logger.Info("progress committed", logging.Args(attrs...)...)
	} else {
		attrs = append(attrs, logging.DecisionAttrs("progress_commit", "skipped", result.Changes.Reason)...)
		s.logger.Debug("progress unchanged", logging.Args(attrs...)...)
	}
	return result, nil
}

// MarkStatus sets the publication status of a novel.
func (s *Store) MarkStatus(ctx context.Context, id string, status novel.Status) (*novel.Novel, error) {
	status, err := novel.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, "mark status", func(tx *sql.Tx) error {
		current, err := getNovel(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE novels SET status = ?, updated_at = ? WHERE id = ?`,
			status, s.timestamp(), id,
		); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.appendHistory(ctx, tx, HistoryItem{
			NovelID: id, NovelTitle: current.Title, Action: ActionNovelStatus, Status: status,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Move puts a novel on another reading list.
func (s *Store) Move(ctx context.Context, id string, list novel.ListStatus) (*novel.Novel, error) {
	list, err := novel.ParseListStatus(string(list))
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, "move novel", func(tx *sql.Tx) error {
		current, err := getNovel(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.List == list {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE novels SET list_status = ?, updated_at = ? WHERE id = ?`,
			list, s.timestamp(), id,
		); err != nil {
			return fmt.Errorf("update list: %w", err)
		}
		return s.appendHistory(ctx, tx, HistoryItem{
			NovelID: id, NovelTitle: current.Title, Action: ActionNovelListChange, List: list,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
