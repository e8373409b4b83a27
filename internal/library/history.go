package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eris/internal/novel"
)

// Action names a history entry kind.
type Action string

const (
	ActionNovelAdd        Action = "novel_add"
	ActionNovelDelete     Action = "novel_delete"
	ActionNovelUpdate     Action = "novel_update"
	ActionNovelListChange Action = "novel_list_change"
	ActionNovelStatus     Action = "novel_status"
	ActionContentRead     Action = "content_read"
)

// HistoryItem is one entry of the reading log. Content is set for content
// reads, List for list moves and Status for status changes.
type HistoryItem struct {
	ID           int64
	NovelID      string
	NovelTitle   string
	Action       Action
	Content      *novel.Content
	List         novel.ListStatus
	Status       novel.Status
	ChapterTitle string
	CreatedAt    time.Time
}

// History returns the newest entries first. An empty novelID returns entries
// for every novel. A limit of zero or less means no limit.
func (s *Store) History(ctx context.Context, novelID string, limit int) ([]HistoryItem, error) {
	query := `SELECT id, novel_id, novel_title, action, volumes, chapters, side_stories,
                     list_status, status, chapter_title, created_at
              FROM history`
	var args []any
	if novelID != "" {
		query += ` WHERE novel_id = ?`
		args = append(args, novelID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		item, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return items, nil
}

func scanHistory(scanner rowScanner) (HistoryItem, error) {
	var (
		item         HistoryItem
		action       string
		volumes      sql.NullInt64
		chapters     sql.NullFloat64
		sideStories  sql.NullInt64
		listStatus   sql.NullString
		status       sql.NullString
		chapterTitle sql.NullString
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(
		&item.ID,
		&item.NovelID,
		&item.NovelTitle,
		&action,
		&volumes,
		&chapters,
		&sideStories,
		&listStatus,
		&status,
		&chapterTitle,
		&createdRaw,
	); err != nil {
		return HistoryItem{}, err
	}
	item.Action = Action(action)
	if volumes.Valid || chapters.Valid || sideStories.Valid {
		item.Content = &novel.Content{
			Volumes:     int(volumes.Int64),
			Chapters:    chapters.Float64,
			SideStories: int(sideStories.Int64),
		}
	}
	item.List = novel.ListStatus(listStatus.String)
	item.Status = novel.Status(status.String)
	item.ChapterTitle = chapterTitle.String
	item.CreatedAt = parseTime(createdRaw)
	return item, nil
}

func (s *Store) appendHistory(ctx context.Context, tx *sql.Tx, item HistoryItem) error {
	var volumes, sideStories sql.NullInt64
	var chapters sql.NullFloat64
	if item.Content != nil {
		volumes = sql.NullInt64{Int64: int64(item.Content.Volumes), Valid: true}
		chapters = sql.NullFloat64{Float64: item.Content.Chapters, Valid: true}
		sideStories = sql.NullInt64{Int64: int64(item.Content.SideStories), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (novel_id, novel_title, action, volumes, chapters, side_stories,
                               list_status, status, chapter_title, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.NovelID,
		item.NovelTitle,
		item.Action,
		volumes,
		chapters,
		sideStories,
		nullableString(string(item.List)),
		nullableString(string(item.Status)),
		nullableString(item.ChapterTitle),
		s.timestamp(),
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// chapterTitleRecorded reports whether a content read with chapterTitle
// already exists for the novel.
func chapterTitleRecorded(ctx context.Context, tx *sql.Tx, novelID, chapterTitle string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM history WHERE novel_id = ? AND action = ? AND chapter_title = ?`,
		novelID, ActionContentRead, chapterTitle,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check chapter title: %w", err)
	}
	return count > 0, nil
}
