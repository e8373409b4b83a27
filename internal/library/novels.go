package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"eris/internal/logging"
	"eris/internal/novel"
)

const novelColumns = "id, title, status, list_status, available_volumes, available_chapters, available_side_stories, read_volumes, read_chapters, read_side_stories, slug, source, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanNovel(scanner rowScanner) (novel.Novel, error) {
	var (
		n          novel.Novel
		status     string
		listStatus string
		slug       sql.NullString
		source     sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&n.ID,
		&n.Title,
		&status,
		&listStatus,
		&n.Available.Volumes,
		&n.Available.Chapters,
		&n.Available.SideStories,
		&n.Read.Volumes,
		&n.Read.Chapters,
		&n.Read.SideStories,
		&slug,
		&source,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return novel.Novel{}, err
	}
	n.Status = novel.Status(status)
	n.List = novel.ListStatus(listStatus)
	n.Slug = slug.String
	n.Source = source.String
	n.CreatedAt = parseTime(createdRaw)
	n.UpdatedAt = parseTime(updatedRaw)
	return n, nil
}

// Add inserts n with a fresh id and returns the stored record. Status and list
// default to ongoing and plan to read.
func (s *Store) Add(ctx context.Context, n novel.Novel) (*novel.Novel, error) {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return nil, errors.New("novel title is required")
	}
	n.Title = title
	n.ID = uuid.NewString()
	if n.Status == "" {
		n.Status = novel.StatusOngoing
	}
	if n.List == "" {
		n.List = novel.ListPlanToRead
	}
	n.Keywords = cleanKeywords(n.Keywords)

	err := s.inTx(ctx, "add novel", func(tx *sql.Tx) error {
		if err := ensureTitleFree(ctx, tx, n.Title, ""); err != nil {
			return err
		}
		ts := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO novels (`+novelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Title, n.Status, n.List,
			n.Available.Volumes, n.Available.Chapters, n.Available.SideStories,
			n.Read.Volumes, n.Read.Chapters, n.Read.SideStories,
			nullableString(n.Slug), nullableString(n.Source), ts, ts,
		); err != nil {
			return fmt.Errorf("insert novel: %w", err)
		}
		if err := replaceKeywords(ctx, tx, n.ID, n.Keywords); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, HistoryItem{NovelID: n.ID, NovelTitle: n.Title, Action: ActionNovelAdd})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("novel added", logging.Args(logging.NovelAttrs(n.ID, n.Title)...)...)
	return s.Get(ctx, n.ID)
}

// Update replaces the editable fields of an existing novel. Progress edits
// belong to CommitProgress and list moves to Move; both are left untouched.
func (s *Store) Update(ctx context.Context, n novel.Novel) (*novel.Novel, error) {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return nil, errors.New("novel title is required")
	}
	err := s.inTx(ctx, "update novel", func(tx *sql.Tx) error {
		if err := ensureTitleFree(ctx, tx, title, n.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE novels
             SET title = ?, status = ?, available_volumes = ?, available_chapters = ?,
                 available_side_stories = ?, slug = ?, source = ?, updated_at = ?
             WHERE id = ?`,
			title, n.Status,
			n.Available.Volumes, n.Available.Chapters, n.Available.SideStories,
			nullableString(n.Slug), nullableString(n.Source), s.timestamp(), n.ID,
		)
		if err != nil {
			return fmt.Errorf("update novel: %w", err)
		}
		if err := requireAffected(res, n.ID); err != nil {
			return err
		}
		if err := replaceKeywords(ctx, tx, n.ID, cleanKeywords(n.Keywords)); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, HistoryItem{NovelID: n.ID, NovelTitle: title, Action: ActionNovelUpdate})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, n.ID)
}

// Remove deletes a novel. Its history stays behind with a delete entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.inTx(ctx, "remove novel", func(tx *sql.Tx) error {
		n, err := getNovel(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM novels WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete novel: %w", err)
		}
		return s.appendHistory(ctx, tx, HistoryItem{NovelID: id, NovelTitle: n.Title, Action: ActionNovelDelete})
	})
}

// Get fetches a novel by id.
func (s *Store) Get(ctx context.Context, id string) (*novel.Novel, error) {
	n, err := getNovel(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns every novel ordered by title. An empty list filter returns all lists.
func (s *Store) List(ctx context.Context, lists ...novel.ListStatus) ([]novel.Novel, error) {
	query := `SELECT ` + novelColumns + ` FROM novels`
	args := make([]any, 0, len(lists))
	if len(lists) > 0 {
		placeholders := make([]string, len(lists))
		for i, l := range lists {
			placeholders[i] = "?"
			args = append(args, l)
		}
		query += ` WHERE list_status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY title COLLATE NOCASE, id`

	novels, err := queryNovels(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list novels: %w", err)
	}
	if err := loadKeywords(ctx, s.db, novels); err != nil {
		return nil, err
	}
	return novels, nil
}

// FindByTitle returns the novel whose title equals title, ignoring ASCII case.
func (s *Store) FindByTitle(ctx context.Context, title string) (*novel.Novel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+novelColumns+` FROM novels WHERE title = ? COLLATE NOCASE LIMIT 1`,
		strings.TrimSpace(title),
	)
	return s.finishFind(ctx, row, "find by title")
}

// FindByKeyword returns the first novel carrying keyword, ignoring ASCII case.
func (s *Store) FindByKeyword(ctx context.Context, keyword string) (*novel.Novel, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT n.`+strings.ReplaceAll(novelColumns, ", ", ", n.")+`
         FROM novels n JOIN novel_keywords k ON k.novel_id = n.id
         WHERE k.keyword = ? COLLATE NOCASE
         ORDER BY n.title COLLATE NOCASE LIMIT 1`,
		keyword,
	)
	return s.finishFind(ctx, row, "find by keyword")
}

func (s *Store) finishFind(ctx context.Context, row *sql.Row, op string) (*novel.Novel, error) {
	n, err := scanNovel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := []novel.Novel{n}
	if err := loadKeywords(ctx, s.db, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// AddKeyword appends a recognition keyword to a novel. Existing keywords are
// kept; a keyword already present (ignoring case) is not added twice.
func (s *Store) AddKeyword(ctx context.Context, id, keyword string) (*novel.Novel, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("keyword is required")
	}
	err := s.inTx(ctx, "add keyword", func(tx *sql.Tx) error {
		n, err := getNovel(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, existing := range n.Keywords {
			if strings.EqualFold(existing, keyword) {
				return nil
			}
		}
		if err := replaceKeywords(ctx, tx, id, append(n.Keywords, keyword)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE novels SET updated_at = ? WHERE id = ?`, s.timestamp(), id); err != nil {
			return fmt.Errorf("touch novel: %w", err)
		}
		return s.appendHistory(ctx, tx, HistoryItem{NovelID: id, NovelTitle: n.Title, Action: ActionNovelUpdate})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("novel keyword added", logging.String(logging.FieldNovelID, id), logging.String("keyword", keyword))
	return s.Get(ctx, id)
}

func getNovel(ctx context.Context, q queryer, id string) (novel.Novel, error) {
	row := q.QueryRowContext(ctx, `SELECT `+novelColumns+` FROM novels WHERE id = ?`, id)
	n, err := scanNovel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return novel.Novel{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return novel.Novel{}, fmt.Errorf("get novel: %w", err)
	}
	out := []novel.Novel{n}
	if err := loadKeywords(ctx, q, out); err != nil {
		return novel.Novel{}, err
	}
	return out[0], nil
}

func queryNovels(ctx context.Context, q queryer, query string, args ...any) ([]novel.Novel, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var novels []novel.Novel
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, err
		}
		novels = append(novels, n)
	}
	return novels, rows.Err()
}

// loadKeywords fills the Keywords field of every novel in place.
func loadKeywords(ctx context.Context, q queryer, novels []novel.Novel) error {
	if len(novels) == 0 {
		return nil
	}
	byID := make(map[string]int, len(novels))
	for i := range novels {
		byID[novels[i].ID] = i
	}
	rows, err := q.QueryContext(ctx, `SELECT novel_id, keyword FROM novel_keywords ORDER BY novel_id, position`)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, keyword string
		if err := rows.Scan(&id, &keyword); err != nil {
			return fmt.Errorf("scan keyword: %w", err)
		}
		if i, ok := byID[id]; ok {
			novels[i].Keywords = append(novels[i].Keywords, keyword)
		}
	}
	return rows.Err()
}

func replaceKeywords(ctx context.Context, tx *sql.Tx, id string, keywords []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM novel_keywords WHERE novel_id = ?`, id); err != nil {
		return fmt.Errorf("clear keywords: %w", err)
	}
	for i, kw := range keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO novel_keywords (novel_id, keyword, position) VALUES (?, ?, ?)`,
			id, kw, i,
		); err != nil {
			return fmt.Errorf("insert keyword: %w", err)
		}
	}
	return nil
}

func ensureTitleFree(ctx context.Context, tx *sql.Tx, title, exceptID string) error {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM novels WHERE title = ? COLLATE NOCASE AND id != ?`,
		title, exceptID,
	).Scan(&count); err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTitle, title)
	}
	return nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func cleanKeywords(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
