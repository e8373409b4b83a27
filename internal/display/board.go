package display

import (
	"log/slog"
	"sync"
	"time"

	"eris/internal/fileutil"
	"eris/internal/logging"
	"eris/internal/novel"
)

// Board is a Sink that remembers the latest snapshot and, when a status file
// is configured, mirrors it to disk as JSON.
type Board struct {
	logger     *slog.Logger
	statusPath string
	now        func() time.Time

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []func(Snapshot)
}

// NewBoard creates a board. An empty statusPath keeps the snapshot in memory only.
func NewBoard(statusPath string, logger *slog.Logger) *Board {
	b := &Board{
		logger:     logging.NewComponentLogger(logger, "display"),
		statusPath: statusPath,
		now:        time.Now,
	}
	b.snapshot = Snapshot{View: ViewNotReading, UpdatedAt: b.now().UTC()}
	b.persist(b.snapshot)
	return b
}

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.clone()
}

// OnUpdate registers a listener called with a copy of every new snapshot.
func (b *Board) OnUpdate(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// PublishReadingNow shows r.
func (b *Board) PublishReadingNow(r ReadingNow) {
	attrs := []logging.Attr{
		logging.String("source", r.Source),
		logging.Bool("matched", r.Matched()),
	}
	if r.Novel != nil {
		attrs = append(attrs, logging.NovelAttrs(r.Novel.ID, r.Novel.Title)...)
	} else {
		attrs = append(attrs, logging.String(logging.FieldNovel, r.NovelName))
	}
	if r.Reading {
		attrs = append(attrs, logging.String("chapter", novel.FormatChapter(r.Chapter)))
	}
	b.logger.Info("reading now", logging.Args(attrs...)...)

	b.update(func(s *Snapshot) {
		rn := r
		if r.Novel != nil {
			n := r.Novel.Clone()
			rn.Novel = &n
		}
		s.View = ViewReading
		s.ReadingNow = &rn
		if rn.Novel != nil {
			s.SuggestionKeyword = ""
			s.Suggestions = nil
		}
	})
}

// PublishNotReading clears the reading-now state.
func (b *Board) PublishNotReading() {
	b.logger.Info("not reading")
	b.update(func(s *Snapshot) {
		s.View = ViewNotReading
		s.ReadingNow = nil
		s.SuggestionKeyword = ""
		s.Suggestions = nil
	})
}

// PublishSuggestions replaces the suggestion list.
func (b *Board) PublishSuggestions(keyword string, novels []novel.Novel) {
	suggestions := make([]Suggestion, 0, len(novels))
	for _, n := range novels {
		suggestions = append(suggestions, Suggestion{ID: n.ID, Title: n.Title})
	}
	b.logger.Debug("suggestions published",
		logging.String("keyword", keyword),
		logging.Int("count", len(suggestions)),
	)
	b.update(func(s *Snapshot) {
		s.SuggestionKeyword = keyword
		s.Suggestions = suggestions
	})
}

// RequestNavigateToReadingView counts a request to switch to the reading page.
func (b *Board) RequestNavigateToReadingView() {
	b.update(func(s *Snapshot) {
		s.View = ViewReading
		s.NavigateRequests++
	})
}

func (b *Board) update(fn func(*Snapshot)) {
	b.mu.Lock()
	fn(&b.snapshot)
	b.snapshot.UpdatedAt = b.now().UTC()
	snap := b.snapshot.clone()
	listeners := make([]func(Snapshot), len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	b.persist(snap)
	for _, fn := range listeners {
		fn(snap.clone())
	}
}

func (b *Board) persist(snap Snapshot) {
	if b.statusPath == "" {
		return
	}
	if err := fileutil.WriteJSON(b.statusPath, snap); err != nil {
		logging.WarnWithContext(b.logger, "status file write failed", "status_write_failed",
			logging.String("path", b.statusPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
			logging.String(logging.FieldImpact, "eris status shows stale data"),
		)
	}
}

// ReadStatus loads a snapshot written by a Board.
func ReadStatus(path string) (Snapshot, error) {
	var snap Snapshot
	if err := fileutil.ReadJSON(path, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
