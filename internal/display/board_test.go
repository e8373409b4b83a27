package display_test

import (
	"path/filepath"
	"testing"

	"eris/internal/display"
	"eris/internal/logging"
	"eris/internal/novel"
)

func TestBoardReadingFlow(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	board := display.NewBoard(statusPath, logging.NewNop())

	if snap := board.Snapshot(); snap.View != display.ViewNotReading || snap.ReadingNow != nil {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	board.PublishSuggestions("Solo", []novel.Novel{{ID: "a", Title: "Solo Leveling"}})
	board.PublishReadingNow(display.ReadingNow{NovelName: "Solo", Source: "Royal Road", Chapter: 3, Reading: true})

	snap := board.Snapshot()
	if snap.View != display.ViewReading || snap.ReadingNow == nil || snap.ReadingNow.Matched() {
		t.Fatalf("expected unmatched reading view, got %+v", snap)
	}
	if snap.SuggestionKeyword != "Solo" || len(snap.Suggestions) != 1 || snap.Suggestions[0].Title != "Solo Leveling" {
		t.Fatalf("suggestions should survive an unmatched reading update, got %+v", snap.Suggestions)
	}

	matched := &novel.Novel{ID: "a", Title: "Solo Leveling"}
	board.PublishReadingNow(display.ReadingNow{Novel: matched, NovelName: "Solo Leveling", Chapter: 4, Reading: true})
	snap = board.Snapshot()
	if !snap.ReadingNow.Matched() || snap.Suggestions != nil {
		t.Fatalf("matched update should clear suggestions, got %+v", snap)
	}
	matched.Title = "mutated"
	if board.Snapshot().ReadingNow.Novel.Title != "Solo Leveling" {
		t.Fatal("board must copy the published novel")
	}

	board.RequestNavigateToReadingView()
	board.RequestNavigateToReadingView()
	if got := board.Snapshot().NavigateRequests; got != 2 {
		t.Fatalf("expected 2 navigate requests, got %d", got)
	}

	onDisk, err := display.ReadStatus(statusPath)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if onDisk.View != display.ViewReading || onDisk.NavigateRequests != 2 || onDisk.ReadingNow.Chapter != 4 {
		t.Fatalf("status file out of sync: %+v", onDisk)
	}

	board.PublishNotReading()
	onDisk, err = display.ReadStatus(statusPath)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if onDisk.View != display.ViewNotReading || onDisk.ReadingNow != nil {
		t.Fatalf("expected not reading on disk, got %+v", onDisk)
	}
}

func TestBoardListeners(t *testing.T) {
	board := display.NewBoard("", logging.NewNop())
	var views []display.View
	board.OnUpdate(func(s display.Snapshot) { views = append(views, s.View) })
	board.OnUpdate(nil)

	board.PublishReadingNow(display.ReadingNow{NovelName: "x"})
	board.PublishNotReading()

	if len(views) != 2 || views[0] != display.ViewReading || views[1] != display.ViewNotReading {
		t.Fatalf("unexpected listener calls: %v", views)
	}
}

func TestReadStatusMissingFile(t *testing.T) {
	if _, err := display.ReadStatus(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing status file")
	}
}
