package ipc

import (
	"eris/internal/novel"
	"eris/internal/tracker"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse describes the daemon as it runs.
type StatusResponse struct {
	Running     bool          `json:"running"`
	Enabled     bool          `json:"enabled"`
	Monitoring  bool          `json:"monitoring"`
	Phase       tracker.Phase `json:"phase"`
	Candidate   string        `json:"candidate,omitempty"`
	LibraryPath string        `json:"library_path"`
	LockPath    string        `json:"lock_path"`
	PID         int           `json:"pid"`
}

// SetEnabledRequest turns recognition on or off.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabledResponse echoes the setting now in effect.
type SetEnabledResponse struct {
	Enabled bool `json:"enabled"`
}

// AddNovelRequest stores a new novel.
type AddNovelRequest struct {
	Novel novel.Novel `json:"novel"`
}

// AddKeywordRequest attaches a recognition keyword.
type AddKeywordRequest struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

// MarkStatusRequest sets the publication status.
type MarkStatusRequest struct {
	ID     string       `json:"id"`
	Status novel.Status `json:"status"`
}

// MoveRequest puts a novel on another reading list.
type MoveRequest struct {
	ID   string           `json:"id"`
	List novel.ListStatus `json:"list"`
}

// NovelResponse carries the stored record after an edit.
type NovelResponse struct {
	Novel novel.Novel `json:"novel"`
}

// ChapterReadRequest replaces recorded progress.
type ChapterReadRequest struct {
	ID      string        `json:"id"`
	Reading novel.Reading `json:"reading"`
}

// ChapterReadResponse reports the commit.
type ChapterReadResponse struct {
	Novel   novel.Novel   `json:"novel"`
	Changes novel.Changes `json:"changes"`
}

// RemoveRequest deletes a novel.
type RemoveRequest struct {
	ID string `json:"id"`
}

// RemoveResponse confirms a removal.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}
