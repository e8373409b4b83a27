// Package display is the reading-now surface. A Sink receives what the
// recognizer wants shown; Board keeps the latest snapshot for readers such as
// the status command.
package display

import (
	"time"

	"eris/internal/novel"
)

// Sink receives display updates. Implementations must not block the caller
// for long; they run on the recognizer's runtime goroutine.
type Sink interface {
	PublishReadingNow(ReadingNow)
	PublishNotReading()
	PublishSuggestions(keyword string, novels []novel.Novel)
	RequestNavigateToReadingView()
}

// ReadingNow describes the window title being read. Novel is nil when the
// title did not resolve to a library entry.
type ReadingNow struct {
	Novel        *novel.Novel `json:"novel,omitempty"`
	NovelName    string       `json:"novel_name"`
	Source       string       `json:"source"`
	Volume       int          `json:"volume,omitempty"`
	Chapter      float64      `json:"chapter,omitempty"`
	SideStory    int          `json:"side_story,omitempty"`
	ChapterTitle string       `json:"chapter_title,omitempty"`
	Reading      bool         `json:"reading"`
}

// Matched reports whether the title resolved to a library novel.
func (r ReadingNow) Matched() bool {
	return r.Novel != nil
}

// Suggestion is a library novel offered for an unrecognized title.
type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// View names the display page.
type View string

const (
	ViewNotReading View = "not_reading"
	ViewReading    View = "reading"
)

// Snapshot is the board state at one point in time.
type Snapshot struct {
	View              View         `json:"view"`
	ReadingNow        *ReadingNow  `json:"reading_now,omitempty"`
	SuggestionKeyword string       `json:"suggestion_keyword,omitempty"`
	Suggestions       []Suggestion `json:"suggestions,omitempty"`
	NavigateRequests  int          `json:"navigate_requests"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.ReadingNow != nil {
		rn := *s.ReadingNow
		if rn.Novel != nil {
			n := rn.Novel.Clone()
			rn.Novel = &n
		}
		out.ReadingNow = &rn
	}
	if s.Suggestions != nil {
		out.Suggestions = append([]Suggestion(nil), s.Suggestions...)
	}
	return out
}
