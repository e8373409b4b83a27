package novel

import (
	"fmt"
	"strings"
)

// Preference says whether the chapter on screen is already read or about to be read.
type Preference string

const (
	// PreferCurrent records the visible chapter as read.
	PreferCurrent Preference = "current"
	// PreferPrevious records the chapter before the visible one as read.
	PreferPrevious Preference = "previous"
)

// ParsePreference resolves a preference name; empty means current.
func ParsePreference(value string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(PreferCurrent):
		return PreferCurrent, nil
	case string(PreferPrevious):
		return PreferPrevious, nil
	default:
		return "", fmt.Errorf("unknown chapter read preference %q", value)
	}
}

func (p Preference) modifier() float64 {
	if p == PreferPrevious {
		return 1
	}
	return 0
}

// Reading is a progress observation: what the user has on screen, or a manual edit.
type Reading struct {
	Volume       int
	Chapter      float64
	SideStory    int
	ChapterTitle string
	Reading      bool
}

// ReadPolicy carries the settings that shape a progress commit.
type ReadPolicy struct {
	Preference          Preference
	AutocompleteOngoing bool
}

// Changes describes what ApplyReading did.
type Changes struct {
	Applied  bool
	Before   Content
	After    Content
	ListFrom ListStatus
	ListTo   ListStatus
	Reason   string
}

// ListChanged reports whether the list status moved.
func (c Changes) ListChanged() bool {
	return c.ListFrom != c.ListTo
}

// ApplyReading applies a chapter read to n and returns the updated copy.
//
// Manual edits (exact) replace stored progress. Automatic reads only move each
// counter forward and are dropped entirely when nothing would advance.
func ApplyReading(n Novel, r Reading, exact bool, policy ReadPolicy) (Novel, Changes) {
	out := n.Clone()
	changes := Changes{Before: n.Read, After: n.Read, ListFrom: n.List, ListTo: n.List}
	mod := policy.Preference.modifier()

	var chapter float64
	switch {
	case exact:
		chapter = r.Chapter
	case r.Chapter == 0 && r.Reading && r.ChapterTitle != "":
		// Something is being read but it carries no usable chapter number.
		chapter = n.Read.Chapters + 1
	default:
		chapter = r.Chapter - mod
	}
	chapter = max(chapter, 0)

	sideStory := r.SideStory
	if !exact {
		sideStory -= int(mod)
	}
	sideStory = max(sideStory, 0)
	volume := max(r.Volume, 0)

	if !exact && n.Read.Chapters >= chapter && n.Read.Volumes >= volume && n.Read.SideStories >= sideStory {
		changes.Reason = "not ahead of stored progress"
		return out, changes
	}

	if exact {
		out.Read = Content{Volumes: volume, Chapters: chapter, SideStories: sideStory}
	} else {
		if chapter > out.Read.Chapters {
			out.Read.Chapters = chapter
		}
		if volume > out.Read.Volumes {
			out.Read.Volumes = volume
		}
		if sideStory > out.Read.SideStories {
			out.Read.SideStories = sideStory
		}
	}

	if !exact && out.List == ListPlanToRead {
		out.List = ListReading
	}
	if out.List != ListCompleted && reachedEnd(out, policy) {
		out.List = ListCompleted
	}

	changes.Applied = true
	changes.After = out.Read
	changes.ListTo = out.List
	return out, changes
}

// reachedEnd reports whether the recorded progress covers every available
// volume, chapter and side story of a novel allowed to auto-complete.
func reachedEnd(n Novel, policy ReadPolicy) bool {
	canComplete := n.Status == StatusCompleted || n.Status == StatusAbandoned || policy.AutocompleteOngoing
	if !canComplete || n.Available.Chapters <= 0 {
		return false
	}
	return n.Read.Volumes >= n.Available.Volumes &&
		n.Read.Chapters >= n.Available.Chapters &&
		n.Read.SideStories >= n.Available.SideStories
}
