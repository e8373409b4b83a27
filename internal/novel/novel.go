package novel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the publication status of a novel.
type Status string

const (
	StatusOngoing           Status = "ongoing"
	StatusOriginalCompleted Status = "original_completed"
	StatusCompleted         Status = "completed"
	StatusHiatus            Status = "hiatus"
	StatusAbandoned         Status = "abandoned"
	StatusOther             Status = "other"
)

var allStatuses = []Status{
	StatusOngoing,
	StatusOriginalCompleted,
	StatusCompleted,
	StatusHiatus,
	StatusAbandoned,
	StatusOther,
}

// ListStatus is the reading-list bucket a novel occupies.
type ListStatus string

const (
	ListReading    ListStatus = "reading"
	ListPlanToRead ListStatus = "plan_to_read"
	ListOnHold     ListStatus = "on_hold"
	ListCompleted  ListStatus = "completed"
	ListDropped    ListStatus = "dropped"
)

var allListStatuses = []ListStatus{
	ListReading,
	ListPlanToRead,
	ListOnHold,
	ListCompleted,
	ListDropped,
}

// ParseStatus resolves a publication status name. Dashes, spaces and case are ignored.
func ParseStatus(value string) (Status, error) {
	key := canonicalKey(value)
	for _, status := range allStatuses {
		if string(status) == key {
			return status, nil
		}
	}
	if key == "dropped" {
		return StatusAbandoned, nil
	}
	return "", fmt.Errorf("unknown novel status %q", value)
}

// ParseListStatus resolves a list status name. Dashes, spaces and case are ignored.
func ParseListStatus(value string) (ListStatus, error) {
	key := canonicalKey(value)
	for _, status := range allListStatuses {
		if string(status) == key {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown list status %q", value)
}

// Statuses returns every publication status in display order.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ListStatuses returns every list status in display order.
func ListStatuses() []ListStatus {
	return append([]ListStatus(nil), allListStatuses...)
}

func canonicalKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

// Content counts volumes, chapters and side stories. Chapters may be fractional.
type Content struct {
	Volumes     int
	Chapters    float64
	SideStories int
}

// Novel is a library record.
type Novel struct {
	ID        string
	Title     string
	Keywords  []string
	Status    Status
	List      ListStatus
	Available Content
	Read      Content
	Slug      string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of n.
func (n Novel) Clone() Novel {
	out := n
	if n.Keywords != nil {
		out.Keywords = append([]string(nil), n.Keywords...)
	}
	return out
}

// HasKeywords reports whether n carries at least one non-empty recognition keyword.
func (n Novel) HasKeywords() bool {
	for _, kw := range n.Keywords {
		if strings.TrimSpace(kw) != "" {
			return true
		}
	}
	return false
}

// Same reports whether a and b refer to the same record. Two nil references are the same.
func Same(a, b *Novel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

// FormatChapter renders a chapter count in its shortest form ("12", "12.5").
func FormatChapter(ch float64) string {
	return strconv.FormatFloat(ch, 'f', -1, 64)
}
