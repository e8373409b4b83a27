package recognition

import (
	"regexp"
	"strings"
)

// Placeholders accepted inside include keywords.
const (
	placeholderNumber = "<num>"
	placeholderAny    = "<any>"
)

var placeholderPattern = regexp.MustCompile(`<num>|<any>`)

type keywordMatcher struct {
	keyword string
	lowered string
	pattern *regexp.Regexp
}

func newKeywordMatcher(keyword string) (keywordMatcher, bool) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return keywordMatcher{}, false
	}
	m := keywordMatcher{keyword: keyword, lowered: strings.ToLower(keyword)}
	if placeholderPattern.MatchString(keyword) {
		m.pattern = compilePlaceholders(keyword)
	}
	return m, true
}

// compilePlaceholders quotes everything except the placeholders, which become
// `\d+` and `.` respectively.
func compilePlaceholders(keyword string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)")
	last := 0
	for _, loc := range placeholderPattern.FindAllStringIndex(keyword, -1) {
		b.WriteString(regexp.QuoteMeta(keyword[last:loc[0]]))
		switch keyword[loc[0]:loc[1]] {
		case placeholderNumber:
			b.WriteString(`\d+`)
		case placeholderAny:
			b.WriteString(`.`)
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(keyword[last:]))
	return regexp.MustCompile(b.String())
}

func (m keywordMatcher) matches(title, lowered string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(title)
	}
	return strings.Contains(lowered, m.lowered)
}

// KeywordFilter picks the window title to recognize from all open windows.
type KeywordFilter struct {
	include []keywordMatcher
	ignore  []keywordMatcher
}

// NewKeywordFilter builds a filter. Empty keywords are dropped. Ignore
// keywords are plain case-insensitive substrings.
func NewKeywordFilter(include, ignore []string) *KeywordFilter {
	f := &KeywordFilter{}
	for _, kw := range include {
		if m, ok := newKeywordMatcher(kw); ok {
			f.include = append(f.include, m)
		}
	}
	for _, kw := range ignore {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		f.ignore = append(f.ignore, keywordMatcher{keyword: kw, lowered: strings.ToLower(kw)})
	}
	return f
}

// Selection is the outcome of scanning the open window titles.
type Selection struct {
	Title   string
	Found   bool
	Ignored string // ignore keyword that aborted the scan, if any
	Keyword string // include keyword that selected Title
}

// Select scans titles in order. A title containing an ignore keyword aborts
// the whole scan with no candidate; otherwise the first title containing an
// include keyword is selected.
func (f *KeywordFilter) Select(titles []string) Selection {
	if f == nil {
		return Selection{}
	}
	for _, title := range titles {
		lowered := strings.ToLower(title)
		for _, m := range f.ignore {
			if m.matches(title, lowered) {
				return Selection{Ignored: m.keyword}
			}
		}
		for _, m := range f.include {
			if m.matches(title, lowered) {
				return Selection{Title: title, Found: true, Keyword: m.keyword}
			}
		}
	}
	return Selection{}
}
