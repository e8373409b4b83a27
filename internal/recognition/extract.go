package recognition

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"eris/internal/logging"
	"eris/internal/novel"
)

// Data is the structured result of parsing one tokenized title. Numeric
// fields are zero unless Reading is set.
type Data struct {
	Volume       int
	Chapter      float64
	SideStory    int
	ChapterTitle string
	Source       string
	Reading      bool
}

// Progress converts the parsed numbers into a progress observation.
func (d Data) Progress() novel.Reading {
	return novel.Reading{
		Volume:       d.Volume,
		Chapter:      d.Chapter,
		SideStory:    d.SideStory,
		ChapterTitle: d.ChapterTitle,
		Reading:      d.Reading,
	}
}

const numberSuffix = `[.:;\-_]?\s?`

// Patterns are tried in order against every token; the first token yielding a
// number wins for its category.
var (
	volumePatterns = compileAll(
		`(?i)\bvolume`+numberSuffix+`(\d+)`,
		`(?i)\bbook`+numberSuffix+`(\d+)`,
		`(?i)\bvol`+numberSuffix+`(\d+)`,
		`(?i)\bv`+numberSuffix+`(\d+)`,
	)
	chapterPatterns = compileAll(
		`(?i)\bchapter`+numberSuffix+`(\d+(?:\.\d+)?)`,
		`(?i)\bch`+numberSuffix+`(\d+(?:\.\d+)?)`,
		`(?i)\bc`+numberSuffix+`(\d+(?:\.\d+)?)`,
	)
	partPatterns = compileAll(
		`(?i)\bpart`+numberSuffix+`(\d+)`,
		`(?i)\bpt`+numberSuffix+`(\d+)`,
	)
	sideStoryPatterns = compileAll(
		`(?i)\b(?:extra|side|special)(?:\s?(?:story|stories|chapter|chapters))?`+numberSuffix+`(\d+)`,
	)
	chapterWordPattern = regexp.MustCompile(`(?i)\bch\.?\s?\d`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

// scanNumber returns the first captured number across tokens and patterns
// that parses. Failed parses are logged and the scan moves on.
func scanNumber[T int | float64](logger *slog.Logger, tokens []string, patterns []*regexp.Regexp, category string, parse func(string) (T, error)) (T, string, bool) {
	for _, token := range tokens {
		for _, pattern := range patterns {
			m := pattern.FindStringSubmatch(token)
			if len(m) != 2 || m[1] == "" {
				continue
			}
			n, err := parse(m[1])
			if err != nil {
				logger.Debug("title number parse failed",
					logging.String(logging.FieldEventType, category+"_parse_failed"),
					logging.String("value", m[1]),
					logging.Error(err),
				)
				continue
			}
			return n, m[1], true
		}
	}
	var zero T
	return zero, "", false
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(raw, "."), 64)
}

// IsReadingChapter reports whether tokens look like an open chapter page.
// The first site in readingOrder that is named in tokens and has a threshold
// decides on token count alone.
func IsReadingChapter(tokens []string, h Heuristics) bool {
	lowered := lowerAll(tokens)
	for _, site := range readingOrder {
		n, ok := h.minTokens(site)
		if ok && mentions(lowered, siteLayouts[site].marker) {
			return len(tokens) >= n
		}
	}
	if n, ok := h.minTokens(SiteGeneric); ok && DetectSite(tokens) == SiteGeneric {
		return len(tokens) >= n
	}
	for _, token := range tokens {
		if strings.Contains(strings.ToLower(token), "chapter") || chapterWordPattern.MatchString(token) {
			return true
		}
	}
	return false
}

// Extractor parses numbers out of tokenized titles.
type Extractor struct {
	heuristics Heuristics
	logger     *slog.Logger
}

// NewExtractor builds an extractor; a nil logger discards parse diagnostics.
func NewExtractor(h Heuristics, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{heuristics: h, logger: logger}
}

// Extract fills Data from tokens. Source is left for GuessSource.
func (e *Extractor) Extract(tokens []string, site Site) Data {
	var data Data
	if len(tokens) == 0 {
		return data
	}

	data.Volume, _, _ = scanNumber(e.logger, tokens, volumePatterns, "volume", strconv.Atoi)

	chapter, raw, ok := scanNumber(e.logger, tokens, chapterPatterns, "chapter", parseFloat)
	data.Chapter = chapter
	// A fractional chapter already encodes its part.
	if !ok || !strings.Contains(raw, ".") {
		if part, _, ok := scanNumber(e.logger, tokens, partPatterns, "part", strconv.Atoi); ok {
			data.Chapter += float64(part) / 10
		}
	}

	data.SideStory, _, _ = scanNumber(e.logger, tokens, sideStoryPatterns, "side_story", strconv.Atoi)
	data.Reading = IsReadingChapter(tokens, e.heuristics)

	if !data.Reading {
		data.Volume, data.Chapter, data.SideStory = 0, 0, 0
		return data
	}
	data.ChapterTitle = chapterTitle(tokens, site)
	return data
}

func chapterTitle(tokens []string, site Site) string {
	idx := siteLayouts[site].chapterIndex
	if idx < 0 || idx >= len(tokens) {
		return ""
	}
	return tokens[idx]
}
