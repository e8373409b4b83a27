package recognition

import "log/slog"

// Title is a fully parsed window title.
type Title struct {
	Raw       string
	Clean     string
	Tokens    []string
	Site      Site
	Data      Data
	NovelName string
}

// Parser runs the whole title pipeline.
type Parser struct {
	heuristics Heuristics
	extractor  *Extractor
}

// NewParser returns a parser using the given reading heuristics.
func NewParser(h Heuristics, logger *slog.Logger) *Parser {
	return &Parser{heuristics: h, extractor: NewExtractor(h, logger)}
}

// Parse sanitizes, tokenizes and extracts raw. It reports false when there is
// no title or the title has no "a - b" shape; both mean nothing to recognize.
func (p *Parser) Parse(raw string, ok bool) (Title, bool) {
	clean, ok := Sanitize(raw, ok)
	if !ok {
		return Title{}, false
	}
	tokens, ok := Tokenize(clean)
	if !ok {
		return Title{Raw: raw, Clean: clean}, false
	}
	site := DetectSite(tokens)
	data := p.extractor.Extract(tokens, site)
	data.Source = GuessSource(tokens)
	return Title{
		Raw:       raw,
		Clean:     clean,
		Tokens:    tokens,
		Site:      site,
		Data:      data,
		NovelName: GuessNovelName(tokens, site, p.heuristics),
	}, true
}
