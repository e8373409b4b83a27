package recognition

import "strings"

// UnknownSource is returned when no source can be guessed.
const UnknownSource = "?"

// browserOffsets maps a browser name to the position, counted from the last
// token, of the segment naming the website. Browsers that append extra
// segments need a larger offset.
var browserOffsets = []struct {
	name   string
	offset int
}{
	{"firefox", 1},
	{"google", 1},
	{"opera", 1},
	{"microsoft", 2},
	{"brave", 1},
}

// GuessSource names the site or app the title came from.
func GuessSource(tokens []string) string {
	if len(tokens) == 0 {
		return UnknownSource
	}
	for _, browser := range browserOffsets {
		for _, token := range tokens {
			if strings.Contains(strings.ToLower(token), browser.name) {
				idx := max(len(tokens)-1-browser.offset, 0)
				return tokens[idx]
			}
		}
	}
	return tokens[len(tokens)-1]
}

// GuessNovelName picks the token most likely to hold the novel's name.
func GuessNovelName(tokens []string, site Site, h Heuristics) string {
	if len(tokens) == 0 {
		return UnknownSource
	}
	if IsReadingChapter(tokens, h) {
		if idx := siteLayouts[site].nameIndex; idx >= 0 && idx < len(tokens) {
			return tokens[idx]
		}
	}
	return tokens[0]
}
