package recognition

import "strings"

// tokenDelimiter separates the "app - page - ..." segments of a window title.
const tokenDelimiter = " -"

var dashReplacer = strings.NewReplacer(
	"–", "-",
	"—", "-",
	"|", "-",
)

// Sanitize canonicalizes dash-like separators and removes the ".epub" suffix
// reader apps append. An absent title stays absent.
func Sanitize(raw string, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	cleaned := dashReplacer.Replace(raw)
	for strings.Contains(cleaned, ".epub") {
		cleaned = strings.ReplaceAll(cleaned, ".epub", "")
	}
	return cleaned, true
}

// Tokenize splits a sanitized title on " -" and trims each segment. It reports
// false when the title has no delimiter at all.
func Tokenize(title string) ([]string, bool) {
	if !strings.Contains(title, tokenDelimiter) {
		return nil, false
	}
	parts := strings.Split(title, tokenDelimiter)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		tokens = append(tokens, strings.TrimSpace(part))
	}
	return tokens, true
}
