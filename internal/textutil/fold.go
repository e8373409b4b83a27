package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns a canonical case-folded form of s. Width and compatibility forms
// are normalized first so that full-width titles compare equal to ASCII ones.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFKC.String(s))
}
