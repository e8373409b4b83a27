// Package textutil provides the text comparison primitives used to match window
// titles against library entries.
//
// The primary use cases are:
//   - Folding strings for case-insensitive equality (Unicode aware)
//   - Building an n-gram corpus of titles and searching it by similarity
//
// Similarity follows the warped n-gram formula: with `same` shared grams and
// `all` distinct grams across both strings, score = (all² - (all-same)²) / all².
// Identical strings score 1, strings with no shared grams score 0.
package textutil
