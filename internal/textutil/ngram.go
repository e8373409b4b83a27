package textutil

import (
	"sort"
	"strings"
)

// DefaultArity is the gram length used for title matching.
const DefaultArity = 2

// SearchResult is a single corpus hit.
type SearchResult struct {
	Text       string
	Similarity float64
}

type gramSet struct {
	counts map[string]int
	total  int
}

// Corpus holds n-gram decompositions of a set of strings.
type Corpus struct {
	arity   int
	texts   []string
	entries []gramSet
}

// NewCorpus creates an empty corpus. Arity values below 1 fall back to DefaultArity.
func NewCorpus(arity int) *Corpus {
	if arity < 1 {
		arity = DefaultArity
	}
	return &Corpus{arity: arity}
}

// Add registers text in the corpus. Empty strings are ignored.
func (c *Corpus) Add(text string) {
	if c == nil || text == "" {
		return
	}
	c.texts = append(c.texts, text)
	c.entries = append(c.entries, grams(text, c.arity))
}

// Len returns the number of registered strings.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.texts)
}

// Search returns every entry scoring at least minScore against query, best first.
// Ties keep insertion order.
func (c *Corpus) Search(query string, minScore float64) []SearchResult {
	if c == nil || query == "" || len(c.entries) == 0 {
		return nil
	}
	q := grams(query, c.arity)
	var results []SearchResult
	for i, entry := range c.entries {
		score := similarity(q, entry)
		if score <= 0 || score < minScore {
			continue
		}
		results = append(results, SearchResult{Text: c.texts[i], Similarity: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

func similarity(a, b gramSet) float64 {
	if a.total == 0 || b.total == 0 {
		return 0
	}
	same := 0
	for gram, count := range a.counts {
		if other, ok := b.counts[gram]; ok {
			same += min(count, other)
		}
	}
	all := a.total + b.total - same
	if all == 0 {
		return 0
	}
	allSq := float64(all * all)
	diff := float64(all - same)
	return (allSq - diff*diff) / allSq
}

// grams pads text with arity-1 spaces on both sides and counts every window.
func grams(text string, arity int) gramSet {
	pad := strings.Repeat(" ", arity-1)
	runes := []rune(pad + text + pad)
	set := gramSet{counts: make(map[string]int)}
	for i := 0; i+arity <= len(runes); i++ {
		set.counts[string(runes[i:i+arity])]++
		set.total++
	}
	return set
}
