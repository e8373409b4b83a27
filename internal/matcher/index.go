package matcher

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"eris/internal/logging"
	"eris/internal/novel"
	"eris/internal/textutil"
)

// DefaultThreshold is the similarity a fuzzy hit must exceed.
const DefaultThreshold = 0.97

// nearMissFloor is the lowest similarity worth reporting as a near miss.
const nearMissFloor = 0.25

// acronymMinLength is the title length above which suggestions use the
// title's capital letters instead of the whole title.
const acronymMinLength = 7

// Kind tags how a match was made.
type Kind int

const (
	MatchNone Kind = iota
	MatchExactTitle
	MatchExactKeyword
	MatchFuzzy
	MatchSuggestions
)

func (k Kind) String() string {
	switch k {
	case MatchExactTitle:
		return "exact_title"
	case MatchExactKeyword:
		return "exact_keyword"
	case MatchFuzzy:
		return "fuzzy"
	case MatchSuggestions:
		return "suggestions"
	default:
		return "none"
	}
}

// Match is the result of a lookup. Novel is set for the exact and fuzzy
// kinds; Suggestions only for MatchSuggestions.
type Match struct {
	Kind        Kind
	Novel       *novel.Novel
	Similarity  float64
	Query       string
	Suggestions []novel.Novel
}

// Found reports whether the match resolved to a novel.
func (m Match) Found() bool {
	return m.Kind != MatchNone && m.Novel != nil
}

// Options configures an Index.
type Options struct {
	// Threshold defaults to DefaultThreshold when zero.
	Threshold float64
	Logger    *slog.Logger
}

// Index is an immutable lookup snapshot of the library.
type Index struct {
	novels    []novel.Novel
	byTitle   map[string]int
	byKeyword map[string]int
	corpus    *textutil.Corpus
	folded    []string
	threshold float64
	logger    *slog.Logger
}

// NewIndex builds an index over novels. When titles or keywords collide the
// first novel wins, mirroring list order.
func NewIndex(novels []novel.Novel, opts Options) *Index {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ix := &Index{
		novels:    make([]novel.Novel, len(novels)),
		byTitle:   make(map[string]int, len(novels)),
		byKeyword: make(map[string]int),
		corpus:    textutil.NewCorpus(textutil.DefaultArity),
		folded:    make([]string, 0, len(novels)),
		threshold: threshold,
		logger:    logger,
	}
	for i, n := range novels {
		ix.novels[i] = n.Clone()
		title := textutil.Fold(strings.TrimSpace(n.Title))
		if title != "" {
			if _, ok := ix.byTitle[title]; !ok {
				ix.byTitle[title] = i
				ix.corpus.Add(title)
				ix.folded = append(ix.folded, title)
			}
		}
		for _, kw := range n.Keywords {
			key := textutil.Fold(strings.TrimSpace(kw))
			if key == "" {
				continue
			}
			if _, ok := ix.byKeyword[key]; !ok {
				ix.byKeyword[key] = i
			}
		}
	}
	return ix
}

// Len returns the number of indexed novels.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.novels)
}

// Novels returns a copy of the indexed records.
func (ix *Index) Novels() []novel.Novel {
	if ix == nil {
		return nil
	}
	out := make([]novel.Novel, len(ix.novels))
	for i, n := range ix.novels {
		out[i] = n.Clone()
	}
	return out
}

func (ix *Index) at(i int) *novel.Novel {
	n := ix.novels[i].Clone()
	return &n
}

// FindByWindowTitle resolves candidate by exact title, exact keyword, then a
// fuzzy title search. Sub-threshold fuzzy hits are logged and rejected.
func (ix *Index) FindByWindowTitle(candidate string) Match {
	miss := Match{Kind: MatchNone, Query: candidate}
	if ix == nil || len(ix.novels) == 0 {
		return miss
	}
	query := textutil.Fold(strings.TrimSpace(candidate))
	if query == "" {
		return miss
	}

	if i, ok := ix.byTitle[query]; ok {
		return Match{Kind: MatchExactTitle, Novel: ix.at(i), Similarity: 1, Query: candidate}
	}
	if i, ok := ix.byKeyword[query]; ok {
		return Match{Kind: MatchExactKeyword, Novel: ix.at(i), Similarity: 1, Query: candidate}
	}

	results := ix.corpus.Search(query, nearMissFloor)
	if len(results) == 0 {
		return miss
	}
	top := results[0]
	if top.Similarity > ix.threshold {
		return Match{Kind: MatchFuzzy, Novel: ix.at(ix.byTitle[top.Text]), Similarity: top.Similarity, Query: candidate}
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldWindowTitle, candidate),
		logging.String("did_you_mean", top.Text),
		logging.String("similarity", fmt.Sprintf("%.0f%%", top.Similarity*100)),
		logging.Float64("threshold", ix.threshold),
	}
	if closest, ok := ix.closestByDistance(query); ok {
		attrs = append(attrs, logging.String("closest_subsequence", closest))
	}
	attrs = append(attrs, logging.DecisionAttrs("title_match", "rejected", "similarity below threshold")...)
	ix.logger.Debug("fuzzy title match below threshold", logging.Args(attrs...)...)
	return miss
}

// closestByDistance returns the indexed title that contains query as a
// subsequence with the smallest edit distance.
func (ix *Index) closestByDistance(query string) (string, bool) {
	ranks := fuzzy.RankFindNormalizedFold(query, ix.folded)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return ranks[0].Target, true
}

// FindFromTokens tries each token in order and returns the first match.
func (ix *Index) FindFromTokens(tokens []string) Match {
	for _, token := range tokens {
		if m := ix.FindByWindowTitle(token); m.Found() {
			return m
		}
	}
	return Match{Kind: MatchNone}
}

// Suggest wraps FindPotential as a MatchSuggestions result, or MatchNone when
// nothing qualifies.
func (ix *Index) Suggest(freeText string) Match {
	found := ix.FindPotential(freeText)
	if len(found) == 0 {
		return Match{Kind: MatchNone, Query: freeText}
	}
	return Match{Kind: MatchSuggestions, Query: freeText, Suggestions: found}
}

// FindPotential returns loose suggestions for freeText, each novel at most once.
//
// A novel with keywords is suggested when any keyword contains any word of
// freeText (case-sensitive). A novel without keywords is suggested when its
// acronym contains the first word of freeText.
func (ix *Index) FindPotential(freeText string) []novel.Novel {
	words := strings.Fields(freeText)
	if ix == nil || len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []novel.Novel
	add := func(n novel.Novel) {
		if _, ok := seen[n.ID]; ok {
			return
		}
		seen[n.ID] = struct{}{}
		out = append(out, n.Clone())
	}

	for _, n := range ix.novels {
		if n.HasKeywords() {
			if keywordContainsAny(n.Keywords, words) {
				add(n)
			}
			continue
		}
		if strings.Contains(Acronym(n.Title), words[0]) {
			add(n)
		}
	}
	return out
}

func keywordContainsAny(keywords, words []string) bool {
	for _, word := range words {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(kw, word) {
				return true
			}
		}
	}
	return false
}

// Acronym derives a suggestion key from a title: its ASCII capital letters
// for titles longer than seven bytes, otherwise the title itself.
func Acronym(title string) string {
	if len(title) <= acronymMinLength {
		return title
	}
	var b strings.Builder
	for _, r := range title {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
