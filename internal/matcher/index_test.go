package matcher_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"eris/internal/matcher"
	"eris/internal/novel"
)

func sampleLibrary() []novel.Novel {
	return []novel.Novel{
		{ID: "mol", Title: "Mother of Learning", Keywords: []string{"MoL"}},
		{ID: "twi", Title: "The Wandering Inn"},
		{ID: "lom", Title: "Lord of Mysteries", Keywords: []string{"LotM", "Mysteries"}},
		{ID: "rz", Title: "Re:Zero"},
	}
}

func TestFindByWindowTitlePrecedence(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{})

	tests := []struct {
		name   string
		query  string
		kind   matcher.Kind
		wantID string
	}{
		{"exact title", "Mother of Learning", matcher.MatchExactTitle, "mol"},
		{"title ignores case", "the wandering inn", matcher.MatchExactTitle, "twi"},
		{"title trims", "  Re:Zero ", matcher.MatchExactTitle, "rz"},
		{"keyword", "lotm", matcher.MatchExactKeyword, "lom"},
		{"fuzzy", "Mother of Learnin", matcher.MatchFuzzy, "mol"},
		{"fuzzy suffix", "Lord of Mysteries 2", matcher.MatchFuzzy, "lom"},
		{"below threshold", "Mother of Learn", matcher.MatchNone, ""},
		{"unrelated", "Solo Leveling", matcher.MatchNone, ""},
		{"empty", "   ", matcher.MatchNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ix.FindByWindowTitle(tt.query)
			if m.Kind != tt.kind {
				t.Fatalf("got kind %s want %s", m.Kind, tt.kind)
			}
			if tt.wantID == "" {
				if m.Found() {
					t.Fatalf("expected no match, got %q", m.Novel.ID)
				}
				return
			}
			if !m.Found() || m.Novel.ID != tt.wantID {
				t.Fatalf("got %+v want novel %q", m, tt.wantID)
			}
		})
	}
}

func TestTitleBeatsKeyword(t *testing.T) {
	lib := []novel.Novel{
		{ID: "a", Title: "Alpha", Keywords: []string{"Beta"}},
		{ID: "b", Title: "Beta"},
	}
	ix := matcher.NewIndex(lib, matcher.Options{})
	m := ix.FindByWindowTitle("beta")
	if m.Kind != matcher.MatchExactTitle || m.Novel.ID != "b" {
		t.Fatalf("expected exact title to win, got %s %+v", m.Kind, m.Novel)
	}
}

func TestCustomThreshold(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{Threshold: 0.9})
	m := ix.FindByWindowTitle("Mother of Learn")
	if m.Kind != matcher.MatchFuzzy || m.Novel.ID != "mol" {
		t.Fatalf("expected fuzzy match at 0.9, got %s", m.Kind)
	}
	if m.Similarity <= 0.9 || m.Similarity >= 1 {
		t.Fatalf("unexpected similarity %v", m.Similarity)
	}
}

func TestNearMissIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{Logger: logger})

	if m := ix.FindByWindowTitle("Mother of Learn"); m.Found() {
		t.Fatalf("expected rejection, got %+v", m)
	}
	out := buf.String()
	if !strings.Contains(out, `did_you_mean="mother of learning"`) {
		t.Fatalf("expected near miss suggestion in log, got %q", out)
	}
	if !strings.Contains(out, "similarity=94%") {
		t.Fatalf("expected rounded similarity in log, got %q", out)
	}
}

func TestFindFromTokensReturnsFirstHit(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{})
	m := ix.FindFromTokens([]string{"Chapter 12", "Royal Road", "Mother of Learning"})
	if !m.Found() || m.Novel.ID != "mol" {
		t.Fatalf("unexpected match %+v", m)
	}
	if m := ix.FindFromTokens(nil); m.Found() {
		t.Fatal("expected no match for no tokens")
	}
}

func TestMatchReturnsCopy(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{})
	m := ix.FindByWindowTitle("Lord of Mysteries")
	m.Novel.Keywords[0] = "mutated"
	again := ix.FindByWindowTitle("lotm")
	if !again.Found() || again.Novel.Keywords[0] != "LotM" {
		t.Fatalf("index was mutated through a match: %+v", again.Novel)
	}
}

func TestFindPotential(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"keyword substring", "Mysteries chapter", []string{"lom"}},
		{"keyword case sensitive", "mysteries", nil},
		{"acronym", "TWI ch 3", []string{"twi"}},
		{"short title uses whole title", "Zero", []string{"rz"}},
		{"keyword and acronym", "Mo TWI", []string{"mol"}},
		{"empty", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.FindPotential(tt.text)
			ids := make([]string, 0, len(got))
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("got %v want %v", ids, tt.want)
			}
		})
	}
}

func TestFindPotentialDedupes(t *testing.T) {
	lib := []novel.Novel{{ID: "x", Title: "Xeno", Keywords: []string{"alpha", "alphabet"}}}
	ix := matcher.NewIndex(lib, matcher.Options{})
	if got := ix.FindPotential("alpha alph"); len(got) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(got))
	}
}

func TestAcronym(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The Wandering Inn", "TWI"},
		{"Re:Zero", "Re:Zero"},
		{"Mother of Learning", "ML"},
		{"Ébauche Du Néant", "DN"},
	}
	for _, tt := range tests {
		if got := matcher.Acronym(tt.in); got != tt.want {
			t.Fatalf("Acronym(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmptyIndex(t *testing.T) {
	ix := matcher.NewIndex(nil, matcher.Options{})
	if ix.Len() != 0 {
		t.Fatalf("got len %d", ix.Len())
	}
	if m := ix.FindByWindowTitle("anything"); m.Found() {
		t.Fatal("expected no match from empty index")
	}
	if got := ix.FindPotential("anything"); got != nil {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}

func TestSuggest(t *testing.T) {
	ix := matcher.NewIndex(sampleLibrary(), matcher.Options{})

	m := ix.Suggest("TWI ch 3")
	if m.Kind != matcher.MatchSuggestions || m.Found() {
		t.Fatalf("expected a suggestions result without a novel, got %+v", m)
	}
	if len(m.Suggestions) != 1 || m.Suggestions[0].ID != "twi" {
		t.Fatalf("unexpected suggestions %+v", m.Suggestions)
	}
	if m.Kind.String() != "suggestions" {
		t.Fatalf("got kind %q", m.Kind)
	}

	if none := ix.Suggest("nothing here"); none.Kind != matcher.MatchNone || none.Suggestions != nil {
		t.Fatalf("expected MatchNone, got %+v", none)
	}
}
