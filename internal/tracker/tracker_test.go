package tracker

import (
	"testing"
	"time"

	"eris/internal/novel"
	"eris/internal/recognition"
)

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func matchedObs(n *novel.Novel, title string, chapter float64) Observation {
	return Observation{
		Present:   true,
		Title:     title,
		Data:      recognition.Data{Chapter: chapter, Reading: true, Source: "Royal Road"},
		NovelName: n.Title,
		Novel:     n,
	}
}

func kinds(cmds []Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		switch c.(type) {
		case PublishNotReading:
			out = append(out, "not_reading")
		case PublishReadingNow:
			out = append(out, "reading_now")
		case PublishSuggestions:
			out = append(out, "suggestions")
		case CommitProgress:
			out = append(out, "commit")
		case NavigateToReading:
			out = append(out, "navigate")
		case Wait:
			out = append(out, "wait")
		}
	}
	return out
}

func assertKinds(t *testing.T, cmds []Command, want ...string) {
	t.Helper()
	got := kinds(cmds)
	if len(got) != len(want) {
		t.Fatalf("got commands %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got commands %v want %v", got, want)
		}
	}
}

func TestDelayConfirmation(t *testing.T) {
	n := &novel.Novel{ID: "mcn", Title: "My Cool Novel"}
	settings := Settings{Delay: 120 * time.Second}
	obs := matchedObs(n, "My Cool Novel - Chapter 12 - Royal Road", 12)

	state, cmds := Step(State{}, obs, settings, epoch)
	assertKinds(t, cmds, "reading_now")
	if state.Phase() != PhasePending {
		t.Fatalf("got phase %s want pending", state.Phase())
	}
	if !state.Deadline.Equal(epoch.Add(120 * time.Second)) {
		t.Fatalf("unexpected deadline %v", state.Deadline)
	}

	state, cmds = Step(state, obs, settings, epoch.Add(60*time.Second))
	assertKinds(t, cmds, "wait")
	if w := cmds[0].(Wait); w.Remaining != 60*time.Second {
		t.Fatalf("got remaining %v want 60s", w.Remaining)
	}

	state, cmds = Step(state, obs, settings, epoch.Add(130*time.Second))
	assertKinds(t, cmds, "commit")
	commit := cmds[0].(CommitProgress)
	if commit.NovelID != "mcn" || commit.Reading.Chapter != 12 || !commit.Reading.Reading {
		t.Fatalf("unexpected commit %+v", commit)
	}
	if state.Phase() != PhaseConfirmed || !state.Deadline.IsZero() {
		t.Fatalf("unexpected state after commit %+v", state)
	}

	state, cmds = Step(state, obs, settings, epoch.Add(200*time.Second))
	if len(cmds) != 0 {
		t.Fatalf("expected unchanged confirmed title to be a no-op, got %v", kinds(cmds))
	}
	if state.Phase() != PhaseConfirmed {
		t.Fatalf("got phase %s", state.Phase())
	}
}

func TestDeadlineReachedExactlyCommits(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A"}
	settings := Settings{Delay: 10 * time.Second}
	obs := matchedObs(n, "A - Chapter 1", 1)
	state, _ := Step(State{}, obs, settings, epoch)
	_, cmds := Step(state, obs, settings, epoch.Add(10*time.Second))
	assertKinds(t, cmds, "commit")
}

func TestNextChapterRestartsDelay(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A"}
	settings := Settings{Delay: 30 * time.Second}
	first := matchedObs(n, "A - Chapter 1", 1)
	state, _ := Step(State{}, first, settings, epoch)
	state, _ = Step(state, first, settings, epoch.Add(31*time.Second))

	second := matchedObs(n, "A - Chapter 2", 2)
	state, cmds := Step(state, second, settings, epoch.Add(40*time.Second))
	assertKinds(t, cmds, "reading_now")
	if state.Phase() != PhasePending || !state.Deadline.Equal(epoch.Add(70*time.Second)) {
		t.Fatalf("expected a fresh deadline, got %+v", state)
	}
}

func TestCandidateChangeResetsDeadline(t *testing.T) {
	a := &novel.Novel{ID: "a", Title: "A"}
	b := &novel.Novel{ID: "b", Title: "B"}
	settings := Settings{Delay: 60 * time.Second}

	state, _ := Step(State{}, matchedObs(a, "A - Chapter 1", 1), settings, epoch)
	state, cmds := Step(state, matchedObs(b, "B - Chapter 9", 9), settings, epoch.Add(59*time.Second))
	assertKinds(t, cmds, "reading_now")
	if state.Candidate == nil || state.Candidate.ID != "b" {
		t.Fatalf("expected candidate b, got %+v", state.Candidate)
	}

	_, cmds = Step(state, matchedObs(b, "B - Chapter 9", 9), settings, epoch.Add(61*time.Second))
	assertKinds(t, cmds, "wait")
}

func TestNoTitleIsIdempotent(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A"}
	settings := Settings{Delay: time.Minute}
	state, _ := Step(State{}, matchedObs(n, "A - Chapter 1", 1), settings, epoch)

	state, cmds := Step(state, Observation{}, settings, epoch.Add(time.Second))
	assertKinds(t, cmds, "not_reading")
	if state.Phase() != PhaseIdle || state.Candidate != nil || !state.Deadline.IsZero() {
		t.Fatalf("expected cleared state, got %+v", state)
	}

	state, cmds = Step(state, Observation{}, settings, epoch.Add(2*time.Second))
	if len(cmds) != 0 {
		t.Fatalf("expected repeated empty ticks to be no-ops, got %v", kinds(cmds))
	}

	if _, cmds = Step(State{}, Observation{}, settings, epoch); len(cmds) != 0 {
		t.Fatalf("expected idle start to ignore empty ticks, got %v", kinds(cmds))
	}
	_ = state
}

func TestUnmatchedTitleSuggests(t *testing.T) {
	obs := Observation{Present: true, Title: "Solo Leveling - Chapter 3", NovelName: "Solo Leveling"}
	settings := Settings{Delay: time.Minute, NavigateOnNoMatch: true}

	state, cmds := Step(State{}, obs, settings, epoch)
	assertKinds(t, cmds, "suggestions", "reading_now", "navigate")
	s := cmds[0].(PublishSuggestions)
	if s.Query != "Solo Leveling" || s.Keyword != "Solo" {
		t.Fatalf("unexpected suggestion request %+v", s)
	}
	if state.Phase() != PhaseUnmatched || !state.Deadline.IsZero() {
		t.Fatalf("expected no deadline for unmatched title, got %+v", state)
	}

	_, cmds = Step(state, obs, settings, epoch.Add(3*time.Second))
	if len(cmds) != 0 {
		t.Fatalf("expected unchanged unmatched title to be quiet, got %v", kinds(cmds))
	}
}

func TestNavigationFlags(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A"}
	tests := []struct {
		name     string
		settings Settings
		obs      Observation
		want     bool
	}{
		{"match navigates", Settings{NavigateOnMatch: true}, matchedObs(n, "A - Chapter 1", 1), true},
		{"match stays", Settings{NavigateOnNoMatch: true}, matchedObs(n, "A - Chapter 1", 1), false},
		{"no match navigates", Settings{NavigateOnNoMatch: true}, Observation{Present: true, Title: "x - y", NovelName: "x"}, true},
		{"no match stays", Settings{NavigateOnMatch: true}, Observation{Present: true, Title: "x - y", NovelName: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmds := Step(State{}, tt.obs, tt.settings, epoch)
			got := false
			for _, c := range cmds {
				if _, ok := c.(NavigateToReading); ok {
					got = true
				}
			}
			if got != tt.want {
				t.Fatalf("got navigate=%v want %v (%v)", got, tt.want, kinds(cmds))
			}
		})
	}
}

func TestMatchFlagIsPartOfKey(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A"}
	settings := Settings{Delay: time.Minute}
	unmatched := Observation{Present: true, Title: "A - Chapter 1", NovelName: "A"}
	state, _ := Step(State{}, unmatched, settings, epoch)

	state, cmds := Step(state, matchedObs(n, "A - Chapter 1", 1), settings, epoch.Add(time.Second))
	assertKinds(t, cmds, "reading_now")
	if state.Phase() != PhasePending {
		t.Fatalf("got phase %s want pending", state.Phase())
	}
}

func TestForgetRepublishes(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A Tale"}
	settings := Settings{Delay: 0}
	obs := matchedObs(n, "A Tale - Chapter 1", 1)
	state, _ := Step(State{}, obs, settings, epoch)
	state, _ = Step(state, obs, settings, epoch.Add(time.Second))
	if state.Phase() != PhaseConfirmed {
		t.Fatalf("got phase %s want confirmed", state.Phase())
	}

	if same := Forget(state, "Other"); same.Stale {
		t.Fatal("expected unrelated title to leave state alone")
	}
	state = Forget(state, "A Tale")
	state, cmds := Step(state, obs, settings, epoch.Add(2*time.Second))
	assertKinds(t, cmds, "reading_now")
	if state.Stale {
		t.Fatal("expected stale flag to clear after a tick")
	}
}

func TestStepDoesNotAliasNovel(t *testing.T) {
	n := &novel.Novel{ID: "a", Title: "A", Keywords: []string{"k"}}
	state, cmds := Step(State{}, matchedObs(n, "A - Chapter 1", 1), Settings{}, epoch)
	n.Keywords[0] = "mutated"
	if state.Candidate.Keywords[0] != "k" {
		t.Fatal("state candidate aliases the observed novel")
	}
	if cmds[0].(PublishReadingNow).Novel.Keywords[0] != "k" {
		t.Fatal("published novel aliases the observed novel")
	}
}

func TestObservationFrom(t *testing.T) {
	title := recognition.Title{Clean: "X - Chapter 2", NovelName: "X"}
	if obs := ObservationFrom(title, nil); !obs.Present || obs.NovelName != "X" || obs.Novel != nil {
		t.Fatalf("unexpected unmatched observation %+v", obs)
	}
	n := &novel.Novel{ID: "x", Title: "The X"}
	if obs := ObservationFrom(title, n); obs.NovelName != "The X" || obs.Title != "X - Chapter 2" {
		t.Fatalf("unexpected matched observation %+v", obs)
	}
}
