// Package tracker holds the reading-session state machine.
//
// Step is pure: it takes the current State and one tick's Observation and
// returns the next State plus the side effects the caller must perform. The
// daemon runtime is the only owner of a State value.
package tracker

import (
	"strconv"
	"strings"
	"time"

	"eris/internal/novel"
	"eris/internal/recognition"
)

// Phase names where a session stands.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseConfirmed Phase = "confirmed"
	PhaseUnmatched Phase = "unmatched"
)

// State is the in-memory reading session.
type State struct {
	Candidate        *novel.Novel
	TitleKey         string
	Deadline         time.Time
	DeadlineConsumed bool
	// Stale forces the next tick to republish even when the title is unchanged.
	Stale bool
}

// Phase derives the phase from the state fields.
func (s State) Phase() Phase {
	switch {
	case s.TitleKey == "":
		return PhaseIdle
	case s.Candidate == nil:
		return PhaseUnmatched
	case s.DeadlineConsumed:
		return PhaseConfirmed
	default:
		return PhasePending
	}
}

// Observation is the outcome of one recognition tick.
type Observation struct {
	// Present is false when no window title was selected.
	Present   bool
	Title     string
	Data      recognition.Data
	NovelName string
	// Novel is the library record the title resolved to, if any.
	Novel *novel.Novel
}

// ObservationFrom builds an observation from a parsed title and its match.
func ObservationFrom(t recognition.Title, matched *novel.Novel) Observation {
	name := t.NovelName
	if matched != nil {
		name = matched.Title
	}
	return Observation{
		Present:   true,
		Title:     t.Clean,
		Data:      t.Data,
		NovelName: name,
		Novel:     matched,
	}
}

// Settings are the parts of the recognition settings Step reads.
type Settings struct {
	Delay             time.Duration
	NavigateOnMatch   bool
	NavigateOnNoMatch bool
}

// Command is a side effect requested by Step.
type Command interface {
	command()
}

// PublishNotReading clears the reading-now display.
type PublishNotReading struct{}

// PublishReadingNow shows the current title. Novel is nil for unknown titles.
type PublishReadingNow struct {
	Novel     *novel.Novel
	NovelName string
	Data      recognition.Data
}

// PublishSuggestions asks for loose matches of Query to be shown under Keyword.
type PublishSuggestions struct {
	Query   string
	Keyword string
}

// CommitProgress records an automatic chapter read for NovelID.
type CommitProgress struct {
	NovelID string
	Title   string
	Reading novel.Reading
}

// NavigateToReading asks the display to switch to the reading view.
type NavigateToReading struct{}

// Wait reports the time left before a pending session is committed.
type Wait struct {
	Remaining time.Duration
}

func (PublishNotReading) command()  {}
func (PublishReadingNow) command()  {}
func (PublishSuggestions) command() {}
func (CommitProgress) command()     {}
func (NavigateToReading) command()  {}
func (Wait) command()               {}

// Step advances the session by one tick. Display commands are emitted only
// when the title key changes or the state is stale, so a repeated unmatched
// title shows its suggestions once rather than on every tick.
func Step(s State, obs Observation, settings Settings, now time.Time) (State, []Command) {
	if !obs.Present {
		if s.TitleKey == "" {
			return s, nil
		}
		return State{}, []Command{PublishNotReading{}}
	}

	next := s
	matched := obs.Novel != nil
	if !novel.Same(s.Candidate, obs.Novel) {
		next.Candidate = cloneNovel(obs.Novel)
		next.Deadline = time.Time{}
		next.DeadlineConsumed = false
	}

	key := titleKey(obs.Title, matched)
	unchanged := s.TitleKey == key && !s.Stale
	next.TitleKey = key
	next.Stale = false
	if unchanged && next.DeadlineConsumed {
		return next, nil
	}

	var cmds []Command
	if matched {
		switch {
		case next.Deadline.IsZero():
			next.Deadline = now.Add(settings.Delay)
			next.DeadlineConsumed = false
		case !now.Before(next.Deadline):
			cmds = append(cmds, CommitProgress{
				NovelID: next.Candidate.ID,
				Title:   next.Candidate.Title,
				Reading: obs.Data.Progress(),
			})
			next.Deadline = time.Time{}
			next.DeadlineConsumed = true
		default:
			cmds = append(cmds, Wait{Remaining: next.Deadline.Sub(now)})
		}
	}

	if unchanged {
		return next, cmds
	}

	if !matched {
		cmds = append(cmds, PublishSuggestions{Query: obs.NovelName, Keyword: firstWord(obs.NovelName)})
	}
	cmds = append(cmds, PublishReadingNow{Novel: cloneNovel(obs.Novel), NovelName: obs.NovelName, Data: obs.Data})
	if (matched && settings.NavigateOnMatch) || (!matched && settings.NavigateOnNoMatch) {
		cmds = append(cmds, NavigateToReading{})
	}
	return next, cmds
}

// Forget marks the session stale and drops any pending deadline when the held
// title mentions title, so the next tick republishes against fresh library data.
func Forget(s State, title string) State {
	if s.TitleKey == "" || title == "" || !strings.Contains(s.TitleKey, title) {
		return s
	}
	s.Stale = true
	s.Deadline = time.Time{}
	s.DeadlineConsumed = false
	return s
}

func titleKey(title string, matched bool) string {
	return title + "-" + strconv.FormatBool(matched)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func cloneNovel(n *novel.Novel) *novel.Novel {
	if n == nil {
		return nil
	}
	c := n.Clone()
	return &c
}
