package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"eris/internal/config"
	"eris/internal/logging"
	"eris/internal/matcher"
	"eris/internal/novel"
	"eris/internal/recognition"
	"eris/internal/tracker"
	"eris/internal/windows"
)

const (
	minPollInterval   = time.Second
	queryWarnInterval = time.Minute
)

// pipeline is the immutable per-run recognition setup built from one
// settings snapshot.
type pipeline struct {
	interval time.Duration
	filter   *recognition.KeywordFilter
	parser   *recognition.Parser
	settings tickSettings
}

func newPipeline(rs config.RecognitionSettings, logger *slog.Logger) pipeline {
	overrides := make(map[recognition.Site]int, len(rs.ReadingMinTokens))
	for key, value := range rs.ReadingMinTokens {
		site, err := recognition.ParseSite(key)
		if err != nil {
			logger.Debug("ignoring reading token override", logging.String("site", key), logging.Error(err))
			continue
		}
		overrides[site] = value
	}
	interval := rs.Interval
	if interval < minPollInterval {
		interval = minPollInterval
	}
	return pipeline{
		interval: interval,
		filter:   recognition.NewKeywordFilter(rs.TitleKeywords, rs.IgnoreKeywords),
		parser:   recognition.NewParser(recognition.DefaultHeuristics().WithOverrides(overrides), logger),
		settings: tickSettings{
			tracker: tracker.Settings{
				Delay:             rs.Delay,
				NavigateOnMatch:   rs.NavigateOnMatch,
				NavigateOnNoMatch: rs.NavigateOnNoMatch,
			},
			policy: novel.ReadPolicy{
				Preference:          rs.Preference,
				AutocompleteOngoing: rs.AutocompleteOngoing,
			},
		},
	}
}

// monitor polls window titles on a fixed interval and hands each tick's
// observation to the runtime.
type monitor struct {
	lister  windows.Lister
	catalog *catalog
	runtime *runtime
	logger  *slog.Logger

	queryWarn rate.Sometimes

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newMonitor(lister windows.Lister, cat *catalog, rt *runtime, logger *slog.Logger) *monitor {
	return &monitor{
		lister:    lister,
		catalog:   cat,
		runtime:   rt,
		logger:    logger,
		queryWarn: rate.Sometimes{First: 1, Interval: queryWarnInterval},
	}
}

func (m *monitor) Start(ctx context.Context, p pipeline) error {
	if m == nil {
		return errors.New("window monitor unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("window monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(runCtx, p)

	m.logger.Info("window monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.Duration("interval", p.interval),
		logging.Duration("delay", p.settings.tracker.Delay),
	)
	return nil
}

// Stop cancels the poll loop and waits for any in-flight tick to finish.
func (m *monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("window monitor stopped", logging.String(logging.FieldEventType, "monitor_stopped"))
}

func (m *monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *monitor) loop(ctx context.Context, p pipeline) {
	defer m.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	m.tick(ctx, p)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, p)
		}
	}
}

// tick runs one recognition pass. It returns once the runtime has applied
// the transition, so ticks never overlap.
func (m *monitor) tick(ctx context.Context, p pipeline) {
	titles, err := m.lister.WindowTitles(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.queryWarn.Do(func() {
			logging.WarnWithContext(m.logger, "window title query failed", "window_query_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check windows.command in the config and that the tool is installed"),
				logging.String(logging.FieldImpact, "reading recognition is paused until the query succeeds"),
			)
		})
		return
	}

	obs, ok := m.observe(ctx, p, titles)
	if !ok {
		return
	}
	if err := m.runtime.Observe(ctx, obs, p.settings); err != nil && ctx.Err() == nil {
		m.logger.Debug("observation dropped", logging.Error(err))
	}
}

// Recognition is the outcome of running the pipeline over one window list.
type Recognition struct {
	Selection recognition.Selection
	Title     recognition.Title
	// Parsed is false when no title was selected or it had no "a - b" shape.
	Parsed bool
	Match  matcher.Match
}

// Observation converts the result into tracker input.
func (r Recognition) Observation() tracker.Observation {
	if !r.Parsed {
		return tracker.Observation{}
	}
	return tracker.ObservationFrom(r.Title, r.Match.Novel)
}

// Recognize runs selection, parsing and matching against novels without
// touching any session state.
func Recognize(rs config.RecognitionSettings, novels []novel.Novel, titles []string, logger *slog.Logger) Recognition {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := newPipeline(rs, logger)
	ix := matcher.NewIndex(novels, matcher.Options{Threshold: rs.FuzzyThreshold, Logger: logger})
	r, _ := p.recognize(titles, func() (*matcher.Index, error) { return ix, nil }, logger)
	return r
}

// recognize selects and parses a title, loading the index only when there is
// something to match.
func (p pipeline) recognize(titles []string, index func() (*matcher.Index, error), logger *slog.Logger) (Recognition, error) {
	var r Recognition
	r.Selection = p.filter.Select(titles)
	if !r.Selection.Found {
		if r.Selection.Ignored != "" {
			logger.Debug("window scan aborted by ignore keyword", logging.String("keyword", r.Selection.Ignored))
		}
		return r, nil
	}

	title, ok := p.parser.Parse(r.Selection.Title, true)
	r.Title = title
	if !ok {
		logger.Debug("window title has no recognizable shape",
			logging.String(logging.FieldWindowTitle, r.Selection.Title))
		return r, nil
	}
	r.Parsed = true

	ix, err := index()
	if err != nil {
		return r, err
	}
	r.Match = ix.FindFromTokens(title.Tokens)
	if !r.Match.Found() && title.NovelName != "?" {
		r.Match = ix.FindByWindowTitle(title.NovelName)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldWindowTitle, title.Clean),
		logging.String("site", title.Site.String()),
		logging.String("match", r.Match.Kind.String()),
	}
	if r.Match.Found() {
		attrs = append(attrs, logging.NovelAttrs(r.Match.Novel.ID, r.Match.Novel.Title)...)
	}
	logger.Debug("window title recognized", logging.Args(attrs...)...)
	return r, nil
}

// observe runs the pipeline over the open window titles. It reports false
// when the tick should be skipped.
func (m *monitor) observe(ctx context.Context, p pipeline, titles []string) (tracker.Observation, bool) {
	r, err := p.recognize(titles, func() (*matcher.Index, error) { return m.catalog.Index(ctx) }, m.logger)
	if err != nil {
		m.queryWarn.Do(func() {
			logging.WarnWithContext(m.logger, "library index unavailable", "index_load_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the library database"),
				logging.String(logging.FieldImpact, "reading recognition is paused until the library loads"),
			)
		})
		return tracker.Observation{}, false
	}
	return r.Observation(), true
}
