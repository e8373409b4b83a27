package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eris/internal/display"
	"eris/internal/library"
	"eris/internal/logging"
	"eris/internal/novel"
	"eris/internal/tracker"
)

// ErrNotRunning is returned when a request reaches a stopped daemon.
var ErrNotRunning = errors.New("daemon not running")

// progressStore is the library surface the runtime writes through.
type progressStore interface {
	novelLister
	CommitProgress(ctx context.Context, id string, reading novel.Reading, exact bool, policy novel.ReadPolicy) (library.Commit, error)
}

// tickSettings is the per-tick settings snapshot handed to the runtime.
type tickSettings struct {
	tracker tracker.Settings
	policy  novel.ReadPolicy
}

// runtime is the single consumer that owns the tracker state. Every state
// transition, library write and display publish happens on its goroutine.
type runtime struct {
	store   progressStore
	sink    display.Sink
	catalog *catalog
	logger  *slog.Logger
	now     func() time.Time

	requests chan func(context.Context)

	// state is only touched from the run goroutine.
	state tracker.State

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newRuntime(store progressStore, sink display.Sink, cat *catalog, logger *slog.Logger) *runtime {
	return &runtime{
		store:    store,
		sink:     sink,
		catalog:  cat,
		logger:   logger,
		now:      time.Now,
		requests: make(chan func(context.Context)),
	}
}

func (r *runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("runtime already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.quit = make(chan struct{})
	r.running = true

	r.wg.Add(1)
	go r.run(runCtx, r.quit)
	return nil
}

func (r *runtime) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

func (r *runtime) run(ctx context.Context, quit chan struct{}) {
	defer r.wg.Done()
	defer close(quit)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.requests:
			fn(ctx)
		}
	}
}

// submit runs fn on the runtime goroutine and waits for it to finish.
func (r *runtime) submit(ctx context.Context, fn func(context.Context)) error {
	r.mu.Lock()
	quit := r.quit
	running := r.running
	r.mu.Unlock()
	if !running || quit == nil {
		return ErrNotRunning
	}

	done := make(chan struct{})
	wrapped := func(runCtx context.Context) {
		defer close(done)
		fn(runCtx)
	}
	select {
	case r.requests <- wrapped:
	case <-quit:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Observe applies one tick's observation.
func (r *runtime) Observe(ctx context.Context, obs tracker.Observation, settings tickSettings) error {
	return r.submit(ctx, func(runCtx context.Context) {
		next, cmds := tracker.Step(r.state, obs, settings.tracker, r.now())
		r.state = next
		r.execute(runCtx, cmds, settings.policy)
	})
}

// Reset clears the session, publishing "not reading" if something was shown.
func (r *runtime) Reset(ctx context.Context) error {
	return r.submit(ctx, func(runCtx context.Context) {
		next, cmds := tracker.Step(r.state, tracker.Observation{}, tracker.Settings{}, r.now())
		r.state = next
		r.execute(runCtx, cmds, novel.ReadPolicy{})
	})
}

// Forget marks the session stale for title and drops the cached index.
func (r *runtime) Forget(ctx context.Context, title string) error {
	return r.submit(ctx, func(context.Context) {
		r.catalog.Invalidate()
		r.state = tracker.Forget(r.state, title)
	})
}

// ChapterRead records a manual progress edit.
func (r *runtime) ChapterRead(ctx context.Context, id string, reading novel.Reading, policy novel.ReadPolicy) (library.Commit, error) {
	var (
		commit library.Commit
		err    error
	)
	if submitErr := r.submit(ctx, func(runCtx context.Context) {
		commit, err = r.store.CommitProgress(runCtx, id, reading, true, policy)
		if err == nil && commit.Changes.Applied {
			r.catalog.Invalidate()
		}
	}); submitErr != nil {
		return library.Commit{}, submitErr
	}
	return commit, err
}

// State returns a copy of the tracker state.
func (r *runtime) State(ctx context.Context) (tracker.State, error) {
	var st tracker.State
	err := r.submit(ctx, func(context.Context) {
		st = r.state
	})
	return st, err
}

func (r *runtime) execute(ctx context.Context, cmds []tracker.Command, policy novel.ReadPolicy) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case tracker.PublishNotReading:
			r.sink.PublishNotReading()
		case tracker.PublishReadingNow:
			r.sink.PublishReadingNow(display.ReadingNow{
				Novel:        c.Novel,
				NovelName:    c.NovelName,
				Source:       c.Data.Source,
				Volume:       c.Data.Volume,
				Chapter:      c.Data.Chapter,
				SideStory:    c.Data.SideStory,
				ChapterTitle: c.Data.ChapterTitle,
				Reading:      c.Data.Reading,
			})
		case tracker.PublishSuggestions:
			r.publishSuggestions(ctx, c)
		case tracker.CommitProgress:
			r.commit(ctx, c, policy)
		case tracker.NavigateToReading:
			r.sink.RequestNavigateToReadingView()
		case tracker.Wait:
			r.logger.Debug("waiting before progress commit", logging.Duration("remaining", c.Remaining))
		}
	}
}

func (r *runtime) publishSuggestions(ctx context.Context, c tracker.PublishSuggestions) {
	ix, err := r.catalog.Index(ctx)
	if err != nil {
		logging.WarnWithContext(r.logger, "suggestions unavailable", "suggestions_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the library database"),
			logging.String(logging.FieldImpact, "no suggestions shown for an unknown title"),
		)
		return
	}
	r.sink.PublishSuggestions(c.Keyword, ix.Suggest(c.Query).Suggestions)
}

func (r *runtime) commit(ctx context.Context, c tracker.CommitProgress, policy novel.ReadPolicy) {
	commit, err := r.store.CommitProgress(ctx, c.NovelID, c.Reading, false, policy)
	if err != nil {
		logging.WarnWithContext(r.logger, "progress commit failed", "progress_commit_failed",
			append(logging.NovelAttrs(c.NovelID, c.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the library database; the next chapter will be recorded normally"),
				logging.String(logging.FieldImpact, "this chapter was not recorded"),
			)...,
		)
		return
	}
	if commit.Changes.Applied {
		r.catalog.Invalidate()
	}
}
