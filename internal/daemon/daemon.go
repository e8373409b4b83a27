package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"eris/internal/config"
	"eris/internal/display"
	"eris/internal/library"
	"eris/internal/logging"
	"eris/internal/novel"
	"eris/internal/tracker"
	"eris/internal/windows"
)

// Options configures optional daemon behavior.
type Options struct {
	// ConfigPath is watched for edits while the daemon runs. Empty disables reloads.
	ConfigPath string
	// Lister overrides the window lister built from the config.
	Lister windows.Lister
}

// Daemon coordinates recognition and enforces single-instance execution.
type Daemon struct {
	store  *library.Store
	sink   display.Sink
	logger *slog.Logger
	opts   Options

	lockPath string
	lock     *flock.Flock

	catalog *catalog
	runtime *runtime
	monitor *monitor

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	watchWG   sync.WaitGroup

	// mu guards cfg and monitor restarts.
	mu  sync.Mutex
	cfg *config.Config
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Enabled      bool
	Monitoring   bool
	Phase        tracker.Phase
	Candidate    string
	LibraryPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, sink display.Sink, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || store == nil || sink == nil {
		return nil, errors.New("daemon requires config, library store, and display sink")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lister := opts.Lister
	if lister == nil {
		built, err := windows.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("window lister: %w", err)
		}
		lister = built
	}

	d := &Daemon{
		store:    store,
		sink:     sink,
		logger:   logger,
		opts:     opts,
		cfg:      cfg,
		lockPath: cfg.Paths.LockPath,
		lock:     flock.New(cfg.Paths.LockPath),
	}
	d.catalog = newCatalog(store, cfg.IndexCacheTTL(), cfg.Recognition.FuzzyThreshold, logging.NewComponentLogger(logger, "matcher"))
	d.runtime = newRuntime(store, sink, d.catalog, logging.NewComponentLogger(logger, "runtime"))
	d.monitor = newMonitor(lister, d.catalog, d.runtime, logging.NewComponentLogger(logger, "window-monitor"))
	return d, nil
}

// Start acquires the daemon lock, starts the runtime and, when recognition is
// enabled, the window monitor.
func (d *Daemon) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.ensureLockDir(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another eris daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	// The runtime outlives ctx so Stop can still clear the display through it.
	if err := d.runtime.Start(context.WithoutCancel(ctx)); err != nil {
		d.cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start runtime: %w", err)
	}

	d.mu.Lock()
	cfg := d.cfg
	startErr := d.startMonitorLocked(cfg)
	d.mu.Unlock()
	if startErr != nil {
		d.runtime.Stop()
		d.cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start monitor: %w", startErr)
	}

	if d.opts.ConfigPath != "" {
		d.startWatcher(d.ctx, cfg)
	}

	d.running.Store(true)
	d.logger.Info("eris daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Bool("recognition_enabled", cfg.Recognition.Enabled),
	)
	return nil
}

// Stop halts recognition, clears the display and releases the daemon lock.
func (d *Daemon) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	d.watchWG.Wait()

	d.mu.Lock()
	d.monitor.Stop()
	d.mu.Unlock()

	if err := d.runtime.Reset(context.Background()); err != nil {
		d.logger.Debug("final reset failed", logging.Error(err))
	}
	d.runtime.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("eris daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// SetEnabled turns recognition on or off. Turning it off stops the monitor
// and clears the session.
func (d *Daemon) SetEnabled(ctx context.Context, enabled bool) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	next := *d.cfg
	next.Recognition.Enabled = enabled
	d.cfg = &next

	if !enabled {
		d.monitor.Stop()
		return d.runtime.Reset(ctx)
	}
	if d.monitor.Running() {
		return nil
	}
	return d.startMonitorLocked(d.cfg)
}

// ApplyConfig swaps in a reloaded config and restarts the monitor so the next
// tick uses the new settings.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.catalog.Configure(cfg.IndexCacheTTL(), cfg.Recognition.FuzzyThreshold)

	if !d.running.Load() {
		return
	}
	d.monitor.Stop()
	if !cfg.Recognition.Enabled {
		if err := d.runtime.Reset(d.ctx); err != nil {
			d.logger.Debug("reset after config change failed", logging.Error(err))
		}
		return
	}
	if err := d.startMonitorLocked(cfg); err != nil {
		logging.WarnWithContext(d.logger, "monitor restart failed", "monitor_restart_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restart the daemon"),
			logging.String(logging.FieldImpact, "reading recognition is stopped"),
		)
	}
}

// Config returns the config currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// ChapterRead records a manual progress edit through the runtime queue.
// Stored counters are replaced, not advanced.
func (d *Daemon) ChapterRead(ctx context.Context, id string, reading novel.Reading) (library.Commit, error) {
	return d.runtime.ChapterRead(ctx, id, reading, d.readPolicy())
}

// AddNovel stores n and makes the current window title re-evaluate against it.
func (d *Daemon) AddNovel(ctx context.Context, n novel.Novel) (*novel.Novel, error) {
	added, err := d.store.Add(ctx, n)
	if err != nil {
		return nil, err
	}
	d.forget(ctx, added.Title)
	return added, nil
}

// AddKeyword attaches a recognition keyword, typically one picked from the
// suggestion list, and re-evaluates the current title.
func (d *Daemon) AddKeyword(ctx context.Context, id, keyword string) (*novel.Novel, error) {
	updated, err := d.store.AddKeyword(ctx, id, keyword)
	if err != nil {
		return nil, err
	}
	d.forget(ctx, strings.TrimSpace(keyword))
	return updated, nil
}

// MarkStatus sets a novel's publication status.
func (d *Daemon) MarkStatus(ctx context.Context, id string, status novel.Status) (*novel.Novel, error) {
	updated, err := d.store.MarkStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	d.catalog.Invalidate()
	return updated, nil
}

// Move puts a novel on another reading list.
func (d *Daemon) Move(ctx context.Context, id string, list novel.ListStatus) (*novel.Novel, error) {
	updated, err := d.store.Move(ctx, id, list)
	if err != nil {
		return nil, err
	}
	d.catalog.Invalidate()
	return updated, nil
}

// Remove deletes a novel. A session tracking it is dropped so the current
// window title is matched again.
func (d *Daemon) Remove(ctx context.Context, id string) error {
	n, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := d.store.Remove(ctx, id); err != nil {
		return err
	}
	d.forget(ctx, n.Title)
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	cfg := d.Config()
	st := Status{
		Running:      d.running.Load(),
		Enabled:      cfg.Recognition.Enabled,
		Monitoring:   d.monitor.Running(),
		Phase:        tracker.PhaseIdle,
		LibraryPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if state, err := d.runtime.State(ctx); err == nil {
		st.Phase = state.Phase()
		if state.Candidate != nil {
			st.Candidate = state.Candidate.Title
		}
	}
	return st
}

func (d *Daemon) forget(ctx context.Context, title string) {
	if err := d.runtime.Forget(ctx, title); err != nil {
		d.catalog.Invalidate()
	}
}

func (d *Daemon) readPolicy() novel.ReadPolicy {
	rs := d.Config().RecognitionSettings()
	return novel.ReadPolicy{Preference: rs.Preference, AutocompleteOngoing: rs.AutocompleteOngoing}
}

func (d *Daemon) startMonitorLocked(cfg *config.Config) error {
	if !cfg.Recognition.Enabled {
		d.logger.Info("reading recognition disabled", logging.String(logging.FieldEventType, "recognition_disabled"))
		return nil
	}
	return d.monitor.Start(d.ctx, newPipeline(cfg.RecognitionSettings(), d.monitor.logger))
}

func (d *Daemon) startWatcher(ctx context.Context, cfg *config.Config) {
	watcher := config.NewWatcher(d.opts.ConfigPath, cfg, logging.NewComponentLogger(d.logger, "config"))
	watcher.OnChange(d.ApplyConfig)
	d.watchWG.Add(1)
	go func() {
		defer d.watchWG.Done()
		if err := watcher.Run(ctx); err != nil {
			logging.WarnWithContext(d.logger, "config watcher stopped", "config_watch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the daemon after fixing the config directory"),
				logging.String(logging.FieldImpact, "config edits are not applied until restart"),
			)
		}
	}()
}

func (d *Daemon) ensureLockDir() error {
	cfg := d.Config()
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	return nil
}
