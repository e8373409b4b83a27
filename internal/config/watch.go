package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes and notifies callbacks.
// Invalid edits are logged and the previous config stays in effect.
type Watcher struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
}

// NewWatcher watches path, starting from the already loaded current config.
func NewWatcher(path string, current *Config, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, current: current, logger: logger}
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Reload re-reads the file and notifies callbacks on success.
func (w *Watcher) Reload() error {
	cfg, _, _, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Run watches the directory holding the config file until ctx is done.
// The directory is watched instead of the file so atomic-rename saves are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.Reload(); err != nil {
				w.logger.Warn("config reload failed",
					slog.String("event_type", "config_reload_failed"),
					slog.String("error_hint", "fix the config file; the previous settings stay active"),
					slog.String("path", w.path),
					slog.Any("error", err),
				)
				continue
			}
			w.logger.Info("config reloaded", slog.String("event_type", "config_reloaded"), slog.String("path", w.path))
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error",
				slog.String("event_type", "config_watch_error"),
				slog.String("error_hint", "restart the daemon to re-arm config reloads"),
				slog.Any("error", err),
			)
		}
	}
}
