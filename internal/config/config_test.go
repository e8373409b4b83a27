package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"eris/internal/config"
	"eris/internal/novel"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "eris", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantData := filepath.Join(tempHome, ".local", "share", "eris")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LibraryPath != filepath.Join(wantData, "library.db") {
		t.Fatalf("unexpected library path %q", cfg.Paths.LibraryPath)
	}
	if cfg.Paths.LockPath != filepath.Join(wantData, "eris.lock") {
		t.Fatalf("unexpected lock path %q", cfg.Paths.LockPath)
	}
	if cfg.Paths.SocketPath != filepath.Join(wantData, "eris.sock") {
		t.Fatalf("unexpected socket path %q", cfg.Paths.SocketPath)
	}
	if !cfg.Recognition.Enabled {
		t.Fatal("expected recognition enabled by default")
	}
	if cfg.Recognition.DelaySeconds != 120 || cfg.Recognition.IntervalSeconds != 3 {
		t.Fatalf("unexpected timing defaults %+v", cfg.Recognition)
	}
	if cfg.Recognition.FuzzyThreshold != 0.97 {
		t.Fatalf("unexpected fuzzy threshold %v", cfg.Recognition.FuzzyThreshold)
	}
	if strings.Join(cfg.Recognition.IgnoreKeywords, ",") != "Manga,Manhua,Manhwa" {
		t.Fatalf("unexpected ignore keywords %q", cfg.Recognition.IgnoreKeywords)
	}
	if strings.Join(cfg.Windows.Command, " ") != "wmctrl -l" {
		t.Fatalf("unexpected window command %q", cfg.Windows.Command)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"data_dir":     "~/eris-data",
			"library_path": "~/books/library.db",
		},
		"recognition": map[string]any{
			"delay_seconds":           30,
			"chapter_read_preference": "Previous",
			"title_keywords":          []string{" Chapter ", "chapter", "", "Royal Road"},
			"reading_min_tokens":      map[string]int{"Royal-Road": 3},
		},
		"windows": map[string]any{
			"command": []string{"  ", "xdotool", "search", "--name", "."},
		},
		"logging": map[string]any{"format": "JSON", "level": "DEBUG"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "eris-data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.LibraryPath != filepath.Join(tempHome, "books", "library.db") {
		t.Fatalf("unexpected library path %q", cfg.Paths.LibraryPath)
	}
	if cfg.Paths.StatusFile != filepath.Join(tempHome, "eris-data", "status.json") {
		t.Fatalf("unexpected status file %q", cfg.Paths.StatusFile)
	}
	if got := strings.Join(cfg.Recognition.TitleKeywords, "|"); got != "Chapter|Royal Road" {
		t.Fatalf("unexpected keywords %q", got)
	}
	if cfg.Recognition.ReadingMinTokens["royal_road"] != 3 {
		t.Fatalf("unexpected reading overrides %v", cfg.Recognition.ReadingMinTokens)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if strings.Join(cfg.Windows.Command, " ") != "xdotool search --name ." {
		t.Fatalf("unexpected window command %q", cfg.Windows.Command)
	}

	settings := cfg.RecognitionSettings()
	if settings.Delay != 30*time.Second || settings.Interval != 3*time.Second {
		t.Fatalf("unexpected durations %v %v", settings.Delay, settings.Interval)
	}
	if settings.Preference != novel.PreferPrevious {
		t.Fatalf("unexpected preference %q", settings.Preference)
	}
	settings.TitleKeywords[0] = "mutated"
	if cfg.Recognition.TitleKeywords[0] != "Chapter" {
		t.Fatal("settings snapshot must not alias config slices")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"interval", func(c *config.Config) { c.Recognition.IntervalSeconds = 0 }, "interval_seconds"},
		{"delay", func(c *config.Config) { c.Recognition.DelaySeconds = -1 }, "delay_seconds"},
		{"preference", func(c *config.Config) { c.Recognition.ChapterReadPreference = "next" }, "chapter_read_preference"},
		{"fuzzy low", func(c *config.Config) { c.Recognition.FuzzyThreshold = 0.5 }, "fuzzy_threshold"},
		{"fuzzy high", func(c *config.Config) { c.Recognition.FuzzyThreshold = 1.5 }, "fuzzy_threshold"},
		{"min tokens", func(c *config.Config) { c.Recognition.ReadingMinTokens = map[string]int{"boxnovel": 0} }, "reading_min_tokens.boxnovel"},
		{"retries", func(c *config.Config) { c.Library.BusyRetries = -1 }, "busy_retries"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	defaults := config.Default()
	if cfg.Recognition.DelaySeconds != defaults.Recognition.DelaySeconds {
		t.Fatalf("sample delay %d differs from default %d", cfg.Recognition.DelaySeconds, defaults.Recognition.DelaySeconds)
	}
	if strings.Join(cfg.Recognition.TitleKeywords, ",") != strings.Join(defaults.Recognition.TitleKeywords, ",") {
		t.Fatalf("sample keywords %q differ from defaults", cfg.Recognition.TitleKeywords)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[recognition\nenabled = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherReloadNotifiesAndKeepsPreviousOnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[recognition]\ndelay_seconds = 10\n")

	initial, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	w := config.NewWatcher(path, initial, nil)

	var got []int
	w.OnChange(func(cfg *config.Config) { got = append(got, cfg.Recognition.DelaySeconds) })

	writeConfig(t, path, "[recognition]\ndelay_seconds = 20\n")
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	writeConfig(t, path, "[recognition]\ninterval_seconds = 0\n")
	if err := w.Reload(); err == nil {
		t.Fatal("expected invalid config to fail reload")
	}

	if len(got) != 1 || got[0] != 20 {
		t.Fatalf("unexpected callback values %v", got)
	}
	if w.Current().Recognition.DelaySeconds != 20 {
		t.Fatalf("expected last good config to stay current, got %d", w.Current().Recognition.DelaySeconds)
	}
}

func TestWatcherRunPicksUpWrites(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[recognition]\ndelay_seconds = 10\n")

	initial, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	w := config.NewWatcher(path, initial, nil)
	changed := make(chan int, 4)
	w.OnChange(func(cfg *config.Config) { changed <- cfg.Recognition.DelaySeconds })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "[recognition]\ndelay_seconds = 45\n")

	select {
	case delay := <-changed:
		if delay != 45 {
			t.Fatalf("got delay %d want 45", delay)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
