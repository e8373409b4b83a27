package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"eris/internal/novel"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	LibraryPath string `toml:"library_path"` // Default: <data_dir>/library.db
	StatusFile  string `toml:"status_file"`  // Default: <data_dir>/status.json
	LockPath    string `toml:"lock_path"`    // Default: <data_dir>/eris.lock
	SocketPath  string `toml:"socket_path"`  // Default: <data_dir>/eris.sock
}

// Recognition contains the window-title recognition settings.
type Recognition struct {
	Enabled               bool     `toml:"enabled"`
	IntervalSeconds       int      `toml:"interval_seconds"`
	DelaySeconds          int      `toml:"delay_seconds"`
	ChapterReadPreference string   `toml:"chapter_read_preference"`
	AutocompleteOngoing   bool     `toml:"autocomplete_ongoing"`
	TitleKeywords         []string `toml:"title_keywords"`
	IgnoreKeywords        []string `toml:"ignore_keywords"`
	NavigateOnMatch       bool     `toml:"navigate_on_match"`
	NavigateOnNoMatch     bool     `toml:"navigate_on_no_match"`
	// FuzzyThreshold is the bigram similarity a title must exceed to count
	// as a fuzzy match. Default: 0.97
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	// ReadingMinTokens overrides per-site token thresholds, keyed by site
	// name (royal_road, wuxiaworld, boxnovel, ...).
	ReadingMinTokens map[string]int `toml:"reading_min_tokens"`
}

// Windows configures the command that lists open window titles.
type Windows struct {
	Command        []string `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Library contains storage tuning.
type Library struct {
	BusyRetries          int `toml:"busy_retries"`
	BusyRetryDelayMillis int `toml:"busy_retry_delay_ms"`
	IndexCacheSeconds    int `toml:"index_cache_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for eris.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Recognition Recognition `toml:"recognition"`
	Windows     Windows     `toml:"windows"`
	Library     Library     `toml:"library"`
	Logging     Logging     `toml:"logging"`
}

// RecognitionSettings is the immutable per-tick snapshot of recognition settings.
type RecognitionSettings struct {
	Enabled             bool
	Interval            time.Duration
	Delay               time.Duration
	Preference          novel.Preference
	AutocompleteOngoing bool
	TitleKeywords       []string
	IgnoreKeywords      []string
	NavigateOnMatch     bool
	NavigateOnNoMatch   bool
	FuzzyThreshold      float64
	ReadingMinTokens    map[string]int
}

// RecognitionSettings returns a copy of the recognition settings. Call it on a
// validated config; an invalid preference falls back to current.
func (c *Config) RecognitionSettings() RecognitionSettings {
	pref, err := novel.ParsePreference(c.Recognition.ChapterReadPreference)
	if err != nil {
		pref = novel.PreferCurrent
	}
	overrides := make(map[string]int, len(c.Recognition.ReadingMinTokens))
	for k, v := range c.Recognition.ReadingMinTokens {
		overrides[k] = v
	}
	return RecognitionSettings{
		Enabled:             c.Recognition.Enabled,
		Interval:            time.Duration(c.Recognition.IntervalSeconds) * time.Second,
		Delay:               time.Duration(c.Recognition.DelaySeconds) * time.Second,
		Preference:          pref,
		AutocompleteOngoing: c.Recognition.AutocompleteOngoing,
		TitleKeywords:       append([]string(nil), c.Recognition.TitleKeywords...),
		IgnoreKeywords:      append([]string(nil), c.Recognition.IgnoreKeywords...),
		NavigateOnMatch:     c.Recognition.NavigateOnMatch,
		NavigateOnNoMatch:   c.Recognition.NavigateOnNoMatch,
		FuzzyThreshold:      c.Recognition.FuzzyThreshold,
		ReadingMinTokens:    overrides,
	}
}

// WindowCommandTimeout returns the per-query timeout for the window command.
func (c *Config) WindowCommandTimeout() time.Duration {
	return time.Duration(c.Windows.TimeoutSeconds) * time.Second
}

// IndexCacheTTL returns how long a built title index may be reused.
func (c *Config) IndexCacheTTL() time.Duration {
	return time.Duration(c.Library.IndexCacheSeconds) * time.Second
}

// BusyRetryDelay returns the base delay between sqlite busy retries.
func (c *Config) BusyRetryDelay() time.Duration {
	return time.Duration(c.Library.BusyRetryDelayMillis) * time.Millisecond
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/eris/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("eris.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	for _, file := range []string{c.Paths.LibraryPath, c.Paths.StatusFile, c.Paths.LockPath, c.Paths.SocketPath} {
		if strings.TrimSpace(file) != "" {
			dirs = append(dirs, filepath.Dir(file))
		}
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
