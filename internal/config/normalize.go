package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecognition()
	c.normalizeWindows()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	derived := []struct {
		field    *string
		name     string
		fallback string
	}{
		{&c.Paths.LibraryPath, "paths.library_path", defaultLibraryFile},
		{&c.Paths.StatusFile, "paths.status_file", defaultStatusFile},
		{&c.Paths.LockPath, "paths.lock_path", defaultLockFile},
		{&c.Paths.SocketPath, "paths.socket_path", defaultSocketFile},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = filepath.Join(c.Paths.DataDir, d.fallback)
		}
		if *d.field, err = expandPath(*d.field); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

func (c *Config) normalizeRecognition() {
	c.Recognition.TitleKeywords = cleanKeywords(c.Recognition.TitleKeywords)
	c.Recognition.IgnoreKeywords = cleanKeywords(c.Recognition.IgnoreKeywords)
	c.Recognition.ChapterReadPreference = strings.ToLower(strings.TrimSpace(c.Recognition.ChapterReadPreference))
	if c.Recognition.ChapterReadPreference == "" {
		c.Recognition.ChapterReadPreference = defaultReadPreference
	}
	if c.Recognition.FuzzyThreshold == 0 {
		c.Recognition.FuzzyThreshold = defaultFuzzyThreshold
	}
	if len(c.Recognition.ReadingMinTokens) > 0 {
		cleaned := make(map[string]int, len(c.Recognition.ReadingMinTokens))
		for site, n := range c.Recognition.ReadingMinTokens {
			key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(site)), "-", "_")
			if key == "" {
				continue
			}
			cleaned[key] = n
		}
		c.Recognition.ReadingMinTokens = cleaned
	}
}

// cleanKeywords trims entries and drops empties and case-insensitive duplicates.
func cleanKeywords(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (c *Config) normalizeWindows() {
	cmd := make([]string, 0, len(c.Windows.Command))
	for _, part := range c.Windows.Command {
		if part = strings.TrimSpace(part); part != "" {
			cmd = append(cmd, part)
		}
	}
	if len(cmd) == 0 {
		cmd = append(cmd, defaultWindowCommand...)
	}
	c.Windows.Command = cmd
	if c.Windows.TimeoutSeconds <= 0 {
		c.Windows.TimeoutSeconds = defaultWindowTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
