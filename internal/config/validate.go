package config

import (
	"errors"
	"fmt"
	"sort"

	"eris/internal/novel"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRecognition() error {
	r := c.Recognition
	if r.IntervalSeconds < 1 {
		return errors.New("recognition.interval_seconds must be at least 1")
	}
	if r.DelaySeconds < 0 {
		return errors.New("recognition.delay_seconds must not be negative")
	}
	if _, err := novel.ParsePreference(r.ChapterReadPreference); err != nil {
		return fmt.Errorf("recognition.chapter_read_preference: %w", err)
	}
	if r.FuzzyThreshold < minFuzzyThreshold || r.FuzzyThreshold > 1 {
		return fmt.Errorf("recognition.fuzzy_threshold must be between %.1f and 1", minFuzzyThreshold)
	}
	sites := make([]string, 0, len(r.ReadingMinTokens))
	for site := range r.ReadingMinTokens {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	for _, site := range sites {
		if r.ReadingMinTokens[site] < 1 {
			return fmt.Errorf("recognition.reading_min_tokens.%s must be positive", site)
		}
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.BusyRetries < 0 {
		return errors.New("library.busy_retries must not be negative")
	}
	if c.Library.BusyRetryDelayMillis < 0 {
		return errors.New("library.busy_retry_delay_ms must not be negative")
	}
	if c.Library.IndexCacheSeconds < 0 {
		return errors.New("library.index_cache_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
