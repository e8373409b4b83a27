package config

const (
	defaultDataDir              = "~/.local/share/eris"
	defaultLogDir               = "~/.local/share/eris/logs"
	defaultLibraryFile          = "library.db"
	defaultStatusFile           = "status.json"
	defaultLockFile             = "eris.lock"
	defaultSocketFile           = "eris.sock"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultIntervalSeconds      = 3
	defaultDelaySeconds         = 120
	defaultReadPreference       = "current"
	defaultFuzzyThreshold       = 0.97
	defaultWindowTimeoutSeconds = 2
	defaultBusyRetries          = 5
	defaultBusyRetryDelayMillis = 100
	defaultIndexCacheSeconds    = 30
	minFuzzyThreshold           = 0.9
)

var (
	defaultTitleKeywords  = []string{"Chapter", "Novel Updates", "Royal Road", "Scribble Hub"}
	defaultIgnoreKeywords = []string{"Manga", "Manhua", "Manhwa"}
	defaultWindowCommand  = []string{"wmctrl", "-l"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Recognition: Recognition{
			Enabled:               true,
			IntervalSeconds:       defaultIntervalSeconds,
			DelaySeconds:          defaultDelaySeconds,
			ChapterReadPreference: defaultReadPreference,
			AutocompleteOngoing:   false,
			TitleKeywords:         append([]string(nil), defaultTitleKeywords...),
			IgnoreKeywords:        append([]string(nil), defaultIgnoreKeywords...),
			NavigateOnMatch:       true,
			NavigateOnNoMatch:     true,
			FuzzyThreshold:        defaultFuzzyThreshold,
		},
		Windows: Windows{
			Command:        append([]string(nil), defaultWindowCommand...),
			TimeoutSeconds: defaultWindowTimeoutSeconds,
		},
		Library: Library{
			BusyRetries:          defaultBusyRetries,
			BusyRetryDelayMillis: defaultBusyRetryDelayMillis,
			IndexCacheSeconds:    defaultIndexCacheSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
