package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"eris/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LibraryPath = filepath.Join(base, "data", "library.db")
	cfgVal.Paths.StatusFile = filepath.Join(base, "data", "status.json")
	cfgVal.Paths.LockPath = filepath.Join(base, "data", "eris.lock")
	cfgVal.Paths.SocketPath = filepath.Join(base, "eris.sock")
	cfgVal.Recognition.IntervalSeconds = 1
	cfgVal.Library.BusyRetryDelayMillis = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDelay overrides the confirmation delay in seconds.
func WithDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recognition.DelaySeconds = seconds
	}
}

// WithKeywords replaces the include and ignore keyword lists.
func WithKeywords(include, ignore []string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recognition.TitleKeywords = include
		b.cfg.Recognition.IgnoreKeywords = ignore
	}
}

// WithWindowTitles writes a stub window-listing script that prints titles in
// wmctrl's format and points the window command at it.
func WithWindowTitles(titles ...string) ConfigOption {
	return func(b *configBuilder) {
		script := StubWindowCommand(b.t, b.baseDir, titles...)
		b.cfg.Windows.Command = []string{script}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// WriteConfigFile writes body to a config file under the test directory and
// returns its path.
func WriteConfigFile(t testing.TB, cfg *config.Config, body string) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
