package main

import (
	"strings"

	"eris/internal/daemonrun"
)

const (
	configEnv   = "ERIS_CONFIG"
	logLevelEnv = "ERIS_LOG_LEVEL"
)

// runOptions watches the config file only when one was actually loaded.
func runOptions(path string, exists bool, level string) daemonrun.Options {
	opts := daemonrun.Options{LogLevel: strings.TrimSpace(level)}
	if exists {
		opts.ConfigPath = path
	}
	return opts
}
