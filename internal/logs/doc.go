// Package logs reads the daemon's JSON log file for the logs command: the last
// N lines, an fsnotify-driven follow, and a compact one-line rendering of
// each record.
package logs
