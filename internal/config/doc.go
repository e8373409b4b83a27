// Package config loads, normalizes, and validates eris configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and exposes the recognition settings snapshot the poll loop reads
// at the start of every tick. Watcher reloads the file when it changes on disk
// and hands the new Config to registered callbacks.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, cleaned keyword lists, and clear validation errors.
package config
