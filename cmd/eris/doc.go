// Package main hosts the eris CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the recognition daemon in the
// foreground, performs library maintenance directly against the SQLite
// store, dry-runs window title recognition, and reads the status snapshot
// the daemon publishes. Configuration is resolved once per invocation so
// subcommands can focus on output.
package main
