// Package ipc exposes the running daemon over JSON-RPC on a Unix socket and
// ships the matching client used by the CLI.
//
// Library edits sent through the socket run inside the daemon, so the read
// tracker sees them immediately instead of after the index cache expires.
// Callers that get an error from Dial should fall back to the library store.
package ipc
