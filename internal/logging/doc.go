// Package logging assembles the slog loggers used by the eris daemon and CLI.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// field names every component shares (component, event_type, error_hint,
// impact, novel). Log lines from the recognition loop carry the candidate
// novel as a subject so a tail of the console shows which title a decision
// was about.
//
// Use NewNop in tests and wiring code that has no logger to hand.
package logging
