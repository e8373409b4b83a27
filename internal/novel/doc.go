// Package novel defines the library record for a tracked web novel and the
// progress policy applied when a chapter read is committed.
//
// ApplyReading is pure: callers (the library store) load the record, apply the
// policy, and persist the returned copy alongside its Changes.
package novel
