// Package daemon runs the long-lived recognition process.
//
// It wires configuration, the library store, the window lister and the
// display sink into a single lifecycle with flock-based locking to prevent
// multiple instances. A monitor goroutine polls window titles and runs the
// recognition pipeline; a runtime goroutine owns the tracker state and is the
// only place that writes progress or publishes to the display.
//
// Keep orchestration here: parsing lives in recognition, matching in matcher,
// and the session rules in tracker.
package daemon
