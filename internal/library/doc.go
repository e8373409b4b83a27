// Package library persists the novel collection and its reading history in
// SQLite.
//
// A Store owns the database handle. Writes that race another process on the
// same file retry on SQLITE_BUSY. Progress commits run in one transaction that
// updates the novel row and appends the matching history entries.
package library
