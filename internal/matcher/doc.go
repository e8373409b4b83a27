// Package matcher resolves candidate title strings to library novels.
//
// Lookups run in strict precedence: exact title, exact keyword, then a bigram
// similarity search over lower-cased titles that only accepts near-identical
// hits. When nothing matches, FindPotential offers loose suggestions built from
// keyword substrings and title acronyms.
//
// An Index is an immutable snapshot; rebuild it after the library changes.
package matcher
