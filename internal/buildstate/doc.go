// Package buildstate keeps the rebuild cache and build journal in a local
// SQLite file.
//
// A document is skipped on rebuild when its content fingerprint and the
// configuration snapshot both match the recorded entry and its output file
// still exists. The journal records one row per build, keyed by a UUID.
package buildstate
