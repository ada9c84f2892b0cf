// Package cache persists translated cue text in SQLite so re-running a file
// (or a file that shares lines with an earlier one) skips the model call.
//
// Entries are keyed by model, language pair, and a SHA-256 of the source text;
// the full source is stored too so hash collisions degrade to a miss. Busy
// database errors are retried with a short exponential backoff.
package cache
