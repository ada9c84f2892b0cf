// Package logging assembles structured slog loggers and formatting helpers used
// across subtrans.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (console output plus an optional JSON log file), and exposes
// context-aware helpers so translation code can automatically tag log lines
// with run IDs, subtitle paths, and cue indexes. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
