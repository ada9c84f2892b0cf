// Package services defines shared utilities consumed by the translation
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, subtitle paths, cue indexes, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures classify into
//     consistent exit codes and retry decisions.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the tool.
package services
