// Package config loads, normalizes, and validates subtrans configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OLLAMA_HOST and SUBTRANS_MODEL. Language settings are canonicalized to
// ISO 639-1 codes so downstream code never sees word forms or BCP 47 tags.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
