// Package ollama provides a client for a local Ollama server.
//
// # Endpoints
//
//	GET  /api/tags      installed models (ListModels, HasModel)
//	POST /api/generate  single-prompt completion (Generate)
//	POST /api/chat      chat completion (Chat), used by the dedicated translation model
//	GET  /api/version   liveness (Version, HealthCheck)
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx, empty completions, and network timeouts
// with exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately. Final errors carry a
// services marker (ErrNotFound for unknown models, ErrTransient for exhausted
// retries, ErrTimeout for deadlines) so callers can branch with errors.Is.
package ollama
