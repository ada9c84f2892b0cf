// Package translate adapts the Ollama client into a line translator.
//
// Two request styles are supported: general chat models receive an
// instruction prompt on /api/generate, and the dedicated translation model
// receives its instruction/input/response template on /api/chat. Responses
// are cleaned of reasoning blocks and code fences before use. Cached layers a
// translation memory over any Translator.
package translate
