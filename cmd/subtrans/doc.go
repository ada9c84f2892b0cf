// Command subtrans translates subtitle files through a local Ollama server.
//
// Usage:
//
//	subtrans translate [--from ja] [--to zh] movie.ja.srt
//	subtrans detect "そうそうそうそう、わかった"
//	subtrans health [--json]
//	subtrans cache stats | clear
//	subtrans config init | validate
//
// Configuration is read from ~/.config/subtrans/config.toml, or ./subtrans.toml
// when the former does not exist; pass --config to use another file.
package main
