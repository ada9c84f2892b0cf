// Package subtitles reads, translates, and writes subtitle files.
//
// Files are decoded to UTF-8 whatever their original charset, parsed as SRT,
// SSA/ASS, or WebVTT, and translated one cue at a time. Lines with
// pathological repetition are collapsed before they reach the model and
// re-expanded afterwards. Cue timings are never touched. Output is written
// atomically next to the input under a per-output file lock, and a cancelled
// run writes nothing.
package subtitles
