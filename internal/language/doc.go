// Package language normalizes language codes and names for the languages
// subtrans can translate.
//
// Codes arrive as ISO 639-1/639-2 identifiers, English or native words, or
// BCP 47 tags; everything is reduced to ISO 639-1. Detect guesses the source
// language of subtitle text when the caller asks for "auto".
package language
