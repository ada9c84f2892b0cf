// Package repetition compresses pathological repetition in subtitle lines
// before they reach a translation model and restores a marker for it
// afterwards.
//
// Local models stall or loop on inputs such as "ああああああ" or
// "はいはいはいはい". Detect collapses the repetition into a short core string
// plus descriptors; the caller translates the core; Reconstruct prefixes or
// substitutes "<unit>*<count>" markers into the translation.
//
// # Detection order
//
// Families are tried in a fixed order and the first match wins:
//
//  1. Phrase: a 1-3 rune unit repeated at least 4 times, optionally separated
//     by punctuation. Lexicon phrases are tried as literal patterns first.
//  2. Continuous: any rune repeated at least 4 times in a row. All runs are
//     collapsed.
//  3. Scattered: the first rune (in first-seen order) occurring at least 8
//     times is collapsed to its first position, keeping the separators that
//     follow that first occurrence.
//
// Lines with fewer than 5 non-whitespace runes are never treated as
// repetitive.
//
// Both operations are pure and safe for concurrent use.
package repetition
