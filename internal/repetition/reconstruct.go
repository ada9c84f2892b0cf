package repetition

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reconstructor re-expands repetition markers into translated text.
type Reconstructor struct {
	lex Lexicon
}

// NewReconstructor returns a reconstructor that translates collapsed units
// through lex.
func NewReconstructor(lex Lexicon) *Reconstructor {
	return &Reconstructor{lex: lex.clone()}
}

var defaultReconstructor = NewReconstructor(DefaultLexicon())

// Reconstruct runs the default reconstructor.
func Reconstruct(translatedCore string, descriptors []Descriptor) string {
	return defaultReconstructor.Reconstruct(translatedCore, descriptors)
}

// Reconstruct flags each collapsed repetition in translatedCore with a
// "<unit>*<count>" marker. Markers that cannot be placed in the text are
// prefixed in descriptor order. The result is a readable approximation, not a
// faithful restoration.
func (r *Reconstructor) Reconstruct(translatedCore string, descriptors []Descriptor) string {
	if len(descriptors) == 0 {
		return translatedCore
	}
	var prefix strings.Builder
	body := translatedCore
	for _, d := range descriptors {
		switch d.Kind {
		case KindPhrase:
			target := r.lex.TranslatePhrase(d.Unit)
			marker := d.Marker(target)
			if i := indexToken(body, d.Unit); i >= 0 {
				body = body[:i] + marker + body[i+len(d.Unit):]
				continue
			}
			prefix.WriteString(marker)
			body = removeFirst(body, target)
		case KindContinuous, KindScattered:
			target := r.lex.TranslateChar(d.Unit)
			prefix.WriteString(d.Marker(target))
			body = removeFirst(body, target)
		}
	}
	return prefix.String() + body
}

func removeFirst(s, token string) string {
	if i := indexToken(s, token); i >= 0 {
		return s[:i] + s[i+len(token):]
	}
	return s
}

// indexToken finds the first occurrence of token in s. Tokens written in a
// space-delimited script only match as whole words, so "no" is not found
// inside "not".
func indexToken(s, token string) int {
	if token == "" {
		return -1
	}
	first, _ := utf8.DecodeRuneInString(token)
	last, _ := utf8.DecodeLastRuneInString(token)
	wordStart, wordEnd := isWordRune(first), isWordRune(last)
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(token)
		before, _ := utf8.DecodeLastRuneInString(s[:i])
		after, _ := utf8.DecodeRuneInString(s[end:])
		startOK := !wordStart || i == 0 || !isWordRune(before)
		endOK := !wordEnd || end == len(s) || !isWordRune(after)
		if startOK && endOK {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	return -1
}

// isWordRune reports letters and digits of scripts that separate words with
// spaces. CJK ideographs and kana never count, so "对" still matches inside
// "对，明白了".
func isWordRune(r rune) bool {
	return unicode.IsDigit(r) || unicode.In(r, unicode.Latin, unicode.Greek, unicode.Cyrillic)
}
