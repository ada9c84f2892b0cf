package subtitles

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// OutputPath derives the translated file name. A trailing source language
// code (".ja", "_ja", "-ja", or "ja" after a non-letter) is replaced by the
// target code; otherwise ".<to>" is appended before the extension.
func OutputPath(input, from, to string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	name := filepath.Base(base)
	from = strings.ToLower(strings.TrimSpace(from))

	if from != "" && len(name) > len(from) && strings.HasSuffix(strings.ToLower(name), from) {
		stem := base[:len(base)-len(from)]
		if prev, _ := utf8.DecodeLastRuneInString(stem); !unicode.IsLetter(prev) {
			return stem + to + ext
		}
	}
	return base + "." + to + ext
}
