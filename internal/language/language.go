package language

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	xlanguage "golang.org/x/text/language"
)

// Auto requests source language detection from the subtitle text.
const Auto = "auto"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "chi" vs "zho")
	display string   // Human-readable name
	prompt  string   // Name understood by translation prompts
	words   []string // Full word forms, including native labels
	detect  whatlanggo.Lang
}

var languages = []entry{
	{"en", "eng", "", "English", "English", []string{"english", "英语", "英語"}, whatlanggo.Eng},
	{"ja", "jpn", "", "Japanese", "Japanese", []string{"japanese", "日语", "日本語"}, whatlanggo.Jpn},
	{"zh", "zho", "chi", "Chinese", "Mandarin", []string{"chinese", "mandarin", "中文", "汉语"}, whatlanggo.Cmn},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// BCP 47 tags such as "ja-JP" or "zh-Hans".
	if tag, err := xlanguage.Parse(code); err == nil {
		base, _ := tag.Base()
		if e, ok := byCode2[base.String()]; ok {
			return e
		}
	}
	return nil
}

// Supported lists the ISO 639-1 codes that can be translated.
func Supported() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code2)
	}
	return out
}

// Normalize maps any recognized code, word, or tag to its ISO 639-1 code.
// "auto" passes through unchanged.
func Normalize(code string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == Auto {
		return Auto, nil
	}
	if e := lookup(trimmed); e != nil {
		return e.code2, nil
	}
	return "", fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(Supported(), ", "))
}

// ToISO2 converts a recognized language to ISO 639-1, or returns "".
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	return ""
}

// ToISO3 converts a recognized language to ISO 639-2, or returns "und".
func ToISO3(code string) string {
	if e := lookup(code); e != nil {
		return e.code3
	}
	return "und"
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromptName returns the language name translation prompts expect
// (Chinese is "Mandarin").
func PromptName(code string) string {
	if e := lookup(code); e != nil {
		return e.prompt
	}
	return DisplayName(code)
}

// Detect guesses the supported language of the sample text. It reports false
// when the text is empty or detection lands outside the supported set.
func Detect(samples []string) (string, bool) {
	text := strings.TrimSpace(strings.Join(samples, "\n"))
	if text == "" {
		return "", false
	}
	whitelist := make(map[whatlanggo.Lang]bool, len(languages))
	for _, e := range languages {
		whitelist[e.detect] = true
	}
	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: whitelist})
	for _, e := range languages {
		if e.detect == info.Lang {
			return e.code2, true
		}
	}
	return "", false
}
