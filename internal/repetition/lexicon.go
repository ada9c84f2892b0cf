package repetition

import "strings"

// Entry maps a source-language token to its target-language equivalent.
type Entry struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// Lexicon holds the bilingual tables used during reconstruction. Phrase
// sources double as the literal patterns tried first during detection, in
// table order.
type Lexicon struct {
	Phrases []Entry `yaml:"phrases" json:"phrases"`
	Chars   []Entry `yaml:"chars" json:"chars"`
}

// PairKey formats the lookup key for a language pair, e.g. "ja-zh".
func PairKey(from, to string) string {
	return strings.ToLower(strings.TrimSpace(from)) + "-" + strings.ToLower(strings.TrimSpace(to))
}

var builtin = map[string]Lexicon{
	"ja-zh": {
		Phrases: []Entry{
			{"はい", "是"},
			{"そう", "对"},
			{"うん", "嗯"},
			{"ええ", "嗯"},
			{"いや", "不"},
			{"ほら", "你看"},
			{"よし", "好"},
			{"ねえ", "喂"},
			{"だめ", "不行"},
		},
		Chars: []Entry{
			{"あ", "啊"},
			{"お", "哦"},
		},
	},
	"ja-en": {
		Phrases: []Entry{
			{"はい", "yes"},
			{"そう", "right"},
			{"うん", "yeah"},
			{"ええ", "yeah"},
			{"いや", "no"},
			{"ほら", "look"},
			{"よし", "okay"},
			{"ねえ", "hey"},
			{"だめ", "no good"},
		},
		Chars: []Entry{
			{"あ", "ah"},
			{"お", "oh"},
		},
	},
	"zh-en": {
		Phrases: []Entry{
			{"是", "yes"},
			{"对", "right"},
			{"好", "okay"},
			{"嗯", "mm"},
		},
		Chars: []Entry{
			{"啊", "ah"},
			{"哦", "oh"},
		},
	},
	"zh-ja": {
		Phrases: []Entry{
			{"是", "はい"},
			{"对", "そう"},
			{"嗯", "うん"},
		},
		Chars: []Entry{
			{"啊", "あ"},
			{"哦", "お"},
		},
	},
	"en-zh": {
		Phrases: []Entry{
			{"yes", "是"},
			{"no", "不"},
			{"okay", "好"},
			{"hey", "喂"},
		},
	},
}

// Builtin returns a copy of the built-in lexicon for a language pair. Unknown
// pairs yield an empty lexicon, which makes reconstruction reuse source tokens.
func Builtin(from, to string) Lexicon {
	return builtin[PairKey(from, to)].clone()
}

// DefaultLexicon is the Japanese to Chinese table.
func DefaultLexicon() Lexicon {
	return Builtin("ja", "zh")
}

// TranslatePhrase looks up a phrase, falling back to the phrase itself.
func (l Lexicon) TranslatePhrase(phrase string) string {
	return lookup(l.Phrases, phrase)
}

// TranslateChar looks up a single character, falling back to the character itself.
func (l Lexicon) TranslateChar(char string) string {
	return lookup(l.Chars, char)
}

// LiteralPhrases lists phrase sources in table order.
func (l Lexicon) LiteralPhrases() []string {
	out := make([]string, 0, len(l.Phrases))
	for _, e := range l.Phrases {
		if e.Source != "" {
			out = append(out, e.Source)
		}
	}
	return out
}

// Merge overlays other onto l. Entries with a matching source are replaced in
// place; new sources are appended.
func (l Lexicon) Merge(other Lexicon) Lexicon {
	return Lexicon{
		Phrases: mergeEntries(l.Phrases, other.Phrases),
		Chars:   mergeEntries(l.Chars, other.Chars),
	}
}

func (l Lexicon) clone() Lexicon {
	return Lexicon{
		Phrases: append([]Entry(nil), l.Phrases...),
		Chars:   append([]Entry(nil), l.Chars...),
	}
}

func lookup(entries []Entry, source string) string {
	for _, e := range entries {
		if e.Source == source && e.Target != "" {
			return e.Target
		}
	}
	return source
}

func mergeEntries(base, overlay []Entry) []Entry {
	out := append([]Entry(nil), base...)
	for _, e := range overlay {
		if strings.TrimSpace(e.Source) == "" {
			continue
		}
		replaced := false
		for i := range out {
			if out[i].Source == e.Source {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}
