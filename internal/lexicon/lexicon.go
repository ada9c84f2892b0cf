// Package lexicon loads user-supplied repetition lexicons and layers them over
// the built-in tables.
//
// A lexicon file is YAML keyed by language pair:
//
//	ja-zh:
//	  phrases:
//	    - source: まじ
//	      target: 真的
//	  chars:
//	    - source: え
//	      target: 诶
package lexicon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"subtrans/internal/repetition"
)

// Set maps a pair key ("ja-zh") to the lexicon overrides for that pair.
type Set map[string]repetition.Lexicon

// Load reads a lexicon file. A missing path yields an empty set so callers can
// pass the configured path unconditionally.
func Load(path string) (Set, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Set{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes lexicon YAML and normalizes pair keys.
func Parse(data []byte) (Set, error) {
	raw := map[string]repetition.Lexicon{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	set := make(Set, len(raw))
	for key, lex := range raw {
		from, to, ok := strings.Cut(key, "-")
		if !ok || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return nil, fmt.Errorf("parse lexicon: invalid language pair %q (want e.g. ja-zh)", key)
		}
		set[repetition.PairKey(from, to)] = lex
	}
	return set, nil
}

// Resolve returns the built-in lexicon for the pair with any overrides from the
// set applied on top.
func (s Set) Resolve(from, to string) repetition.Lexicon {
	lex := repetition.Builtin(from, to)
	if override, ok := s[repetition.PairKey(from, to)]; ok {
		lex = lex.Merge(override)
	}
	return lex
}
