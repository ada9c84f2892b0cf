package repetition

import (
	"strings"
	"unicode"
)

const (
	minTextRunes            = 5
	minPhraseRepeats        = 4
	maxUnitRunes            = 3
	minRunLength            = 4
	minScatteredOccurrences = 8
	minScatteredSpans       = 6
)

// separatorRunes are stripped from phrase units and may trail any repeated unit.
const separatorRunes = "、。，．,.!?！？…‥~～・「」『』【】()（）\"'“”‘’:;：；-—"

var separators = func() map[rune]struct{} {
	set := make(map[rune]struct{}, len(separatorRunes))
	for _, r := range separatorRunes {
		set[r] = struct{}{}
	}
	return set
}()

func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	_, ok := separators[r]
	return ok
}

// Detector finds pathological repetition in a single subtitle line. It is
// immutable after construction and safe for concurrent use.
type Detector struct {
	phrases [][]rune
}

// NewDetector returns a detector that tries the lexicon's phrases as literal
// patterns before falling back to generic unit detection.
func NewDetector(lex Lexicon) *Detector {
	d := &Detector{}
	for _, phrase := range lex.LiteralPhrases() {
		unit := []rune(phrase)
		if len(unit) == 0 || containsSeparator(unit) {
			continue
		}
		d.phrases = append(d.phrases, unit)
	}
	return d
}

var defaultDetector = NewDetector(DefaultLexicon())

// Detect runs the default detector over text.
func Detect(text string) Result {
	return defaultDetector.Detect(text)
}

// Detect collapses the first repetition family that matches text. Families
// are tried in priority order: phrase, continuous run, scattered character.
func (d *Detector) Detect(text string) Result {
	if nonSpaceRunes(text) < minTextRunes {
		return notFound(text)
	}
	line := indexLine(text)
	if res, ok := d.detectPhrase(line); ok {
		return res
	}
	if res, ok := detectContinuous(line); ok {
		return res
	}
	if res, ok := detectScattered(line); ok {
		return res
	}
	return notFound(text)
}

// indexedLine pairs each rune with its byte offset; offs has one extra entry
// holding len(text) so offs[i] is always the start of rune i.
type indexedLine struct {
	text  string
	runes []rune
	offs  []int
}

func indexLine(text string) indexedLine {
	line := indexedLine{text: text}
	for off, r := range text {
		line.runes = append(line.runes, r)
		line.offs = append(line.offs, off)
	}
	line.offs = append(line.offs, len(text))
	return line
}

func (d *Detector) detectPhrase(line indexedLine) (Result, bool) {
	for _, unit := range d.phrases {
		for start := range line.runes {
			if res, ok := matchPhrase(line, start, unit); ok {
				return res, true
			}
		}
	}
	for start, r := range line.runes {
		if isSeparator(r) {
			continue
		}
		for size := 1; size <= maxUnitRunes && start+size <= len(line.runes); size++ {
			unit := line.runes[start : start+size]
			if isSeparator(unit[size-1]) {
				break
			}
			if res, ok := matchPhrase(line, start, unit); ok {
				return res, true
			}
		}
	}
	return Result{}, false
}

// matchPhrase counts consecutive copies of unit beginning at start, allowing
// separators between copies. Units made of a single repeated rune only count
// when every copy is separated, otherwise they are continuous runs.
func matchPhrase(line indexedLine, start int, unit []rune) (Result, bool) {
	uniform := isUniform(unit)
	if uniform && start > 0 && line.runes[start-1] == unit[0] {
		return Result{}, false
	}
	count := 0
	end := start
	pos := start
	for hasUnitAt(line.runes, pos, unit) {
		count++
		end = pos + len(unit)
		next := end
		for next < len(line.runes) && isSeparator(line.runes[next]) {
			next++
		}
		if uniform && next == end && next < len(line.runes) && line.runes[next] == unit[0] {
			return Result{}, false
		}
		pos = next
	}
	if count < minPhraseRepeats {
		return Result{}, false
	}
	span := Span{Start: line.offs[start], End: line.offs[end]}
	phrase := string(unit)
	return Result{
		Core:  line.text[:span.Start] + phrase + line.text[span.End:],
		Found: true,
		Descriptors: []Descriptor{{
			Kind:  KindPhrase,
			Unit:  phrase,
			Count: count,
			Spans: []Span{span},
		}},
	}, true
}

func detectContinuous(line indexedLine) (Result, bool) {
	var (
		core  strings.Builder
		descs []Descriptor
		last  int
	)
	for i := 0; i < len(line.runes); {
		r := line.runes[i]
		j := i + 1
		for j < len(line.runes) && line.runes[j] == r {
			j++
		}
		if j-i >= minRunLength && !isSeparator(r) {
			span := Span{Start: line.offs[i], End: line.offs[j]}
			core.WriteString(line.text[last:span.Start])
			core.WriteRune(r)
			last = span.End
			descs = append(descs, Descriptor{
				Kind:  KindContinuous,
				Unit:  string(r),
				Count: j - i,
				Spans: []Span{span},
			})
		}
		i = j
	}
	if len(descs) == 0 {
		return Result{}, false
	}
	core.WriteString(line.text[last:])
	return Result{Core: core.String(), Found: true, Descriptors: descs}, true
}

func detectScattered(line indexedLine) (Result, bool) {
	counts := make(map[rune]int)
	var order []rune
	for _, r := range line.runes {
		if isSeparator(r) {
			continue
		}
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	for _, r := range order {
		if counts[r] < minScatteredOccurrences {
			continue
		}
		spans := occurrenceSpans(line, r)
		if len(spans) < minScatteredSpans {
			continue
		}
		var core strings.Builder
		last := 0
		for i, span := range spans {
			if i == 0 {
				core.WriteString(line.text[last:span.End])
			} else {
				core.WriteString(line.text[last:span.Start])
			}
			last = span.End
		}
		core.WriteString(line.text[last:])
		return Result{
			Core:  core.String(),
			Found: true,
			Descriptors: []Descriptor{{
				Kind:  KindScattered,
				Unit:  string(r),
				Count: len(spans),
				Spans: spans,
			}},
		}, true
	}
	return Result{}, false
}

// occurrenceSpans covers every occurrence of r together with the separators
// that immediately follow it.
func occurrenceSpans(line indexedLine, r rune) []Span {
	var spans []Span
	for i := 0; i < len(line.runes); i++ {
		if line.runes[i] != r {
			continue
		}
		j := i + 1
		for j < len(line.runes) && isSeparator(line.runes[j]) {
			j++
		}
		spans = append(spans, Span{Start: line.offs[i], End: line.offs[j]})
		i = j - 1
	}
	return spans
}

func hasUnitAt(runes []rune, pos int, unit []rune) bool {
	if pos+len(unit) > len(runes) {
		return false
	}
	for i, r := range unit {
		if runes[pos+i] != r {
			return false
		}
	}
	return true
}

func isUniform(unit []rune) bool {
	for _, r := range unit[1:] {
		if r != unit[0] {
			return false
		}
	}
	return true
}

func containsSeparator(unit []rune) bool {
	for _, r := range unit {
		if isSeparator(r) {
			return true
		}
	}
	return false
}

func nonSpaceRunes(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
