package repetition

import (
	"fmt"
	"strconv"
)

// Kind identifies which repetition family produced a descriptor.
type Kind int

const (
	KindPhrase Kind = iota + 1
	KindContinuous
	KindScattered
)

func (k Kind) String() string {
	switch k {
	case KindPhrase:
		return "phrase"
	case KindContinuous:
		return "continuous"
	case KindScattered:
		return "scattered"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its lowercase name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Span is a half-open byte range [Start, End) into the detected text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Descriptor records one collapsed repetition. Phrase and Continuous
// descriptors carry exactly one span; Scattered carries one per occurrence.
type Descriptor struct {
	Kind  Kind   `json:"kind"`
	Unit  string `json:"unit"`
	Count int    `json:"count"`
	Spans []Span `json:"spans"`
}

// Span returns the first span, which covers the whole run for phrase and
// continuous descriptors.
func (d Descriptor) Span() Span {
	if len(d.Spans) == 0 {
		return Span{}
	}
	return d.Spans[0]
}

// Marker renders the repetition marker for a translated unit, e.g. "对*4".
func (d Descriptor) Marker(unit string) string {
	return unit + "*" + strconv.Itoa(d.Count)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%q x%d)", d.Kind, d.Unit, d.Count)
}

// Result is the outcome of a detection pass.
type Result struct {
	Core        string       `json:"core"`
	Found       bool         `json:"found"`
	Descriptors []Descriptor `json:"descriptors,omitempty"`
}

func notFound(text string) Result {
	return Result{Core: text}
}
