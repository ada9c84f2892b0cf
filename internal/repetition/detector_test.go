package repetition

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDetectShortInputIsNeverRepetitive(t *testing.T) {
	for _, input := range []string{"", "あああ", "ab cd", "  は い  ", "ああ\nああ"} {
		res := Detect(input)
		if res.Found {
			t.Fatalf("Detect(%q) reported repetition: %+v", input, res)
		}
		if res.Core != input {
			t.Fatalf("Detect(%q) core = %q, want input unchanged", input, res.Core)
		}
		if len(res.Descriptors) != 0 {
			t.Fatalf("Detect(%q) returned descriptors %v", input, res.Descriptors)
		}
	}
}

func TestDetectPhrase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		unit  string
		count int
		core  string
	}{
		{"literal phrase", "はいはいはいはい", "はい", 4, "はい"},
		{"literal phrase with tail", "そうそうそうそう、わかった", "そう", 4, "そう、わかった"},
		{"longer run counts all repeats", "うんうんうんうんうん", "うん", 5, "うん"},
		{"generic unit with separators", "ちがう、ちがう、ちがう、ちがう！", "ちがう", 4, "ちがう！"},
		{"single rune stutter", "あ、あ、あ、あ、だめ", "あ", 4, "あ、だめ"},
		{"latin unit", "la la la la la", "la", 5, "la"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Detect(tt.input)
			if !res.Found {
				t.Fatalf("expected repetition in %q", tt.input)
			}
			if len(res.Descriptors) != 1 {
				t.Fatalf("expected one descriptor, got %v", res.Descriptors)
			}
			d := res.Descriptors[0]
			if d.Kind != KindPhrase {
				t.Fatalf("expected phrase descriptor, got %s", d.Kind)
			}
			if d.Unit != tt.unit || d.Count != tt.count {
				t.Fatalf("got unit %q count %d, want %q count %d", d.Unit, d.Count, tt.unit, tt.count)
			}
			if res.Core != tt.core {
				t.Fatalf("core = %q, want %q", res.Core, tt.core)
			}
			span := d.Span()
			if span.Start != 0 || !strings.HasPrefix(tt.input[span.Start:span.End], tt.unit) {
				t.Fatalf("unexpected span %+v for %q", span, tt.input)
			}
		})
	}
}

func TestDetectContinuousRun(t *testing.T) {
	res := Detect("ああああ")
	if !res.Found {
		t.Fatal("expected continuous run to be detected")
	}
	if res.Core != "あ" {
		t.Fatalf("core = %q, want %q", res.Core, "あ")
	}
	if len(res.Descriptors) != 1 {
		t.Fatalf("expected one descriptor, got %v", res.Descriptors)
	}
	d := res.Descriptors[0]
	if d.Kind != KindContinuous || d.Unit != "あ" || d.Count != 4 {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if d.Span() != (Span{Start: 0, End: len("ああああ")}) {
		t.Fatalf("unexpected span %+v", d.Span())
	}
}

func TestDetectThreeRepeatsIsNotARun(t *testing.T) {
	if res := Detect("あああ"); res.Found {
		t.Fatalf("expected no repetition, got %+v", res)
	}
	if res := Detect("えっあああ、そうか"); res.Found {
		t.Fatalf("expected no repetition for three-rune run, got %+v", res)
	}
}

func TestDetectCollectsEveryContinuousRun(t *testing.T) {
	input := "ああああ、ええええええ"
	res := Detect(input)
	if !res.Found {
		t.Fatal("expected runs to be detected")
	}
	if res.Core != "あ、え" {
		t.Fatalf("core = %q", res.Core)
	}
	if len(res.Descriptors) != 2 {
		t.Fatalf("expected two descriptors, got %v", res.Descriptors)
	}
	first, second := res.Descriptors[0], res.Descriptors[1]
	if first.Unit != "あ" || first.Count != 4 || second.Unit != "え" || second.Count != 6 {
		t.Fatalf("unexpected descriptors %v", res.Descriptors)
	}
	if first.Span().End > second.Span().Start {
		t.Fatalf("spans overlap: %+v %+v", first.Span(), second.Span())
	}
}

func TestDetectIgnoresPunctuationRuns(t *testing.T) {
	input := "本当に！！！！"
	if res := Detect(input); res.Found {
		t.Fatalf("expected punctuation run to be ignored, got %+v", res)
	}
}

func TestDetectScatteredKeepsFirstSeparator(t *testing.T) {
	res := Detect("お、あお、いお、うお、えお、かお、きお、くお")
	if !res.Found || len(res.Descriptors) != 1 || res.Descriptors[0].Kind != KindScattered {
		t.Fatalf("expected scattered repetition, got %+v", res)
	}
	if res.Descriptors[0].Count != 8 {
		t.Fatalf("count = %d, want 8", res.Descriptors[0].Count)
	}
	if res.Core != "お、あいうえかきく" {
		t.Fatalf("core = %q", res.Core)
	}
}

func TestDetectScattered(t *testing.T) {
	input := "おはよう、おかあさん、おとうさん、おじさん、おばさん、おにいさん、おねえさん、おおきい"
	res := Detect(input)
	if !res.Found {
		t.Fatal("expected scattered repetition")
	}
	if len(res.Descriptors) != 1 {
		t.Fatalf("expected one descriptor, got %v", res.Descriptors)
	}
	d := res.Descriptors[0]
	if d.Kind != KindScattered || d.Unit != "お" {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if d.Count < 8 || d.Count != len(d.Spans) {
		t.Fatalf("count %d with %d spans", d.Count, len(d.Spans))
	}
	if strings.Count(res.Core, "お") != 1 || !strings.HasPrefix(res.Core, "お") {
		t.Fatalf("core should keep one お at the first position, got %q", res.Core)
	}
	for i := 1; i < len(d.Spans); i++ {
		if d.Spans[i-1].End > d.Spans[i].Start {
			t.Fatalf("spans overlap at %d: %v", i, d.Spans)
		}
	}
}

func TestDetectPriorityPhraseBeforeRuns(t *testing.T) {
	res := Detect("はいはいはいはい、ええええ")
	if len(res.Descriptors) != 1 || res.Descriptors[0].Kind != KindPhrase {
		t.Fatalf("expected only a phrase descriptor, got %v", res.Descriptors)
	}
	if res.Core != "はい、ええええ" {
		t.Fatalf("core = %q", res.Core)
	}
}

func TestDetectLiteralPhrasesWinOverEarlierGenericUnits(t *testing.T) {
	input := "はいはいはいはい、ほらほらほらほら"

	generic := NewDetector(Lexicon{})
	if got := generic.Detect(input).Descriptors[0].Unit; got != "はい" {
		t.Fatalf("generic detector picked %q, want leftmost unit", got)
	}

	literal := NewDetector(Lexicon{Phrases: []Entry{{Source: "ほら", Target: "look"}}})
	res := literal.Detect(input)
	if got := res.Descriptors[0].Unit; got != "ほら" {
		t.Fatalf("literal detector picked %q, want ほら", got)
	}
	if res.Core != "はいはいはいはい、ほら" {
		t.Fatalf("core = %q", res.Core)
	}
}

func TestDetectOrdinarySentence(t *testing.T) {
	for _, input := range []string{
		"今日はとても良い天気ですね。",
		"新しいプロジェクトを始めることになりました。",
		"I think we should go now.",
	} {
		if res := Detect(input); res.Found {
			t.Fatalf("Detect(%q) = %+v, want no repetition", input, res)
		}
	}
}

func TestDetectCoreNeverGrows(t *testing.T) {
	inputs := []string{
		"はいはいはいはい",
		"ああああああああ",
		"そうそうそうそう、わかった",
		"あ、あ、あ、あ、だめ",
		"おはよう、おかあさん、おとうさん、おじさん、おばさん、おにいさん、おねえさん、おおきい",
		"ぎゃあああああああ！",
	}
	for _, input := range inputs {
		res := Detect(input)
		if !res.Found {
			t.Fatalf("expected repetition in %q", input)
		}
		if len(res.Core) >= len(input) {
			t.Fatalf("core %q is not shorter than %q", res.Core, input)
		}
		if !utf8.ValidString(res.Core) {
			t.Fatalf("core %q is not valid UTF-8", res.Core)
		}
		for _, d := range res.Descriptors {
			for _, span := range d.Spans {
				if span.Start < 0 || span.End > len(input) || span.Start >= span.End {
					t.Fatalf("invalid span %+v for %q", span, input)
				}
			}
		}
	}
}

func TestDetectInvalidUTF8DoesNotPanic(t *testing.T) {
	input := "\xff\xfe\xff\xfe\xff\xfe\xff\xfe"
	res := Detect(input)
	if len(res.Core) > len(input) {
		t.Fatalf("core grew: %q", res.Core)
	}
}
