package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"subtrans/internal/subtitles"
)

const (
	progressBarWidth  = 24
	previewMaxRunes   = 40
	ansiClearLineTail = "\x1b[K"
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter redraws a single status line on a terminal. Off a terminal
// it stays silent and the sampled progress logs carry the signal.
type progressPrinter struct {
	out     io.Writer
	label   string
	enabled bool
	drawn   bool
}

func newProgressPrinter(out io.Writer, input string) *progressPrinter {
	return &progressPrinter{
		out:     out,
		label:   filepath.Base(input),
		enabled: isTerminal(out),
	}
}

func (p *progressPrinter) update(ev subtitles.Progress) {
	if !p.enabled {
		return
	}
	filled := int(ev.Percent() / 100 * progressBarWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled)
	fmt.Fprintf(p.out, "\r%s [%s] %d/%d %s%s", p.label, bar, ev.Index, ev.Total, preview(ev.Translated), ansiClearLineTail)
	p.drawn = true
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewMaxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewMaxRunes-1]) + "…"
}
