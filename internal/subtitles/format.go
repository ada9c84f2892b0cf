package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"

	"subtrans/internal/services"
)

// Format identifies a subtitle container.
type Format string

const (
	FormatSRT Format = "srt"
	FormatSSA Format = "ssa"
	FormatVTT Format = "vtt"
)

// Document is a parsed subtitle file.
type Document struct {
	Path      string
	Format    Format
	Charset   string
	Subtitles *astisub.Subtitles
}

// FormatFromPath maps a file extension to a format. ok is false for unknown
// extensions.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".ass", ".ssa":
		return FormatSSA, true
	case ".vtt":
		return FormatVTT, true
	default:
		return "", false
	}
}

// SniffFormat guesses the format from content.
func SniffFormat(data []byte) Format {
	head := strings.TrimSpace(string(data[:min(len(data), 512)]))
	switch {
	case strings.HasPrefix(head, "WEBVTT"):
		return FormatVTT
	case strings.HasPrefix(head, "[Script Info]"):
		return FormatSSA
	default:
		return FormatSRT
	}
}

// Parse reads UTF-8 subtitle content in the given format.
func Parse(data []byte, format Format) (*astisub.Subtitles, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatSRT:
		return astisub.ReadFromSRT(r)
	case FormatSSA:
		return astisub.ReadFromSSA(r)
	case FormatVTT:
		return astisub.ReadFromWebVTT(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format %q", format)
	}
}

// Write serializes subs in the given format.
func Write(w io.Writer, subs *astisub.Subtitles, format Format) error {
	switch format {
	case FormatSRT:
		return subs.WriteToSRT(w)
	case FormatSSA:
		return subs.WriteToSSA(w)
	case FormatVTT:
		return subs.WriteToWebVTT(w)
	default:
		return fmt.Errorf("unsupported subtitle format %q", format)
	}
}

// ReadFile loads a subtitle file, decoding its charset and choosing a parser
// from the extension or, failing that, the content.
func ReadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "subtitles", "read", path, err)
		}
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	data, charset, err := DecodeUTF8(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "decode", path, err)
	}
	format, ok := FormatFromPath(path)
	if !ok {
		format = SniffFormat(data)
	}
	subs, err := Parse(data, format)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "parse", path, err)
	}
	return &Document{Path: path, Format: format, Charset: charset, Subtitles: subs}, nil
}

// CueText joins a cue's lines with newlines.
func CueText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, line := range item.Lines {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// SetCueText replaces a cue's lines with one plain line per newline in text.
// Voice names carry over by line position.
func SetCueText(item *astisub.Item, text string) {
	parts := strings.Split(text, "\n")
	lines := make([]astisub.Line, 0, len(parts))
	for i, part := range parts {
		line := astisub.Line{Items: []astisub.LineItem{{Text: part}}}
		if i < len(item.Lines) {
			line.VoiceName = item.Lines[i].VoiceName
		}
		lines = append(lines, line)
	}
	item.Lines = lines
}
