package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Cue is one subtitle entry for WriteSRT.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// WriteSRT writes cues as an SRT file under dir and returns its path.
func WriteSRT(t testing.TB, dir, name string, cues []Cue) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, srtTimestamp(cue.Start), srtTimestamp(cue.End), cue.Text)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func srtTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}
