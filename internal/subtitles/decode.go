package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

const charsetUTF8 = "UTF-8"

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// chardet reports a few names that the IANA registry spells differently.
var charsetAliases = map[string]string{
	"gb-18030": "GB18030",
}

// DecodeUTF8 converts subtitle bytes in any detectable charset to UTF-8 and
// strips a leading byte order mark. It returns the charset it decoded from.
func DecodeUTF8(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, charsetUTF8, nil
	}
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), charsetUTF8, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return nil, "", fmt.Errorf("detect charset: %w", err)
	}
	name := result.Charset
	if alias, ok := charsetAliases[strings.ToLower(name)]; ok {
		name = alias
	}
	if strings.EqualFold(name, charsetUTF8) {
		return bytes.TrimPrefix(data, utf8BOM), charsetUTF8, nil
	}

	encoding, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, "", fmt.Errorf("resolve charset %q: %w", name, err)
	}
	if encoding == nil {
		return nil, "", fmt.Errorf("charset %q is not supported", name)
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), encoding.NewDecoder()))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", name, err)
	}
	return bytes.TrimPrefix(decoded, utf8BOM), name, nil
}
