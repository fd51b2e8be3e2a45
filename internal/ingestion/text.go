package ingestion

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText decodes plain text. UTF-16 input is recognised by its BOM. Input
// that is not valid UTF-8 is decoded permissively and reported as such.
func decodeText(data []byte) (text string, permissive bool, err error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", false, corrupt(FormatTXT, "utf-16 decode", err)
		}
		return string(out), false, nil
	}

	data = bytes.TrimPrefix(data, bomUTF8)
	if utf8.Valid(data) {
		return string(data), false, nil
	}

	// the x/text UTF-8 decoder substitutes U+FFFD for invalid sequences
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), data)
	if err != nil {
		return "", true, corrupt(FormatTXT, "permissive decode", err)
	}
	return string(out), true, nil
}
