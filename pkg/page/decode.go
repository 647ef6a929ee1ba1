package page

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names reported by Decode.
const (
	EncUTF8        = "utf-8"
	EncUTF8BOM     = "utf-8-bom"
	EncLatin1      = "iso-8859-1"
	EncWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns raw page bytes into text, trying UTF-8, UTF-8 with BOM,
// Latin-1 and Windows-1252 in that order. The first decoding without loss
// wins. Latin-1 counts as lossy when the input holds bytes 0x80-0x9F, which
// would decode to C1 control characters. When every candidate loses data the
// Windows-1252 result is returned with lossy set.
func Decode(data []byte) (text, encoding string, lossy bool) {
	if utf8.Valid(data) {
		if bytes.HasPrefix(data, utf8BOM) {
			return string(data[len(utf8BOM):]), EncUTF8BOM, false
		}
		return string(data), EncUTF8, false
	}
	if !hasC1Bytes(data) {
		if out, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
			return string(out), EncLatin1, false
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�"), EncWindows1252, true
	}
	s := string(out)
	return s, EncWindows1252, strings.ContainsRune(s, utf8.RuneError) || hasC1Runes(s)
}

func hasC1Bytes(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return true
		}
	}
	return false
}

func hasC1Runes(s string) bool {
	for _, r := range s {
		if r >= 0x80 && r <= 0x9F {
			return true
		}
	}
	return false
}

// GuessCharset asks chardet for its best guess. It is only a diagnostic;
// Decode never consults it.
func GuessCharset(data []byte) string {
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil {
		return ""
	}
	return strings.ToLower(res.Charset)
}
