// Package textenc decodes text sources under a prioritised list of encodings.
// The first encoding that decodes the whole input without errors wins.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the order used when none is configured.
var DefaultEncodings = []string{"utf-8", "gbk", "latin-1"}

// ErrUndecodable means no configured encoding accepted the input.
var ErrUndecodable = errors.New("no supported encoding could decode the content")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// named keeps the exact semantics for the names we care about; htmlindex would
// map "latin-1" to windows-1252 and "gbk" to gb18030.
var named = map[string]encoding.Encoding{
	"utf-8":      unicode.UTF8,
	"utf8":       unicode.UTF8,
	"gbk":        simplifiedchinese.GBK,
	"gb18030":    simplifiedchinese.GB18030,
	"latin-1":    charmap.ISO8859_1,
	"latin1":     charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
}

// Lookup resolves an encoding name.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := named[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Validate checks every name resolves.
func Validate(names []string) error {
	for _, n := range names {
		if _, err := Lookup(n); err != nil {
			return err
		}
	}
	return nil
}

// Decode tries each encoding in order and returns the decoded text and the name that worked.
func Decode(data []byte, encodings []string) (string, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	for _, name := range encodings {
		enc, err := Lookup(name)
		if err != nil {
			return "", "", err
		}
		if text, ok := decodeStrict(data, enc); ok {
			return text, name, nil
		}
	}
	return "", "", ErrUndecodable
}

// ReadFile reads path and decodes it with Decode.
func ReadFile(path string, encodings []string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, _, err := Decode(data, encodings)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return text, nil
}

// decodeStrict rejects output containing replacement runes that were not in the input,
// since x/text decoders substitute U+FFFD instead of failing.
func decodeStrict(data []byte, enc encoding.Encoding) (string, bool) {
	if enc == unicode.UTF8 {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(data, []byte(string(utf8.RuneError))) {
		return "", false
	}
	return string(out), true
}
