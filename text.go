package bencode

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var errRoundTrip = errors.New("bytes do not round-trip through the encoding")

// Encoding is a named text encoding used to convert between String
// values and the bytes carried on the wire.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// UTF8 is the default text encoding.
var UTF8 = &Encoding{name: "utf-8", enc: unicode.UTF8}

// NewEncoding wraps an x/text encoding under the given name.
func NewEncoding(name string, enc encoding.Encoding) *Encoding {
	return &Encoding{name: strings.ToLower(name), enc: enc}
}

// LookupEncoding resolves an IANA charset name ("ISO-8859-1",
// "UTF-16BE", "Shift_JIS") or, failing that, a WHATWG label
// ("latin2", "sjis").  Matching is case-insensitive.
func LookupEncoding(name string) (*Encoding, error) {
	if isUTF8Name(name) {
		return UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return NewEncoding(name, enc), nil
	}
	enc, err = htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "bencode: unknown text encoding %q", name)
	}
	return NewEncoding(name, enc), nil
}

// Name returns the name the encoding was created with, lower-cased.
func (e *Encoding) Name() string {
	return e.name
}

func (e *Encoding) isUTF8() bool {
	return e == UTF8 || e.enc == unicode.UTF8
}

// decode converts wire bytes to text.  Conversion is strict: UTF-8
// must be valid, and any other encoding must map the text back to the
// exact input bytes.
func (e *Encoding) decode(b []byte) (string, error) {
	if e.isUTF8() {
		if !utf8.Valid(b) {
			return "", encoding.ErrInvalidUTF8
		}
		return string(b), nil
	}
	out, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	back, err := e.enc.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, b) {
		return "", errRoundTrip
	}
	return string(out), nil
}

// encode converts text to wire bytes.  Runes the encoding cannot
// represent fail with the x/text error.
func (e *Encoding) encode(s string) ([]byte, error) {
	if e.isUTF8() {
		if !utf8.ValidString(s) {
			return nil, encoding.ErrInvalidUTF8
		}
		return []byte(s), nil
	}
	return e.enc.NewEncoder().Bytes([]byte(s))
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}
