package bencode

import (
	"bytes"
	"math/big"
	"strconv"
)

// mode is the context a value is parsed in.  Each recursive call owns
// one frame; there is no parser state outside the decoder struct.
type mode int

const (
	modeBase      mode = iota // top level: exactly one value, then end of input
	modeList                  // list items until 'e'
	modeDictKey               // byte-string keys until 'e'
	modeDictValue             // exactly one value for the preceding key
)

type decoder struct {
	buf  []byte
	pos  int
	opts *options
}

// decodeValue decodes buf as exactly one top-level value.  An empty
// buffer decodes to nil.
func decodeValue(buf []byte, opts *options) (Value, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	d := &decoder{buf: buf, opts: opts}
	v, err := d.value(modeBase, 0)
	if err != nil {
		return nil, err
	}
	// Exactly one root value, no trailing bytes.
	if d.pos != len(buf) {
		return nil, newErr(ErrSyntax, d.pos, "data after the top-level value")
	}
	return v, nil
}

// value decodes one value at the cursor.
//
// depth is the nesting of the enclosing container; lists and dicts
// check depth+1 against the limit.
func (d *decoder) value(m mode, depth int) (Value, error) {
	if err := d.expect(m); err != nil {
		return nil, err
	}
	switch c := d.buf[d.pos]; {
	case c == tokenDict:
		return d.dict(depth)
	case c == tokenList:
		return d.list(depth)
	case c == tokenInteger:
		return d.integer()
	case c == tokenMinus || isDigit(c):
		off := d.pos
		raw, err := d.byteString()
		if err != nil {
			return nil, err
		}
		return d.stringValue(raw, off)
	case c == tokenEnd:
		return nil, newErr(ErrSyntax, d.pos, "unexpected 'e'")
	default:
		return nil, newErrf(ErrSyntax, d.pos, "unexpected byte %q", c)
	}
}

// expect checks that a value of mode m may start at the cursor.
func (d *decoder) expect(m mode) error {
	if d.pos >= len(d.buf) {
		return d.eof()
	}
	c := d.buf[d.pos]
	switch m {
	case modeDictKey:
		if c != tokenMinus && !isDigit(c) {
			return newErrf(ErrSyntax, d.pos, "dict key must be a byte string, found %q", c)
		}
	case modeDictValue:
		if c == tokenEnd {
			return newErr(ErrSyntax, d.pos, "dict key has no value")
		}
	}
	return nil
}

func (d *decoder) list(depth int) (Value, error) {
	if depth+1 > d.opts.maxDepth {
		return nil, newErr(ErrLimitDepth, d.pos, "depth exceeds max depth")
	}
	d.pos++ // 'l'
	arr := make(List, 0)
	for {
		if d.pos >= len(d.buf) {
			return nil, d.eof()
		}
		if d.buf[d.pos] == tokenEnd {
			d.pos++
			return arr, nil
		}
		item, err := d.value(modeList, depth+1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

func (d *decoder) dict(depth int) (Value, error) {
	if depth+1 > d.opts.maxDepth {
		return nil, newErr(ErrLimitDepth, d.pos, "depth exceeds max depth")
	}
	d.pos++ // 'd'
	out := &Dict{Keys: make([]Value, 0), Values: make([]Value, 0)}
	seen := make(map[string]struct{})
	var prevKey []byte
	for {
		if d.pos >= len(d.buf) {
			return nil, d.eof()
		}
		if d.buf[d.pos] == tokenEnd {
			d.pos++
			return out, nil
		}

		keyOff := d.pos
		if err := d.expect(modeDictKey); err != nil {
			return nil, err
		}
		key, err := d.byteString()
		if err != nil {
			return nil, err
		}
		// Duplicates are rejected in every mode; ordering only when strict.
		if _, dup := seen[string(key)]; dup {
			return nil, newErrf(ErrDupKey, keyOff, "duplicate dict key %q", key)
		}
		seen[string(key)] = struct{}{}
		if d.opts.strict && prevKey != nil && bytes.Compare(prevKey, key) > 0 {
			return nil, newErrf(ErrStrict, keyOff, "dict key %q sorts before previous key %q", key, prevKey)
		}
		prevKey = key

		k, err := d.stringValue(key, keyOff)
		if err != nil {
			return nil, err
		}
		v, err := d.value(modeDictValue, depth+1)
		if err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, k)
		out.Values = append(out.Values, v)
	}
}

func (d *decoder) integer() (Value, error) {
	start := d.pos + 1 // skip 'i'
	rel := bytes.IndexByte(d.buf[start:], tokenEnd)
	if rel < 0 {
		return nil, newErr(ErrSyntax, d.pos, "integer is missing its terminating 'e'")
	}
	end := start + rel
	v, err := d.number(start, end)
	if err != nil {
		return nil, err
	}
	d.pos = end + 1
	return v, nil
}

// byteString consumes a length-prefixed string and returns a copy of
// its payload.
func (d *decoder) byteString() ([]byte, error) {
	start := d.pos
	rel := bytes.IndexByte(d.buf[start:], tokenColon)
	if rel < 0 {
		return nil, newErr(ErrSyntax, start, "string length is missing its ':'")
	}
	colon := start + rel
	n, err := d.number(start, colon)
	if err != nil {
		return nil, err
	}
	length, ok := n.(Integer)
	if !ok {
		return nil, newErr(ErrSyntax, start, "string length exceeds the input")
	}
	if length < 0 {
		return nil, newErrf(ErrSyntax, start, "negative string length %d", length)
	}
	payload := colon + 1
	if int64(len(d.buf)-payload) < int64(length) {
		return nil, newErrf(ErrSyntax, len(d.buf), "unexpected end of data: string declares %d bytes, %d remain", length, len(d.buf)-payload)
	}
	raw := make([]byte, length)
	copy(raw, d.buf[payload:payload+int(length)])
	d.pos = payload + int(length)
	return raw, nil
}

// stringValue wraps a decoded payload as Bytes, or as String when a
// text encoding was requested.
func (d *decoder) stringValue(raw []byte, off int) (Value, error) {
	enc := d.opts.encoding
	if enc == nil {
		return Bytes(raw), nil
	}
	s, err := enc.decode(raw)
	if err != nil {
		return nil, textErr(off, "cannot decode string as "+enc.Name(), err)
	}
	return String(s), nil
}

// number validates and parses the digit span buf[start:end].  Integer
// literals and string lengths share it: both allow one leading '-',
// and strict mode rejects leading zeros and negative zero.
func (d *decoder) number(start, end int) (Value, error) {
	span := d.buf[start:end]
	digits := span
	neg := len(digits) > 0 && digits[0] == tokenMinus
	if neg {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return nil, newErr(ErrSyntax, start, "number has no digits")
	}
	for i, c := range digits {
		if !isDigit(c) {
			return nil, newErrf(ErrSyntax, end-len(digits)+i, "invalid digit %q", c)
		}
	}
	if d.opts.strict {
		if digits[0] == '0' && len(digits) > 1 {
			return nil, newErrf(ErrStrict, start, "leading zero in %q", span)
		}
		if neg && digits[0] == '0' {
			return nil, newErr(ErrStrict, start, "negative zero")
		}
	}
	if n, err := strconv.ParseInt(string(span), 10, 64); err == nil {
		return Integer(n), nil
	}
	// Out of int64 range; digits are already validated.
	b, ok := new(big.Int).SetString(string(span), 10)
	if !ok {
		return nil, newErrf(ErrSyntax, start, "invalid integer %q", span)
	}
	return BigInteger{b}, nil
}

func (d *decoder) eof() error {
	return newErr(ErrSyntax, d.pos, "unexpected end of data")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
