package bencode

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Encode returns the canonical encoding of v.  v may be a Value or a
// native Go value (integers, *big.Int, string, []byte, slices, maps
// with string keys, Marshaler).  A nil v encodes to an empty slice.
//
// Recognized options: WithEncoding, WithSkipInvalid, WithMaxDepth.
func Encode(v any, opts ...Option) ([]byte, error) {
	return encodeValue(v, buildOptions(opts))
}

// EncodeTo writes the canonical encoding of v to w.  Nothing is
// written if encoding fails.
func EncodeTo(w io.Writer, v any, opts ...Option) error {
	raw, err := encodeValue(v, buildOptions(opts))
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrap(err, "bencode: write")
	}
	return nil
}

// Decode parses data as exactly one bencode value.  An empty data
// decodes to a nil Value.  Errors are *Error values carrying the byte
// offset of the problem; no partial result is ever returned.
//
// Recognized options: WithEncoding, WithStrict, WithMaxDepth.
func Decode(data []byte, opts ...Option) (Value, error) {
	return decodeValue(data, buildOptions(opts))
}

// DecodeFrom reads r to EOF and decodes the result as Decode does.
func DecodeFrom(r io.Reader, opts ...Option) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "bencode: read")
	}
	return decodeValue(data, buildOptions(opts))
}
