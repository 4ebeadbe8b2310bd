package bencode

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 digest of a canonical encoding.  Equal values
// have equal digests because the encoding is canonical.
type Digest [32]byte

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprint encodes v canonically and returns the digest of the
// result.
func Fingerprint(v any, opts ...Option) (Digest, error) {
	canon, err := encodeValue(v, buildOptions(opts))
	if err != nil {
		return Digest{}, err
	}
	return blake3.Sum256(canon), nil
}

// FingerprintCanonical validates pre-encoded bytes and returns their
// digest.  This is the fast path: raw is fully validated under strict
// decoding (which only accepts canonical input) but hashed as given
// rather than re-encoded.
func FingerprintCanonical(raw []byte) (Digest, error) {
	if _, err := decodeValue(raw, defaultOptions()); err != nil {
		return Digest{}, err
	}
	return blake3.Sum256(raw), nil
}

// Canonicalize decodes raw leniently and re-encodes it, sorting dict
// keys and dropping leading zeros and negative zero.  Duplicate keys
// are still rejected.  Only WithMaxDepth is honored.
func Canonicalize(raw []byte, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	lenient := &options{maxDepth: o.maxDepth}
	v, err := decodeValue(raw, lenient)
	if err != nil {
		return nil, err
	}
	return encodeValue(v, lenient)
}
