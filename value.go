// Package bencode implements a strict codec for bencode, the encoding
// used by BitTorrent metainfo files and the DHT/tracker wire protocols.
//
// Bencode has four value kinds: byte strings, integers, lists and
// dictionaries with byte-string keys.  The encoder always produces
// canonical output (dictionary keys in ascending byte order, no leading
// zeros), so equal values encode to identical bytes.  The decoder is
// strict by default and rejects any input that is not canonical; a
// lenient mode tolerates unsorted keys and non-minimal integers.
//
//	raw, err := bencode.Encode(bencode.NewDict(
//		bencode.Entry("spam", bencode.List{bencode.Bytes("a"), bencode.Bytes("b")}),
//	))
//	v, err := bencode.Decode(raw)
//
// Byte strings decode to Bytes unless a text encoding is requested
// with WithEncoding, in which case they decode to String.
package bencode

import (
	"bytes"
	"math/big"
)

// Value is a decoded bencode value.  Concrete types:
//
//   - Integer    (integer that fits in int64)
//   - BigInteger (integer outside the int64 range)
//   - Bytes      (byte string)
//   - String     (byte string decoded with a text encoding)
//   - List
//   - *Dict
//
// A nil Value stands for the absent value: an empty input decodes to
// nil, and nil encodes to an empty output.  nil is never valid inside
// a List or Dict.
type Value interface {
	bencodeValue() // sealed
}

// Integer is a bencode integer.
type Integer int64

// BigInteger is a bencode integer too wide for int64.  The decoder only
// produces it for literals outside the int64 range.
type BigInteger struct {
	*big.Int
}

// Bytes is a bencode byte string.  Arbitrary byte sequence.
type Bytes []byte

// String is a bencode byte string held as text.
type String string

// List is a bencode list.  Ordered sequence of Values.
type List []Value

// Dict is a bencode dictionary.  Keys are Bytes or String; Keys[i]
// maps to Values[i].  The in-memory order is insertion order (or wire
// order after decoding); the encoder sorts by key bytes.
type Dict struct {
	Keys   []Value
	Values []Value
}

func (Integer) bencodeValue()    {}
func (BigInteger) bencodeValue() {}
func (Bytes) bencodeValue()      {}
func (String) bencodeValue()     {}
func (List) bencodeValue()       {}
func (*Dict) bencodeValue()      {}

// DictEntry is a convenience type for building Dict values.
type DictEntry struct {
	Key   Value
	Value Value
}

// Entry returns a DictEntry with a byte-string key.
func Entry(key string, v Value) DictEntry {
	return DictEntry{Key: Bytes(key), Value: v}
}

// NewDict creates a Dict from entries.  Keys are neither sorted nor
// checked until the Dict is encoded.
func NewDict(entries ...DictEntry) *Dict {
	d := &Dict{
		Keys:   make([]Value, len(entries)),
		Values: make([]Value, len(entries)),
	}
	for i, e := range entries {
		d.Keys[i] = e.Key
		d.Values[i] = e.Value
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.Keys)
}

// Get returns the value stored under the key whose bytes equal key.
// Bytes and String keys both match.
func (d *Dict) Get(key string) (Value, bool) {
	i := d.index([]byte(key))
	if i < 0 {
		return nil, false
	}
	return d.Values[i], true
}

// Set replaces the value for key if a key with the same bytes exists,
// otherwise appends a new entry.
func (d *Dict) Set(key, v Value) {
	if kb, ok := rawKey(key); ok {
		if i := d.index(kb); i >= 0 {
			d.Keys[i] = key
			d.Values[i] = v
			return
		}
	}
	d.Keys = append(d.Keys, key)
	d.Values = append(d.Values, v)
}

func (d *Dict) index(key []byte) int {
	for i, k := range d.Keys {
		if kb, ok := rawKey(k); ok && bytes.Equal(kb, key) {
			return i
		}
	}
	return -1
}

// rawKey returns the in-memory bytes of a Bytes or String key.  Text
// keys are compared as their Go (UTF-8) bytes, independent of any
// wire encoding.
func rawKey(k Value) ([]byte, bool) {
	switch k := k.(type) {
	case Bytes:
		return k, true
	case String:
		return []byte(k), true
	}
	return nil, false
}
