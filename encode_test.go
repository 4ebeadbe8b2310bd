package bencode_test

import (
	"bytes"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"

	"github.com/map-protocol/bencode"
)

type infoHashList []string

type rawValue struct {
	raw string
}

func (r rawValue) MarshalBencode() ([]byte, error) {
	return []byte(r.raw), nil
}

type failingMarshaler struct{}

var errNoEncoding = errors.New("no encoding available")

func (failingMarshaler) MarshalBencode() ([]byte, error) {
	return nil, errNoEncoding
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errDiskFull
}

func TestEncodeValues(t *testing.T) {
	wide, _ := new(big.Int).SetString("-18446744073709551616", 10)

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"zero", bencode.Integer(0), "i0e"},
		{"negative", bencode.Integer(-42), "i-42e"},
		{"native int", 7, "i7e"},
		{"int8", int8(-8), "i-8e"},
		{"uint64 max", uint64(math.MaxUint64), "i18446744073709551615e"},
		{"big int", wide, "i-18446744073709551616e"},
		{"big integer", bencode.BigInteger{Int: wide}, "i-18446744073709551616e"},
		{"bytes", bencode.Bytes("spam"), "4:spam"},
		{"native bytes", []byte{0x00, 0xff}, "2:\x00\xff"},
		{"empty bytes", bencode.Bytes{}, "0:"},
		{"text", bencode.String("hello"), "5:hello"},
		{"native string", "héllo", "6:héllo"},
		{"list", bencode.List{bencode.Integer(1), bencode.Bytes("a")}, "li1e1:ae"},
		{"empty list", bencode.List{}, "le"},
		{"native list", []any{1, "a", []byte("b")}, "li1e1:a1:be"},
		{"named slice", infoHashList{"x", "y"}, "l1:x1:ye"},
		{"int slice", []int{3, 2, 1}, "li3ei2ei1ee"},
		{"byte array", [3]byte{'a', 'b', 'c'}, "3:abc"},
		{"empty dict", bencode.NewDict(), "de"},
		{"native map", map[string]any{"b": 1, "a": "x"}, "d1:a1:x1:bi1ee"},
		{"typed map", map[string]int{"z": 26, "y": 25}, "d1:yi25e1:zi26ee"},
		{"value map", map[string]bencode.Value{"k": bencode.List{}}, "d1:klee"},
		{"marshaler", []any{rawValue{"d1:ai1ee"}}, "ld1:ai1eee"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := bencode.Encode(test.value)
			require.NoError(t, err)
			require.Equal(t, test.expected, string(out))
		})
	}
}

func TestEncodeDictSortsKeys(t *testing.T) {
	entries := []bencode.DictEntry{
		bencode.Entry("spam", bencode.List{bencode.Bytes("a"), bencode.Bytes("b")}),
		bencode.Entry("cow", bencode.Bytes("moo")),
		bencode.Entry("Zebra", bencode.Integer(1)),
		bencode.Entry("\xff", bencode.Integer(2)),
		bencode.Entry("", bencode.Integer(3)),
	}
	const expected = "d0:i3e5:Zebrai1e3:cow3:moo4:spaml1:a1:be1:\xffi2ee"

	// Every rotation, forwards and backwards, encodes identically.
	for shift := 0; shift < len(entries); shift++ {
		for _, reverse := range []bool{false, true} {
			perm := make([]bencode.DictEntry, len(entries))
			for i := range entries {
				j := (i + shift) % len(entries)
				if reverse {
					j = len(entries) - 1 - j
				}
				perm[i] = entries[j]
			}
			out, err := bencode.Encode(bencode.NewDict(perm...))
			require.NoError(t, err)
			require.Equal(t, expected, string(out))
		}
	}
}

func TestEncodeNativeMapIsDeterministic(t *testing.T) {
	m := map[string]any{}
	for _, k := range strings.Split("q w e r t y u i o p a s d f g h j k l", " ") {
		m[k] = k
	}
	first, err := bencode.Encode(m)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := bencode.Encode(m)
		require.NoError(t, err)
		require.True(t, bytes.Equal(first, again))
	}
}

func TestEncodeAbsent(t *testing.T) {
	out, err := bencode.Encode(nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)

	_, err = bencode.Encode(bencode.List{nil})
	requireCode(t, err, bencode.ErrType)

	_, err = bencode.Encode(bencode.NewDict(bencode.Entry("a", nil)))
	requireCode(t, err, bencode.ErrType)
}

func TestEncodeUnsupported(t *testing.T) {
	for _, v := range []any{true, 3.14, struct{}{}, make(chan int), map[int]string{1: "a"}, (*bencode.Dict)(nil)} {
		_, err := bencode.Encode(v)
		e := requireCode(t, err, bencode.ErrType)
		require.Equal(t, -1, e.Offset)
		require.False(t, e.Structural())
	}
}

func TestEncodeSkipInvalid(t *testing.T) {
	skip := bencode.WithSkipInvalid(true)

	t.Run("dict entry dropped", func(t *testing.T) {
		out, err := bencode.Encode(map[string]any{"a": struct{}{}}, skip)
		require.NoError(t, err)
		require.Equal(t, "de", string(out))

		_, err = bencode.Encode(map[string]any{"a": struct{}{}})
		requireCode(t, err, bencode.ErrType)
	})

	t.Run("list item dropped", func(t *testing.T) {
		out, err := bencode.Encode([]any{1, nil, 2.5, "x", true}, skip)
		require.NoError(t, err)
		require.Equal(t, "li1e1:xe", string(out))
	})

	t.Run("nested containers keep valid parts", func(t *testing.T) {
		v := bencode.NewDict(
			bencode.Entry("b", bencode.List{nil, bencode.Integer(1)}),
			bencode.Entry("a", nil),
			bencode.Entry("c", bencode.Bytes("ok")),
		)
		out, err := bencode.Encode(v, skip)
		require.NoError(t, err)
		require.Equal(t, "d1:bli1ee1:c2:oke", string(out))
	})

	t.Run("top level becomes empty", func(t *testing.T) {
		out, err := bencode.Encode(3.14, skip)
		require.NoError(t, err)
		require.Empty(t, out)
	})

	t.Run("key collision is still an error", func(t *testing.T) {
		v := bencode.NewDict(
			bencode.DictEntry{Key: bencode.String("a"), Value: bencode.Integer(1)},
			bencode.DictEntry{Key: bencode.Bytes("a"), Value: bencode.Integer(2)},
		)
		_, err := bencode.Encode(v, skip)
		requireCode(t, err, bencode.ErrDupKey)
	})

	t.Run("bad key is still an error", func(t *testing.T) {
		v := bencode.NewDict(bencode.DictEntry{Key: bencode.Integer(1), Value: bencode.Integer(2)})
		_, err := bencode.Encode(v, skip)
		requireCode(t, err, bencode.ErrType)
	})
}

func TestEncodeKeyCollision(t *testing.T) {
	latin1, err := bencode.LookupEncoding("ISO-8859-1")
	require.NoError(t, err)

	// "é" as text encodes to 0xE9 under Latin-1, colliding with the raw key.
	v := bencode.NewDict(
		bencode.DictEntry{Key: bencode.String("é"), Value: bencode.Integer(1)},
		bencode.DictEntry{Key: bencode.Bytes{0xe9}, Value: bencode.Integer(2)},
	)
	_, err = bencode.Encode(v, bencode.WithEncoding(latin1))
	requireCode(t, err, bencode.ErrDupKey)

	// Under UTF-8 the keys differ.
	out, err := bencode.Encode(v)
	require.NoError(t, err)
	require.Equal(t, "d2:éi1e1:\xe9i2ee", string(out))
}

func TestEncodeText(t *testing.T) {
	_, err := bencode.Encode(bencode.String("\xff"))
	requireCode(t, err, bencode.ErrText)
	require.ErrorIs(t, err, encoding.ErrInvalidUTF8)

	latin1, err := bencode.LookupEncoding("ISO-8859-1")
	require.NoError(t, err)

	out, err := bencode.Encode(bencode.List{bencode.String("café")}, bencode.WithEncoding(latin1))
	require.NoError(t, err)
	require.Equal(t, "l4:caf\xe9e", string(out))

	_, err = bencode.Encode(bencode.String("€"), bencode.WithEncoding(latin1), bencode.WithSkipInvalid(true))
	requireCode(t, err, bencode.ErrText)
}

func TestEncodeMarshaler(t *testing.T) {
	_, err := bencode.Encode(rawValue{"d1:b0:1:a0:e"})
	requireCode(t, err, bencode.ErrStrict)

	_, err = bencode.Encode(rawValue{""})
	requireCode(t, err, bencode.ErrType)

	_, err = bencode.Encode(failingMarshaler{})
	require.ErrorIs(t, err, errNoEncoding)
}

func TestEncodeMaxDepth(t *testing.T) {
	v := bencode.List{bencode.List{bencode.List{}}}

	_, err := bencode.Encode(v, bencode.WithMaxDepth(3))
	require.NoError(t, err)

	_, err = bencode.Encode(v, bencode.WithMaxDepth(2))
	requireCode(t, err, bencode.ErrLimitDepth)
}

func TestEncodeTo(t *testing.T) {
	var buf bytes.Buffer
	err := bencode.EncodeTo(&buf, bencode.NewDict(bencode.Entry("cow", bencode.Bytes("moo"))))
	require.NoError(t, err)
	require.Equal(t, "d3:cow3:mooe", buf.String())

	err = bencode.EncodeTo(failingWriter{}, bencode.Integer(1))
	require.ErrorIs(t, err, errDiskFull)

	buf.Reset()
	err = bencode.EncodeTo(&buf, []any{1, 2.5})
	requireCode(t, err, bencode.ErrType)
	require.Zero(t, buf.Len())
}
