package bencode_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/map-protocol/bencode"
)

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"utf-8", "UTF8", "Unicode-1-1-UTF-8"} {
		enc, err := bencode.LookupEncoding(name)
		require.NoError(t, err)
		require.Same(t, bencode.UTF8, enc)
	}

	for _, name := range []string{"ISO-8859-1", "latin1", "windows-1252", "Shift_JIS", "UTF-16BE"} {
		enc, err := bencode.LookupEncoding(name)
		require.NoError(t, err, name)
		require.NotNil(t, enc)
	}

	enc, err := bencode.LookupEncoding("ISO-8859-1")
	require.NoError(t, err)
	require.Equal(t, "iso-8859-1", enc.Name())

	_, err = bencode.LookupEncoding("no-such-charset")
	require.Error(t, err)
}

func TestLatin1Text(t *testing.T) {
	latin1, err := bencode.LookupEncoding("ISO-8859-1")
	require.NoError(t, err)

	out, err := bencode.Encode(bencode.String("café"), bencode.WithEncoding(latin1))
	require.NoError(t, err)
	require.Equal(t, "4:caf\xe9", string(out))

	v, err := bencode.Decode(out, bencode.WithEncoding(latin1))
	require.NoError(t, err)
	require.Equal(t, bencode.String("café"), v)

	_, err = bencode.Encode(bencode.String("€"), bencode.WithEncoding(latin1))
	requireCode(t, err, bencode.ErrText)
}

func TestNewEncoding(t *testing.T) {
	koi := bencode.NewEncoding("KOI8-R", charmap.KOI8R)
	require.Equal(t, "koi8-r", koi.Name())

	out, err := bencode.Encode(bencode.List{bencode.String("да")}, bencode.WithEncoding(koi))
	require.NoError(t, err)
	require.Equal(t, "l2:\xc4\xc1e", string(out))

	v, err := bencode.Decode(out, bencode.WithEncoding(koi))
	require.NoError(t, err)
	require.Equal(t, bencode.List{bencode.String("да")}, v)
}

func TestTextKeysDecodeAsString(t *testing.T) {
	v, err := bencode.Decode([]byte("d4:name3:foo4:sizei7ee"), bencode.WithEncoding(bencode.UTF8))
	require.NoError(t, err)

	d, ok := v.(*bencode.Dict)
	require.True(t, ok)
	require.Equal(t, []bencode.Value{bencode.String("name"), bencode.String("size")}, d.Keys)
	require.Equal(t, []bencode.Value{bencode.String("foo"), bencode.Integer(7)}, d.Values)
}
