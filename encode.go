package bencode

import (
	"bytes"
	"math/big"
	"reflect"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Marshaler is implemented by types that produce their own encoding.
// The returned bytes must be exactly one canonical bencode value; they
// are validated, then written verbatim.
type Marshaler interface {
	MarshalBencode() ([]byte, error)
}

// errSkip reports an unsupported value under WithSkipInvalid.  It
// never escapes the package: containers drop the offending child and
// the top level turns it into an empty output.
var errSkip = errors.New("skip unsupported value")

type encoder struct {
	buf  bytes.Buffer
	opts *options
}

// dictItem is one dict entry after key normalization.
type dictItem struct {
	key []byte
	val any
}

// encodeValue encodes v into canonical bencode.
//
// Depth tracks container nesting:
//   - Root call starts at depth=0.
//   - Entering a list or dict checks depth+1 against the limit.
//   - Scalars don't increment depth.
func encodeValue(v any, opts *options) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	e := &encoder{opts: opts}
	if err := e.encode(v, 0); err != nil {
		if errors.Is(err, errSkip) {
			return []byte{}, nil
		}
		return nil, err
	}
	return e.buf.Bytes(), nil
}

func (e *encoder) encode(v any, depth int) error {
	switch val := v.(type) {

	case Marshaler:
		return e.encodeMarshaler(val)

	case Integer:
		e.writeInt(int64(val))
	case int:
		e.writeInt(int64(val))
	case int8:
		e.writeInt(int64(val))
	case int16:
		e.writeInt(int64(val))
	case int32:
		e.writeInt(int64(val))
	case int64:
		e.writeInt(val)
	case uint:
		e.writeUint(uint64(val))
	case uint8:
		e.writeUint(uint64(val))
	case uint16:
		e.writeUint(uint64(val))
	case uint32:
		e.writeUint(uint64(val))
	case uint64:
		e.writeUint(val)
	case BigInteger:
		if val.Int == nil {
			return e.unsupported(v)
		}
		e.writeBigInt(val.Int)
	case *big.Int:
		if val == nil {
			return e.unsupported(v)
		}
		e.writeBigInt(val)

	case Bytes:
		e.writeBytes(val)
	case []byte:
		e.writeBytes(val)
	case String:
		return e.writeText(string(val))
	case string:
		return e.writeText(val)

	case List:
		return e.encodeList(len(val), func(i int) any { return val[i] }, depth)
	case []Value:
		return e.encodeList(len(val), func(i int) any { return val[i] }, depth)
	case []any:
		return e.encodeList(len(val), func(i int) any { return val[i] }, depth)

	case *Dict:
		if val == nil {
			return e.unsupported(v)
		}
		if len(val.Keys) != len(val.Values) {
			return newErrf(ErrType, -1, "dict has %d keys but %d values", len(val.Keys), len(val.Values))
		}
		items := make([]dictItem, len(val.Keys))
		for i, k := range val.Keys {
			kb, err := e.normalizeKey(k)
			if err != nil {
				return err
			}
			items[i] = dictItem{key: kb, val: val.Values[i]}
		}
		return e.encodeDict(items, depth)
	case map[string]any:
		items := make([]dictItem, 0, len(val))
		for k, item := range val {
			kb, err := e.text(k)
			if err != nil {
				return err
			}
			items = append(items, dictItem{key: kb, val: item})
		}
		return e.encodeDict(items, depth)
	case map[string]Value:
		items := make([]dictItem, 0, len(val))
		for k, item := range val {
			kb, err := e.text(k)
			if err != nil {
				return err
			}
			items = append(items, dictItem{key: kb, val: item})
		}
		return e.encodeDict(items, depth)

	default:
		return e.encodeReflect(v, depth)
	}
	return nil
}

// encodeReflect handles named types whose underlying kind has a
// bencode representation: integer kinds, strings, byte slices, other
// slices and arrays, and maps with string keys.
func (e *encoder) encodeReflect(v any, depth int) error {
	if v == nil {
		return e.unsupported(v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.writeUint(rv.Uint())
	case reflect.String:
		return e.writeText(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			e.writeBytes(b)
			return nil
		}
		return e.encodeList(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return e.unsupported(v)
		}
		items := make([]dictItem, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kb, err := e.text(iter.Key().String())
			if err != nil {
				return err
			}
			items = append(items, dictItem{key: kb, val: iter.Value().Interface()})
		}
		return e.encodeDict(items, depth)
	default:
		return e.unsupported(v)
	}
	return nil
}

func (e *encoder) encodeList(n int, item func(int) any, depth int) error {
	if depth+1 > e.opts.maxDepth {
		return newErr(ErrLimitDepth, -1, "depth exceeds max depth")
	}
	e.buf.WriteByte(tokenList)
	for i := 0; i < n; i++ {
		mark := e.buf.Len()
		if err := e.encode(item(i), depth+1); err != nil {
			if errors.Is(err, errSkip) {
				e.buf.Truncate(mark)
				continue
			}
			return err
		}
	}
	e.buf.WriteByte(tokenEnd)
	return nil
}

func (e *encoder) encodeDict(items []dictItem, depth int) error {
	if depth+1 > e.opts.maxDepth {
		return newErr(ErrLimitDepth, -1, "depth exceeds max depth")
	}
	// Unsigned-octet lexicographic order of the raw key bytes.
	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].key, items[j].key) < 0
	})
	// Collisions are a hard error even under skip-invalid.
	for i := 1; i < len(items); i++ {
		if bytes.Equal(items[i-1].key, items[i].key) {
			return newErrf(ErrDupKey, -1, "duplicate dict key %q", items[i].key)
		}
	}
	e.buf.WriteByte(tokenDict)
	for _, it := range items {
		mark := e.buf.Len()
		e.writeBytes(it.key)
		if err := e.encode(it.val, depth+1); err != nil {
			if errors.Is(err, errSkip) {
				e.buf.Truncate(mark)
				continue
			}
			return err
		}
	}
	e.buf.WriteByte(tokenEnd)
	return nil
}

func (e *encoder) encodeMarshaler(m Marshaler) error {
	raw, err := m.MarshalBencode()
	if err != nil {
		return errors.Wrapf(err, "bencode: %T.MarshalBencode", m)
	}
	if len(raw) == 0 {
		return newErrf(ErrType, -1, "%T.MarshalBencode returned no value", m)
	}
	if _, err := decodeValue(raw, defaultOptions()); err != nil {
		return errors.Wrapf(err, "bencode: %T.MarshalBencode returned invalid output", m)
	}
	e.buf.Write(raw)
	return nil
}

// normalizeKey converts a dict key to its wire bytes.
func (e *encoder) normalizeKey(k Value) ([]byte, error) {
	switch k := k.(type) {
	case Bytes:
		return k, nil
	case String:
		return e.text(string(k))
	}
	return nil, newErrf(ErrType, -1, "dict key must be Bytes or String, got %T", k)
}

func (e *encoder) text(s string) ([]byte, error) {
	enc := e.opts.textEncoding()
	b, err := enc.encode(s)
	if err != nil {
		return nil, textErr(-1, "cannot encode "+strconv.Quote(s)+" as "+enc.Name(), err)
	}
	return b, nil
}

func (e *encoder) unsupported(v any) error {
	if e.opts.skipInvalid {
		return errSkip
	}
	return newErrf(ErrType, -1, "unsupported type %T: %v", v, v)
}

func (e *encoder) writeInt(n int64) {
	var tmp [24]byte
	e.buf.WriteByte(tokenInteger)
	e.buf.Write(strconv.AppendInt(tmp[:0], n, 10))
	e.buf.WriteByte(tokenEnd)
}

func (e *encoder) writeUint(n uint64) {
	var tmp [24]byte
	e.buf.WriteByte(tokenInteger)
	e.buf.Write(strconv.AppendUint(tmp[:0], n, 10))
	e.buf.WriteByte(tokenEnd)
}

func (e *encoder) writeBigInt(n *big.Int) {
	e.buf.WriteByte(tokenInteger)
	e.buf.Write(n.Append(nil, 10))
	e.buf.WriteByte(tokenEnd)
}

func (e *encoder) writeBytes(b []byte) {
	var tmp [24]byte
	e.buf.Write(strconv.AppendInt(tmp[:0], int64(len(b)), 10))
	e.buf.WriteByte(tokenColon)
	e.buf.Write(b)
}

func (e *encoder) writeText(s string) error {
	b, err := e.text(s)
	if err != nil {
		return err
	}
	e.writeBytes(b)
	return nil
}
