package bencode

import (
	"bytes"
	"encoding/base64"
	"math/big"
	"unicode/utf8"

	"github.com/buger/jsonparser"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ToJSON renders v as JSON for inspection and interchange.
//
//   - Integer, BigInteger → number
//   - String, and Bytes that are valid UTF-8 → string
//   - other Bytes → {"$binary": "<standard base64>"}
//   - List → array
//   - *Dict → object with sorted keys; keys must be valid UTF-8
//
// FromJSON reverses the mapping, except that every JSON string comes
// back as String.
func ToJSON(v Value) ([]byte, error) {
	tree, err := toJSONTree(v, 0)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(tree)
}

func toJSONTree(v Value, depth int) (any, error) {
	switch val := v.(type) {

	case Integer:
		return int64(val), nil

	case BigInteger:
		if val.Int == nil {
			return nil, newErr(ErrType, -1, "nil BigInteger")
		}
		return jsoniter.RawMessage(val.String()), nil

	case String:
		if !utf8.ValidString(string(val)) {
			return nil, newErr(ErrType, -1, "String is not valid UTF-8")
		}
		return string(val), nil

	case Bytes:
		if utf8.Valid(val) {
			return string(val), nil
		}
		return map[string]any{binaryKey: base64.StdEncoding.EncodeToString(val)}, nil

	case List:
		if depth+1 > DefaultMaxDepth {
			return nil, newErr(ErrLimitDepth, -1, "depth exceeds max depth")
		}
		arr := make([]any, len(val))
		for i, item := range val {
			t, err := toJSONTree(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = t
		}
		return arr, nil

	case *Dict:
		if val == nil {
			return nil, newErr(ErrType, -1, "nil *Dict")
		}
		if depth+1 > DefaultMaxDepth {
			return nil, newErr(ErrLimitDepth, -1, "depth exceeds max depth")
		}
		if len(val.Keys) == 1 {
			if kb, ok := rawKey(val.Keys[0]); ok && string(kb) == binaryKey {
				return nil, newErr(ErrType, -1, "a dict whose only key is "+binaryKey+" is reserved by the JSON mapping")
			}
		}
		obj := make(map[string]any, len(val.Keys))
		for i, k := range val.Keys {
			kb, ok := rawKey(k)
			if !ok {
				return nil, newErrf(ErrType, -1, "dict key must be Bytes or String, got %T", k)
			}
			if !utf8.Valid(kb) {
				return nil, newErrf(ErrType, -1, "dict key %q is not valid UTF-8", kb)
			}
			if _, dup := obj[string(kb)]; dup {
				return nil, newErrf(ErrDupKey, -1, "duplicate dict key %q", kb)
			}
			t, err := toJSONTree(val.Values[i], depth+1)
			if err != nil {
				return nil, err
			}
			obj[string(kb)] = t
		}
		return obj, nil

	default:
		return nil, newErrf(ErrType, -1, "unsupported type %T", v)
	}
}

// FromJSON converts a single JSON document into a Value.
//
// Strings become String, integers become Integer (BigInteger when
// wider than 64 bits), arrays become List and objects become *Dict.
// An object of the form {"$binary": "<base64>"} becomes Bytes.
// Floats, booleans and null have no bencode form and fail with
// ErrType; duplicate object keys fail with ErrDupKey.
func FromJSON(raw []byte) (Value, error) {
	// jsonparser walks without validating; reject malformed documents first.
	if !jsonAPI.Valid(raw) {
		return nil, newErr(ErrSyntax, -1, "invalid JSON document")
	}
	data, typ, end, err := jsonparser.Get(raw)
	if err != nil {
		return nil, newErrf(ErrSyntax, -1, "invalid JSON: %v", err)
	}
	if len(bytes.TrimSpace(raw[end:])) != 0 {
		return nil, newErrf(ErrSyntax, end, "trailing JSON content")
	}
	return fromJSONValue(data, typ, 0)
}

func fromJSONValue(data []byte, typ jsonparser.ValueType, depth int) (Value, error) {
	switch typ {

	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, newErrf(ErrSyntax, -1, "invalid JSON string: %v", err)
		}
		return String(s), nil

	case jsonparser.Number:
		return convertJSONNumber(data)

	case jsonparser.Array:
		if depth+1 > DefaultMaxDepth {
			return nil, newErr(ErrLimitDepth, -1, "depth exceeds max depth")
		}
		arr := make(List, 0)
		var firstErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
			if firstErr != nil {
				return
			}
			if err != nil {
				firstErr = newErrf(ErrSyntax, -1, "invalid JSON array: %v", err)
				return
			}
			item, err := fromJSONValue(value, dataType, depth+1)
			if err != nil {
				firstErr = err
				return
			}
			arr = append(arr, item)
		})
		if firstErr != nil {
			return nil, firstErr
		}
		if err != nil {
			return nil, newErrf(ErrSyntax, -1, "invalid JSON array: %v", err)
		}
		return arr, nil

	case jsonparser.Object:
		return fromJSONObject(data, depth)

	case jsonparser.Boolean, jsonparser.Null:
		return nil, newErrf(ErrType, -1, "JSON %s has no bencode representation", typ)

	default:
		return nil, newErrf(ErrSyntax, -1, "unexpected JSON value type %s", typ)
	}
}

func fromJSONObject(data []byte, depth int) (Value, error) {
	if depth+1 > DefaultMaxDepth {
		return nil, newErr(ErrLimitDepth, -1, "depth exceeds max depth")
	}
	out := NewDict()
	seen := make(map[string]bool)
	var binaryPayload string
	var binaryIsString bool
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		// Keys arrive unescaped; copy before the parser reuses the buffer.
		k := string(key)
		if seen[k] {
			return newErrf(ErrDupKey, -1, "duplicate JSON key %q", k)
		}
		seen[k] = true
		v, err := fromJSONValue(value, dataType, depth+1)
		if err != nil {
			return err
		}
		if s, ok := v.(String); ok && k == binaryKey {
			binaryPayload = string(s)
			binaryIsString = true
		}
		out.Keys = append(out.Keys, String(k))
		out.Values = append(out.Values, v)
		return nil
	})
	if err != nil {
		if CodeOf(err) != "" {
			return nil, err
		}
		return nil, newErrf(ErrSyntax, -1, "invalid JSON object: %v", err)
	}
	if out.Len() == 1 && binaryIsString {
		b, err := base64.StdEncoding.DecodeString(binaryPayload)
		if err != nil {
			return nil, newErrf(ErrSyntax, -1, "invalid %s payload: %v", binaryKey, err)
		}
		return Bytes(b), nil
	}
	return out, nil
}

// convertJSONNumber inspects the raw token to tell integers from
// floats: "1.0" is rejected even though its value is integral.
func convertJSONNumber(data []byte) (Value, error) {
	integral, ok := scanJSONNumber(data)
	if !ok {
		return nil, newErrf(ErrSyntax, -1, "invalid JSON number %q", data)
	}
	if !integral {
		return nil, newErrf(ErrType, -1, "JSON float %s has no bencode representation", data)
	}
	if n, err := jsonparser.ParseInt(data); err == nil {
		return Integer(n), nil
	}
	b, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return nil, newErrf(ErrSyntax, -1, "invalid JSON number %s", data)
	}
	// jsonparser overflows on the int64 minimum.
	if b.IsInt64() {
		return Integer(b.Int64()), nil
	}
	return BigInteger{b}, nil
}

// scanJSONNumber checks data against the RFC 8259 number grammar
//
//	-? (0 | [1-9][0-9]*) (. [0-9]+)? ([eE] [+-]? [0-9]+)?
//
// and reports whether it has neither fraction nor exponent.
func scanJSONNumber(data []byte) (integral, ok bool) {
	i := 0
	if i < len(data) && data[i] == '-' {
		i++
	}
	switch {
	case i < len(data) && data[i] == '0':
		i++
	case i < len(data) && data[i] >= '1' && data[i] <= '9':
		for i < len(data) && isDigit(data[i]) {
			i++
		}
	default:
		return false, false
	}
	integral = true
	if i < len(data) && data[i] == '.' {
		integral = false
		i++
		start := i
		for i < len(data) && isDigit(data[i]) {
			i++
		}
		if i == start {
			return false, false
		}
	}
	if i < len(data) && (data[i] == 'e' || data[i] == 'E') {
		integral = false
		i++
		if i < len(data) && (data[i] == '+' || data[i] == '-') {
			i++
		}
		start := i
		for i < len(data) && isDigit(data[i]) {
			i++
		}
		if i == start {
			return false, false
		}
	}
	return integral, i == len(data)
}
