package bencode

import (
	"strconv"
	"strings"
)

// Lookup resolves an RFC 6901 JSON Pointer against root.  Dict tokens
// match key bytes (Bytes and String keys alike); list tokens are
// decimal indices without leading zeros.  "" returns root itself.
func Lookup(root Value, pointer string) (Value, error) {
	tokens, err := parsePointer(pointer)
	if err != nil {
		return nil, err
	}
	cur := root
	for i, tok := range tokens {
		switch c := cur.(type) {
		case *Dict:
			v, ok := c.Get(tok)
			if !ok {
				return nil, newErrf(ErrPath, -1, "no key %q at %s", tok, joinPointer(tokens[:i]))
			}
			cur = v
		case List:
			idx, ok := listIndex(tok)
			if !ok || idx >= len(c) {
				return nil, newErrf(ErrPath, -1, "no index %q at %s", tok, joinPointer(tokens[:i]))
			}
			cur = c[idx]
		default:
			return nil, newErrf(ErrPath, -1, "cannot descend into %T at %s", cur, joinPointer(tokens[:i]))
		}
	}
	return cur, nil
}

// Select projects root onto the dict entries addressed by pointers.
//
// Rules:
//
//	(a) root must be a dict; every pointer must parse
//	(b) duplicate pointers are rejected
//	(c) if no pointer matches the result is an empty dict; if only
//	    some match, the set is rejected
//	(d) a pointer subsumed by a shorter matching pointer is dropped
//	(e) "" selects the whole root
//	(f) only dicts are traversed; descending into a list is rejected
//
// The result keeps only the selected entries and the dicts that
// enclose them; values are shared with root, not copied.
func Select(root Value, pointers []string) (*Dict, error) {
	d, ok := root.(*Dict)
	if !ok {
		return nil, newErrf(ErrPath, -1, "select root must be a dict, got %T", root)
	}

	seen := make(map[string]bool, len(pointers))
	for _, p := range pointers {
		if seen[p] {
			return nil, newErrf(ErrPath, -1, "duplicate pointer %q", p)
		}
		seen[p] = true
	}

	parsed := make([][]string, len(pointers))
	for i, p := range pointers {
		tokens, err := parsePointer(p)
		if err != nil {
			return nil, err
		}
		parsed[i] = tokens
	}

	whole := seen[""]
	anyMatch := whole
	anyUnmatched := false
	var matched [][]string
	for i, tokens := range parsed {
		if pointers[i] == "" {
			continue
		}
		_, found, err := resolveDictPath(d, tokens)
		if err != nil {
			return nil, err
		}
		if found {
			anyMatch = true
			matched = append(matched, tokens)
		} else {
			anyUnmatched = true
		}
	}

	if !anyMatch {
		return NewDict(), nil
	}
	if anyUnmatched {
		return nil, newErr(ErrPath, -1, "pointer set is partially unmatched")
	}
	if whole {
		return d, nil
	}

	out := NewDict()
	for _, tokens := range matched {
		if subsumed(tokens, matched) {
			continue
		}
		src, target := d, out
		for i, tok := range tokens {
			key, val := lookupEntry(src, tok)
			if i == len(tokens)-1 {
				target.Set(key, val)
				break
			}
			existing, ok := target.Get(tok)
			if !ok {
				child := NewDict()
				target.Set(key, child)
				target = child
			} else {
				child, ok := existing.(*Dict)
				if !ok {
					return nil, newErrf(ErrPath, -1, "path conflict at %s", joinPointer(tokens[:i+1]))
				}
				target = child
			}
			src = val.(*Dict) // resolveDictPath already walked it
		}
	}
	return out, nil
}

// resolveDictPath walks tokens through nested dicts.  found is false
// when a key is missing or a scalar is reached early.
func resolveDictPath(d *Dict, tokens []string) (Value, bool, error) {
	cur := Value(d)
	for i, tok := range tokens {
		if _, isList := cur.(List); isList {
			return nil, false, newErrf(ErrPath, -1, "select cannot traverse the list at %s", joinPointer(tokens[:i]))
		}
		m, isDict := cur.(*Dict)
		if !isDict {
			return nil, false, nil
		}
		v, ok := m.Get(tok)
		if !ok {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

func lookupEntry(d *Dict, tok string) (Value, Value) {
	i := d.index([]byte(tok))
	return d.Keys[i], d.Values[i]
}

func subsumed(tokens []string, all [][]string) bool {
	for _, other := range all {
		if tokensPrefix(other, tokens) {
			return true
		}
	}
	return false
}

// parsePointer parses an RFC 6901 JSON Pointer into reference tokens.
// "" → [] (whole document).
func parsePointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, newErrf(ErrPath, -1, "pointer %q must start with '/'", ptr)
	}
	parts := strings.Split(ptr[1:], "/")
	tokens := make([]string, len(parts))
	for i, raw := range parts {
		// ~0 → "~", ~1 → "/", one escape at a time so "~01" is "~1".
		var b strings.Builder
		for j := 0; j < len(raw); j++ {
			if raw[j] != '~' {
				b.WriteByte(raw[j])
				continue
			}
			if j+1 >= len(raw) {
				return nil, newErrf(ErrPath, -1, "dangling ~ in pointer %q", ptr)
			}
			switch raw[j+1] {
			case '0':
				b.WriteByte('~')
			case '1':
				b.WriteByte('/')
			default:
				return nil, newErrf(ErrPath, -1, "bad ~ escape in pointer %q", ptr)
			}
			j++
		}
		tokens[i] = b.String()
	}
	return tokens, nil
}

func joinPointer(tokens []string) string {
	if len(tokens) == 0 {
		return `""`
	}
	r := strings.NewReplacer("~", "~0", "/", "~1")
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(r.Replace(t))
	}
	return b.String()
}

func listIndex(tok string) (int, bool) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(tok); i++ {
		if !isDigit(tok[i]) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

// tokensPrefix returns true if a is a strict prefix of b.
func tokensPrefix(a, b []string) bool {
	if len(a) >= len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
