package bencode

// Wire delimiters.  Every bencode value starts with one of the type
// bytes or an ASCII digit (byte-string length prefix).
const (
	tokenInteger byte = 'i'
	tokenList    byte = 'l'
	tokenDict    byte = 'd'
	tokenEnd     byte = 'e'
	tokenColon   byte = ':'
	tokenMinus   byte = '-'
)

// DefaultMaxDepth bounds container nesting for both directions.  Real
// metainfo files nest a handful of levels; the bound only exists so a
// hostile input cannot exhaust the goroutine stack.
const DefaultMaxDepth = 512

// binaryKey is the single-key JSON object used by the JSON adapter to
// carry byte strings that are not valid UTF-8.
const binaryKey = "$binary"
