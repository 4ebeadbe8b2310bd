package bencode

// Option configures Encode, Decode and the functions built on them.
// Options that only make sense in one direction are ignored by the
// other.
type Option func(*options)

type options struct {
	encoding    *Encoding
	strict      bool
	skipInvalid bool
	maxDepth    int
}

func defaultOptions() *options {
	return &options{
		strict:   true,
		maxDepth: DefaultMaxDepth,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithEncoding sets the text encoding.  When encoding, String and Go
// string values are converted with enc (default UTF8).  When decoding,
// every byte string, including dict keys, is converted with enc and
// returned as String; without this option strings stay Bytes.
func WithEncoding(enc *Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// WithStrict toggles strict decoding (default true).  Strict decoding
// rejects leading zeros, negative zero and unsorted dict keys with
// ErrStrict.  Duplicate keys are rejected either way.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithSkipInvalid makes the encoder drop values it cannot represent
// instead of failing: list items are omitted, dict entries are omitted
// along with their key, and an unsupported top-level value encodes to
// an empty output.
func WithSkipInvalid(skip bool) Option {
	return func(o *options) {
		o.skipInvalid = skip
	}
}

// WithMaxDepth bounds container nesting.  n <= 0 restores
// DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		o.maxDepth = n
	}
}

func (o *options) textEncoding() *Encoding {
	if o.encoding == nil {
		return UTF8
	}
	return o.encoding
}
