package bencode

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error codes.  Decode errors carry the byte offset of the anomaly,
// encode errors carry offset -1.
const (
	ErrType       = "ERR_TYPE"        // value has no bencode representation
	ErrSyntax     = "ERR_SYNTAX"      // malformed input
	ErrStrict     = "ERR_STRICT"      // non-canonical input rejected in strict mode
	ErrDupKey     = "ERR_DUP_KEY"     // dict key repeated
	ErrText       = "ERR_TEXT"        // text encoding could not convert a string
	ErrLimitDepth = "ERR_LIMIT_DEPTH" // containers nested beyond the depth limit
	ErrPath       = "ERR_PATH"        // pointer did not resolve
)

// Error is the error type returned by every operation in this package.
type Error struct {
	Code   string
	Offset int
	Msg    string

	cause error
}

func (e *Error) Error() string {
	var s string
	if e.Offset >= 0 {
		s = fmt.Sprintf("%s at offset %d", e.Code, e.Offset)
	} else {
		s = e.Code
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap returns the text codec's error for ErrText, nil otherwise.
func (e *Error) Unwrap() error {
	return e.cause
}

// Structural reports whether e describes malformed bencode input, as
// opposed to an unencodable value or a text conversion failure.
// ErrStrict is a refinement of ErrSyntax and counts as structural.
func (e *Error) Structural() bool {
	switch e.Code {
	case ErrSyntax, ErrStrict, ErrDupKey, ErrLimitDepth:
		return true
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newErr(code string, off int, msg string) *Error {
	return &Error{Code: code, Offset: off, Msg: msg}
}

func newErrf(code string, off int, format string, args ...any) *Error {
	return &Error{Code: code, Offset: off, Msg: fmt.Sprintf(format, args...)}
}

func textErr(off int, msg string, cause error) *Error {
	return &Error{Code: ErrText, Offset: off, Msg: msg, cause: cause}
}
