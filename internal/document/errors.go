package document

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation        = errors.New("invalid node attribute")
	ErrStructural        = errors.New("disallowed child kind")
	ErrNotFound          = errors.New("node not found")
	ErrInvariant         = errors.New("tree invariant violated")
	ErrStaleSelection    = errors.New("stale selection")
	ErrNotApplicable     = errors.New("command not applicable")
	ErrMalformedDocument = errors.New("malformed document")
)

// Error describes a failed document operation.
type Error struct {
	Op     string // "insert", "remove", "patch-style", "decode", ...
	Key    Key    // node the failure refers to, if any
	Kind   error  // one of the Err* sentinels
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("document %s: %v", e.Op, e.Kind)
	if e.Key != "" {
		msg += fmt.Sprintf(" [key %s]", e.Key)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(op string, kind error, key Key, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Key: key, Detail: fmt.Sprintf(format, args...)}
}

// Errorf builds an *Error of the given kind. Used by packages layered on top
// of the model (codecs, commands) so that every failure shares one taxonomy.
func Errorf(op string, kind error, format string, args ...any) error {
	return newError(op, kind, "", format, args...)
}

// Wrap attaches kind to cause.
func Wrap(op string, kind error, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Cause: cause}
}
