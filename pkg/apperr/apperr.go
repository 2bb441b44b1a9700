package apperr

import (
	"errors"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind string

const (
	KindUnknown              Kind = "unknown"
	KindAuth                 Kind = "auth"
	KindValidation           Kind = "validation"
	KindCreation             Kind = "creation"
	KindDependencyDelete     Kind = "dependency_delete"
	KindDeletionVerification Kind = "deletion_verification"
	KindUpstream             Kind = "upstream"
)

// Error is a failure tagged with its Kind. Msg is safe to show to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind with a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags err with kind. msg may be empty, in which case err's message is used as is.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
