package repository

import "errors"

// Kind classifies a repository failure so callers can decide whether to
// retry, surface a conflict to the operator, or give up outright.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindConflict  Kind = "conflict"
	KindTransient Kind = "transient"
	KindPermanent Kind = "permanent"
)

// Error wraps a repository failure with its Kind alongside the underlying
// driver error, so callers can errors.As into it without string-matching
// driver-specific messages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.Kind)
	}
	return e.Op + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a Kind-classified repository error.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsKind reports whether err (or anything it wraps) is a repository Error
// of the given Kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}
