package savings

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so callers can map them to user messages.
type Kind string

const (
	KindInvalidAmount     Kind = "invalid_amount"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindTrackerNotFound   Kind = "tracker_not_found"
	KindPermissionDenied  Kind = "permission_denied"
	KindInvalidInput      Kind = "invalid_input"
	KindStorage           Kind = "storage_failure"
)

// Error is returned by every Service operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrInsufficientFunds)
// works regardless of Op or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidAmount     = &Error{Kind: KindInvalidAmount}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrTrackerNotFound   = &Error{Kind: KindTrackerNotFound}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrStorage           = &Error{Kind: KindStorage}
)

// KindOf returns the Kind of err, or KindStorage for anything that did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func newError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// storageErr wraps a persistence failure. Engine errors pass through with op
// filled in.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			cp := *e
			cp.Op = op
			return &cp
		}
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}
