package cv

import (
	"context"
	"errors"
	"fmt"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines cv error kinds.
type ErrorKind string

const (
	KindOutOfRange      ErrorKind = "out_of_range"
	KindUnknownField    ErrorKind = "unknown_field"
	KindIndexOutOfRange ErrorKind = "index_out_of_range"
	KindExport          ErrorKind = "export"
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindTimeout         ErrorKind = "timeout"
	KindCanceled        ErrorKind = "canceled"
	KindInternal        ErrorKind = "internal"
	KindNotImpl         ErrorKind = "not_implemented"
)

// Error wraps errors with a kind.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new cv error.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func outOfRange(step, total int) *Error {
	return NewError(KindOutOfRange, fmt.Sprintf("step %d outside [1, %d]", step, total), nil)
}

func unknownField(section Section, key string) *Error {
	return NewError(KindUnknownField, fmt.Sprintf("unknown field %s.%s", section, key), nil)
}

func indexOutOfRange(what string, index, length int) *Error {
	return NewError(KindIndexOutOfRange, fmt.Sprintf("%s index %d outside [0, %d)", what, index, length), nil)
}

// ExportFailed wraps an exporter failure as an export error. Errors that already carry
// the export kind are returned unchanged.
func ExportFailed(msg string, err error) error {
	var cvErr *Error
	if errors.As(err, &cvErr) && cvErr.Kind == KindExport {
		return err
	}
	return NewError(KindExport, msg, err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindFromError(err) == kind
}

// KindFromError maps an error to its kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var cvErr *Error
	if errors.As(err, &cvErr) {
		return cvErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}

// RootError returns the innermost cv error in err's chain, or nil when the
// chain carries none. Wrapping layers such as ExportFailed are skipped.
func RootError(err error) *Error {
	var root *Error
	for e := err; e != nil; e = errors.Unwrap(e) {
		var cvErr *Error
		if !errors.As(e, &cvErr) {
			break
		}
		root = cvErr
		e = cvErr
	}
	return root
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindInternal
	msg := err.Error()

	var cvErr *Error
	if errors.As(err, &cvErr) {
		kind = cvErr.Kind
		if cvErr.Msg != "" {
			msg = cvErr.Msg
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}

	switch kind {
	case KindOutOfRange:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("out_of_range")
	case KindUnknownField:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("unknown_field")
	case KindIndexOutOfRange:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("index_out_of_range")
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindExport:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("export_failed")
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}
