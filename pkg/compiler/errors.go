package compiler

import (
	"errors"
	"fmt"
)

var (
	ErrUnboundVariable = errors.New("unbound variable")
	ErrFinalized       = errors.New("compilation already finalized")
	ErrScopeUnderflow  = errors.New("no enclosing scope to exit to")
	ErrOutsideFunction = errors.New("return outside of function")
	ErrUnterminated    = errors.New("unterminated block")
	ErrUnmarkedLabel   = errors.New("jump to unmarked label")
	ErrBadOpcode       = errors.New("opcode is not a binary operator")
	ErrImport          = errors.New("failed to import")
)

// Location is a source position attached to diagnosable compile errors.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<none>"
	}

	return fmt.Sprintf("%s:%d", file, l.Line)
}

type CompileError struct {
	Loc Location
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v: %v", e.Loc, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

type ErrorSet struct {
	Errs []error
}

func newErrorSet() *ErrorSet {
	return new(ErrorSet)
}

func (e *ErrorSet) Add(err error) {
	var subErrs *ErrorSet
	if errors.As(err, &subErrs) {
		e.Errs = append(e.Errs, subErrs.Unwrap()...)
	} else {
		e.Errs = append(e.Errs, err)
	}
}

func (e ErrorSet) Error() string {
	return errors.Join(e.Errs...).Error()
}

func (e ErrorSet) Unwrap() []error {
	return e.Errs
}

func (e *ErrorSet) Defer(err error) error {
	if err != nil && e != err {
		e.Add(err)
	}

	if len(e.Errs) == 0 {
		return nil
	}

	return e
}
