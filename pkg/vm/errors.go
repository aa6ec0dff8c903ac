package vm

import (
	"errors"
	"fmt"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

var (
	ErrDivisionByZero = value.ErrDivisionByZero
	ErrArity          = value.ErrArity
	ErrArgType        = value.ErrArgType

	ErrNotCallable   = errors.New("value is not callable")
	ErrNoSuchMethod  = errors.New("no such method")
	ErrStackOverflow = errors.New("stack overflow")
	ErrBadOperand    = errors.New("malformed operand")
	ErrBadOpcode     = errors.New("invalid opcode")
	ErrBadAddress    = errors.New("program counter out of range")
	ErrThreadFault   = errors.New("thread ended abnormally")
)

// RuntimeFault is raised when an instruction fails. The faulting thread's
// frames have already been unwound when it is returned.
type RuntimeFault struct {
	Thread uint32
	PC     int
	Op     ir.Opcode
	Line   int
	Err    error
}

func (f *RuntimeFault) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("runtime fault on line %d (thread %d, %v at %d): %v", f.Line, f.Thread, f.Op, f.PC, f.Err)
	}

	return fmt.Sprintf("runtime fault (thread %d, %v at %d): %v", f.Thread, f.Op, f.PC, f.Err)
}

func (f *RuntimeFault) Unwrap() error {
	return f.Err
}
