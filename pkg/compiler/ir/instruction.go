package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/rhino1998/clever/pkg/value"
)

// Instruction is one fixed-shape IR step. Result names the slot receiving the
// instruction's output, value.None when there is none.
type Instruction struct {
	Op     Opcode   `cbor:"1,keyasint"`
	Op1    Operand  `cbor:"2,keyasint"`
	Op2    Operand  `cbor:"3,keyasint"`
	Result value.ID `cbor:"4,keyasint,omitempty"`
	Line   int      `cbor:"5,keyasint,omitempty"`
}

func New(op Opcode, operands ...Operand) Instruction {
	in := Instruction{Op: op}
	if len(operands) > 0 {
		in.Op1 = operands[0]
	}
	if len(operands) > 1 {
		in.Op2 = operands[1]
	}

	return in
}

func (i Instruction) WithResult(id value.ID) Instruction {
	i.Result = id
	return i
}

func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(i.Op.String())
	if i.Op1.Used() || i.Op2.Used() {
		fmt.Fprintf(&b, " %v", i.Op1)
	}
	if i.Op2.Used() {
		fmt.Fprintf(&b, " %v", i.Op2)
	}
	if i.Result != value.None {
		fmt.Fprintf(&b, " -> v%d", i.Result)
	}
	b.WriteString(")")

	return b.String()
}

// Vector is the flat instruction sequence of a compiled unit. The compiler
// appends to it; the VM only reads it.
type Vector []Instruction

func (v Vector) Ops() []Opcode {
	ops := make([]Opcode, len(v))
	for i, in := range v {
		ops[i] = in.Op
	}

	return ops
}

func (v Vector) Dump(w io.Writer) error {
	for addr, in := range v {
		var err error
		if in.Line > 0 {
			_, err = fmt.Fprintf(w, "%04d  %-40s ; line %d\n", addr, in, in.Line)
		} else {
			_, err = fmt.Fprintf(w, "%04d  %s\n", addr, in)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (v Vector) String() string {
	var b strings.Builder
	_ = v.Dump(&b)
	return b.String()
}
