package ir

import (
	"fmt"

	"github.com/rhino1998/clever/pkg/value"
)

type OperandKind uint8

const (
	Unused OperandKind = iota
	FetchVal
	FetchScope
	JmpAddr

	// stripped out before end of compilation
	LabelRef
)

func (k OperandKind) String() string {
	switch k {
	case Unused:
		return "-"
	case FetchVal:
		return "v"
	case FetchScope:
		return "s"
	case JmpAddr:
		return "@"
	case LabelRef:
		return "<compiler label>"
	default:
		return "?"
	}
}

// Operand is an index into one of the pools or the instruction vector,
// tagged with how the VM must fetch it.
type Operand struct {
	Kind  OperandKind `cbor:"1,keyasint"`
	Index uint32      `cbor:"2,keyasint,omitempty"`
}

func ValueOperand(id value.ID) Operand {
	return Operand{Kind: FetchVal, Index: uint32(id)}
}

func ScopeOperand(id uint32) Operand {
	return Operand{Kind: FetchScope, Index: id}
}

func AddrOperand(addr int) Operand {
	return Operand{Kind: JmpAddr, Index: uint32(addr)}
}

func LabelOperand(l Label) Operand {
	return Operand{Kind: LabelRef, Index: uint32(l)}
}

func (o Operand) Used() bool {
	return o.Kind != Unused
}

func (o Operand) Value() value.ID {
	return value.ID(o.Index)
}

func (o Operand) Addr() int {
	return int(o.Index)
}

func (o Operand) String() string {
	switch o.Kind {
	case Unused:
		return "-"
	case FetchVal:
		return fmt.Sprintf("v%d", o.Index)
	case FetchScope:
		return fmt.Sprintf("s%d", o.Index)
	case JmpAddr:
		return fmt.Sprintf("@%d", o.Index)
	case LabelRef:
		return Label(o.Index).String()
	default:
		return fmt.Sprintf("?%d", o.Index)
	}
}

type Label uint32

func (l Label) String() string {
	return fmt.Sprintf("<%d>", uint32(l))
}
