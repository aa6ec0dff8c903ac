package ir

import (
	"fmt"

	"github.com/rhino1998/clever/pkg/compiler/operators"
)

type Opcode uint8

const (
	OpVarDecl Opcode = iota
	OpSwitchScope
	OpAssign
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpInc
	OpDec
	OpJmp
	OpJmpz
	OpFCall
	OpMCall
	OpLeave
	OpRet
	OpThreadCall
	OpEndThread
	OpSendVal
	OpWait
	OpPrint
	OpReturn

	NumOpcodes
)

var opcodeNames = [NumOpcodes]string{
	OpVarDecl:     "var_decl",
	OpSwitchScope: "switch_scope",
	OpAssign:      "assign",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpDiv:         "div",
	OpMod:         "mod",
	OpEq:          "eq",
	OpNe:          "ne",
	OpLt:          "lt",
	OpLe:          "le",
	OpGt:          "gt",
	OpGe:          "ge",
	OpAnd:         "and",
	OpOr:          "or",
	OpNot:         "not",
	OpInc:         "inc",
	OpDec:         "dec",
	OpJmp:         "jmp",
	OpJmpz:        "jmpz",
	OpFCall:       "fcall",
	OpMCall:       "mcall",
	OpLeave:       "leave",
	OpRet:         "ret",
	OpThreadCall:  "threadcall",
	OpEndThread:   "endthread",
	OpSendVal:     "send_val",
	OpWait:        "wait",
	OpPrint:       "print",
	OpReturn:      "return",
}

var binaryOperators = map[Opcode]operators.Operator{
	OpAdd: operators.Addition,
	OpSub: operators.Subtraction,
	OpMul: operators.Multiplication,
	OpDiv: operators.Division,
	OpMod: operators.Modulo,
	OpEq:  operators.Equal,
	OpNe:  operators.NotEqual,
	OpLt:  operators.LessThan,
	OpLe:  operators.LessThanOrEqual,
	OpGt:  operators.GreaterThan,
	OpGe:  operators.GreaterThanOrEqual,
	OpAnd: operators.LogicalAnd,
	OpOr:  operators.LogicalOr,
}

func (o Opcode) String() string {
	if o < NumOpcodes {
		return opcodeNames[o]
	}

	return fmt.Sprintf("op(%d)", uint8(o))
}

func (o Opcode) Valid() bool {
	return o < NumOpcodes
}

// IsBinary reports whether o takes two value operands and writes a result.
func (o Opcode) IsBinary() bool {
	_, ok := binaryOperators[o]
	return ok
}

// Operator returns the source operator a binary opcode implements.
func (o Opcode) Operator() (operators.Operator, bool) {
	op, ok := binaryOperators[o]
	return op, ok
}

// ForOperator returns the binary opcode implementing op.
func ForOperator(op operators.Operator) (Opcode, bool) {
	for code, candidate := range binaryOperators {
		if candidate == op {
			return code, true
		}
	}

	return 0, false
}
