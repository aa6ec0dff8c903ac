package vm

import (
	"fmt"
	"log/slog"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/compiler/operators"
	"github.com/rhino1998/clever/pkg/value"
)

type handler func(t *Thread, in *ir.Instruction) error

// filled in init; handlers reach back into the table through Thread.run
var dispatch [ir.NumOpcodes]handler

func init() {
	dispatch = [ir.NumOpcodes]handler{
		ir.OpVarDecl:     opVarDecl,
		ir.OpSwitchScope: opSwitchScope,
		ir.OpAssign:      opAssign,
		ir.OpAdd:         opBinary,
		ir.OpSub:         opBinary,
		ir.OpMul:         opBinary,
		ir.OpDiv:         opBinary,
		ir.OpMod:         opBinary,
		ir.OpEq:          opBinary,
		ir.OpNe:          opBinary,
		ir.OpLt:          opBinary,
		ir.OpLe:          opBinary,
		ir.OpGt:          opBinary,
		ir.OpGe:          opBinary,
		ir.OpAnd:         opLogical,
		ir.OpOr:          opLogical,
		ir.OpNot:         opNot,
		ir.OpInc:         opStep,
		ir.OpDec:         opStep,
		ir.OpJmp:         opJmp,
		ir.OpJmpz:        opJmpz,
		ir.OpFCall:       opFCall,
		ir.OpMCall:       opMCall,
		ir.OpLeave:       opLeave,
		ir.OpRet:         opRet,
		ir.OpThreadCall:  opThreadCall,
		ir.OpEndThread:   opEndThread,
		ir.OpSendVal:     opSendVal,
		ir.OpWait:        opWait,
		ir.OpPrint:       opPrint,
		ir.OpReturn:      opReturn,
	}

	for op, h := range dispatch {
		if h == nil {
			panic(fmt.Sprintf("vm: no handler for opcode %v", ir.Opcode(op)))
		}
	}
}

func opVarDecl(t *Thread, in *ir.Instruction) error {
	dst, err := t.result(in)
	if err != nil {
		return err
	}

	args := t.takeArgs()
	if !in.Op1.Used() {
		dst.SetNone()
		return nil
	}

	typ, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	ref := typ.TypeRef()
	if ref == nil {
		return fmt.Errorf("%w: %s is not a type", value.ErrNotConstructible, typ.Kind())
	}

	if err := ref.Construct(dst, args); err != nil {
		return fmt.Errorf("%s: %w", ref.Name(), err)
	}

	return nil
}

func opSwitchScope(t *Thread, in *ir.Instruction) error {
	if in.Op1.Kind != ir.FetchScope {
		return fmt.Errorf("%w: expected scope, got %v", ErrBadOperand, in.Op1)
	}

	t.scope = in.Op1.Index
	return nil
}

func opAssign(t *Thread, in *ir.Instruction) error {
	if in.Op1.Value() == value.None {
		return fmt.Errorf("%w: assignment to the none slot", ErrBadOperand)
	}

	dst, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	src, err := t.fetch(in.Op2)
	if err != nil {
		return err
	}

	dst.Assign(src)
	return nil
}

func operands(t *Thread, in *ir.Instruction) (lhs, rhs, dst *value.Value, err error) {
	lhs, err = t.fetch(in.Op1)
	if err != nil {
		return nil, nil, nil, err
	}

	rhs, err = t.fetch(in.Op2)
	if err != nil {
		return nil, nil, nil, err
	}

	dst, err = t.result(in)
	if err != nil {
		return nil, nil, nil, err
	}

	return lhs, rhs, dst, nil
}

// opBinary applies the left operand's type semantics. Operands the type does
// not understand leave the result untouched.
func opBinary(t *Thread, in *ir.Instruction) error {
	lhs, rhs, dst, err := operands(t, in)
	if err != nil {
		return err
	}

	op, _ := in.Op.Operator()

	if lhs.IsNone() || rhs.IsNone() {
		switch op {
		case operators.Equal:
			dst.SetBool(lhs.IsNone() && rhs.IsNone())
		case operators.NotEqual:
			dst.SetBool(lhs.IsNone() != rhs.IsNone())
		}
		return nil
	}

	return lhs.Type().Operate(op, dst, lhs, rhs)
}

func opLogical(t *Thread, in *ir.Instruction) error {
	lhs, rhs, dst, err := operands(t, in)
	if err != nil {
		return err
	}

	if in.Op == ir.OpAnd {
		dst.SetBool(lhs.Truthy() && rhs.Truthy())
	} else {
		dst.SetBool(lhs.Truthy() || rhs.Truthy())
	}

	return nil
}

func opNot(t *Thread, in *ir.Instruction) error {
	v, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	dst, err := t.result(in)
	if err != nil {
		return err
	}

	dst.SetBool(!v.Truthy())
	return nil
}

func opStep(t *Thread, in *ir.Instruction) error {
	v, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	delta := int64(1)
	if in.Op == ir.OpDec {
		delta = -1
	}

	switch v.Kind() {
	case kinds.Int:
		v.SetInt(v.Int() + delta)
	case kinds.Double:
		v.SetDouble(v.Double() + float64(delta))
	}

	return nil
}

func jumpTarget(t *Thread, op ir.Operand) (int, error) {
	if op.Kind != ir.JmpAddr {
		return 0, fmt.Errorf("%w: expected jump address, got %v", ErrBadOperand, op)
	}
	if op.Addr() >= t.vm.code.Len() {
		return 0, fmt.Errorf("%w: %v", ErrBadAddress, op)
	}

	return op.Addr(), nil
}

func opJmp(t *Thread, in *ir.Instruction) error {
	addr, err := jumpTarget(t, in.Op1)
	if err != nil {
		return err
	}

	t.pc = addr
	return nil
}

func opJmpz(t *Thread, in *ir.Instruction) error {
	cond, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	addr, err := jumpTarget(t, in.Op2)
	if err != nil {
		return err
	}

	if !cond.Truthy() {
		t.pc = addr
	}

	return nil
}

func callee(t *Thread, op ir.Operand) (*value.Function, error) {
	v, err := t.fetch(op)
	if err != nil {
		return nil, err
	}

	fn := v.Function()
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, v.Kind())
	}

	return fn, nil
}

func opFCall(t *Thread, in *ir.Instruction) error {
	fn, err := callee(t, in.Op1)
	if err != nil {
		return err
	}

	args := t.takeArgs()

	if fn.IsNative() {
		dst, err := t.result(in)
		if err != nil {
			return err
		}
		if err := fn.Native(dst, args); err != nil {
			return fmt.Errorf("%s: %w", fn.QualifiedName(), err)
		}
		return nil
	}

	return t.call(fn, args, t.pc, in.Result)
}

func opMCall(t *Thread, in *ir.Instruction) error {
	recv, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	name, err := t.fetch(in.Op2)
	if err != nil {
		return err
	}

	args := t.takeArgs()

	if recv.IsNone() {
		return fmt.Errorf("%w: %s on null", ErrNoSuchMethod, name.Str())
	}

	method, ok := recv.Type().Method(name.Str())
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, recv.Type().Name(), name.Str())
	}

	dst, err := t.result(in)
	if err != nil {
		return err
	}

	if err := method(dst, recv, args); err != nil {
		return fmt.Errorf("%s.%s: %w", recv.Type().Name(), name.Str(), err)
	}

	return nil
}

func opLeave(t *Thread, in *ir.Instruction) error {
	t.ret(nil)
	return nil
}

func opRet(t *Thread, in *ir.Instruction) error {
	v, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	t.ret(v.Clone())
	return nil
}

func opThreadCall(t *Thread, in *ir.Instruction) error {
	args := t.takeArgs()
	child := t.spawn(in.Result)

	switch in.Op1.Kind {
	case ir.JmpAddr:
		addr, err := jumpTarget(t, in.Op1)
		if err != nil {
			return err
		}
		child.pc = addr
	case ir.FetchVal:
		fn, err := callee(t, in.Op1)
		if err != nil {
			return err
		}

		if fn.IsNative() {
			child.native = fn
			child.args = args
			break
		}

		if err := child.call(fn, args, -1, value.None); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: cannot spawn %v", ErrBadOperand, in.Op1)
	}

	t.vm.logger.Debug("spawned thread",
		slog.Uint64("parent", uint64(t.id)),
		slog.Uint64("thread", uint64(child.id)),
		slog.Int("pc", child.pc),
	)

	t.start(child)
	return nil
}

func opEndThread(t *Thread, in *ir.Instruction) error {
	t.halted = true
	return nil
}

func opSendVal(t *Thread, in *ir.Instruction) error {
	v, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	t.pending = append(t.pending, v.Clone())
	return nil
}

func opWait(t *Thread, in *ir.Instruction) error {
	return t.join()
}

func opPrint(t *Thread, in *ir.Instruction) error {
	v, err := t.fetch(in.Op1)
	if err != nil {
		return err
	}

	return t.vm.out.println(v.String())
}

// opReturn leaves the current function if one is active and halts the thread
// otherwise.
func opReturn(t *Thread, in *ir.Instruction) error {
	t.ret(nil)
	return nil
}
