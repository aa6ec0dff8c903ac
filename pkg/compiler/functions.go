package compiler

import (
	"slices"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

// BeginFunction starts a function body. The name is bound in the current
// scope before the body is compiled so the function can call itself. The body
// is emitted inline behind a jump.
func (c *Compiler) BeginFunction(name string, params []string, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	end := c.NewLabel()
	c.Jump(end)

	fn := &value.Function{
		Name: name,
		Addr: len(c.code),
	}
	c.current.put(Symbol{Name: name, Value: c.alloc(value.Func(fn))})
	c.functions = append(c.functions, fn)

	c.blocks = append(c.blocks, block{
		kind:  functionBlock,
		fn:    fn,
		end:   end,
		outer: c.current,
		floor: c.floor,
	})

	fn.Owner = c.pushOwner()

	args := c.scopes.New(c.current, name)
	for _, param := range params {
		id := c.alloc(value.New())
		args.put(Symbol{Name: param, Value: id})
		fn.Params = append(fn.Params, id)
	}

	local := c.scopes.New(args, name)
	fn.ArgScope = uint32(args.id)
	fn.LocalScope = uint32(local.id)

	c.current = local
	c.floor = local

	return nil
}

func (c *Compiler) EndFunction() error {
	if err := c.check(); err != nil {
		return err
	}

	b, err := c.popBlock(functionBlock)
	if err != nil {
		return err
	}

	c.emit(ir.New(ir.OpLeave))

	b.fn.Vars = slices.Clone(c.ownedVars[b.fn.Owner])
	c.popOwner()
	c.Mark(b.end)

	c.current = b.outer
	c.floor = b.floor

	return nil
}

// Return emits a return from the innermost function, carrying v unless it is
// none.
func (c *Compiler) Return(v value.ID, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	if len(c.blocks) == 0 || c.blocks[len(c.blocks)-1].kind != functionBlock {
		return c.fail(ErrOutsideFunction)
	}

	if v == value.None {
		c.emit(ir.New(ir.OpLeave))
	} else {
		c.emit(ir.New(ir.OpRet, ir.ValueOperand(v)))
	}

	return nil
}

func (c *Compiler) popBlock(kind blockKind) (block, error) {
	if len(c.blocks) == 0 || c.blocks[len(c.blocks)-1].kind != kind {
		return block{}, c.fail(ErrScopeUnderflow)
	}

	b := c.blocks[len(c.blocks)-1]
	c.blocks = c.blocks[:len(c.blocks)-1]

	return b, nil
}

func (c *Compiler) sendArgs(args []value.ID) {
	for _, arg := range args {
		c.emit(ir.New(ir.OpSendVal, ir.ValueOperand(arg)))
	}
}

// Call emits a call of the function bound to name and returns the slot
// receiving its result.
func (c *Compiler) Call(name string, args []value.ID, loc Location) (value.ID, error) {
	if err := c.check(); err != nil {
		return value.None, err
	}
	c.At(loc)

	callee, err := c.resolve(name)
	if err != nil {
		return value.None, err
	}

	c.sendArgs(args)
	result := c.alloc(value.New())
	c.emit(ir.New(ir.OpFCall, ir.ValueOperand(callee)).WithResult(result))

	return result, nil
}

func (c *Compiler) MethodCall(recv value.ID, name string, args []value.ID) value.ID {
	if c.check() != nil {
		return value.None
	}

	method := c.alloc(value.String(name))
	c.sendArgs(args)
	result := c.alloc(value.New())
	c.emit(ir.New(ir.OpMCall, ir.ValueOperand(recv), ir.ValueOperand(method)).WithResult(result))

	return result
}

// New emits construction of the type bound to typeName.
func (c *Compiler) New(typeName string, args []value.ID, loc Location) (value.ID, error) {
	if err := c.check(); err != nil {
		return value.None, err
	}
	c.At(loc)

	typ, err := c.resolve(typeName)
	if err != nil {
		return value.None, err
	}

	c.sendArgs(args)
	result := c.alloc(value.New())
	c.emit(ir.New(ir.OpVarDecl, ir.ValueOperand(typ)).WithResult(result))

	return result, nil
}

// Spawn emits a threadcall of the function bound to name. The thread's return
// value is delivered into the slot into at the next wait.
func (c *Compiler) Spawn(name string, args []value.ID, into value.ID, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	callee, err := c.resolve(name)
	if err != nil {
		return err
	}

	c.sendArgs(args)
	c.emit(ir.New(ir.OpThreadCall, ir.ValueOperand(callee)).WithResult(into))

	return nil
}

// BeginThread starts an inline thread block. The spawning thread skips the
// block; the child runs it up to its endthread.
func (c *Compiler) BeginThread(loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	start, end := c.NewLabel(), c.NewLabel()
	c.emit(ir.New(ir.OpThreadCall, ir.LabelOperand(start)))
	c.Jump(end)
	c.Mark(start)

	c.blocks = append(c.blocks, block{
		kind:  threadBlock,
		end:   end,
		outer: c.current,
		floor: c.floor,
	})
	c.pushOwner()

	c.EnterScope()
	c.floor = c.current

	return nil
}

func (c *Compiler) EndThread() error {
	if err := c.check(); err != nil {
		return err
	}

	b, err := c.popBlock(threadBlock)
	if err != nil {
		return err
	}

	c.emit(ir.New(ir.OpEndThread))
	c.popOwner()
	c.Mark(b.end)

	c.current = b.outer
	c.floor = b.floor

	return nil
}

// Wait emits a join of every thread spawned so far by the running thread.
func (c *Compiler) Wait(loc Location) {
	if c.check() != nil {
		return
	}
	c.At(loc)

	c.emit(ir.New(ir.OpWait))
}
