package compiler_test

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

func newCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()

	c, err := compiler.New(slogt.New(t), compiler.Config{File: "test.clv"})
	require.NoError(t, err)

	return c
}

func TestNestedBlocks(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	// { var x = 2; { var y = x + 3; print y; } }
	c.EnterScope()
	x := c.DeclareVariable("x", c.Literal(value.Int(2)))

	c.EnterScope()
	ref, err := c.Reference("x", compiler.Location{Line: 1})
	r.NoError(err)
	r.Equal(x, ref)

	sum, err := c.BinaryOp(ir.OpAdd, ref, c.Literal(value.Int(3)))
	r.NoError(err)
	c.DeclareVariable("y", sum)
	r.NoError(c.Print("y", compiler.Location{Line: 1}))

	r.NoError(c.ExitScope())
	r.NoError(c.ExitScope())

	prog, err := c.Finalize()
	r.NoError(err)

	var got []string
	for _, in := range prog.Code {
		got = append(got, in.String())
	}

	r.Equal([]string{
		"(switch_scope s1)",
		"(assign v2 v1)",
		"(switch_scope s2)",
		"(add v2 v3 -> v4)",
		"(assign v5 v4)",
		"(print v5)",
		"(switch_scope s1)",
		"(switch_scope s0)",
		"(return)",
	}, got)

	r.Equal(int64(2), prog.Values.Get(1).Int())
	r.Equal(int64(3), prog.Values.Get(3).Int())
	r.True(prog.Values.Get(value.None).IsNone())
}

func TestScopeResolution(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	outer := c.DeclareVariable("a", value.None)
	global := c.Scope()

	c.EnterScope()
	sym, ok := c.Scope().Lookup("a")
	r.True(ok)
	r.Equal(outer, sym.Value)

	_, ok = c.Scope().Local("a")
	r.False(ok)

	inner := c.DeclareVariable("a", value.None)
	r.NotEqual(outer, inner)

	sym, ok = c.Scope().Lookup("a")
	r.True(ok)
	r.Equal(inner, sym.Value)

	c.DeclareVariable("b", value.None)
	r.NoError(c.ExitScope())

	r.Same(global, c.Scope())
	sym, ok = c.Scope().Lookup("a")
	r.True(ok)
	r.Equal(outer, sym.Value)

	_, ok = c.Scope().Lookup("b")
	r.False(ok)
}

func TestRedeclarationShadows(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	first := c.DeclareVariable("v", value.None)
	second := c.DeclareVariable("v", value.None)
	r.NotEqual(first, second)

	sym, ok := c.Scope().Local("v")
	r.True(ok)
	r.Equal(second, sym.Value)
}

func TestDeclareAllocatesInitializer(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	id := c.DeclareVariable("v", value.None)
	code := c.Code()
	r.Len(code, 1)
	r.Equal(ir.OpAssign, code[0].Op)
	r.Equal(id, code[0].Op1.Value())
	r.NotEqual(value.None, code[0].Op2.Value())
	r.NotEqual(id, code[0].Op2.Value())
}

func TestValueIDsAreMonotonic(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	prev := value.None
	for i := range 32 {
		id := c.Literal(value.Int(int64(i)))
		r.Greater(id, prev)
		prev = id
	}

	for i := range 32 {
		r.Equal(int64(i), c.Value(value.ID(i+1)).Int())
	}
}

func TestUnboundVariable(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	loc := compiler.Location{File: "main.clv", Line: 7}
	err := c.Assign("missing", c.Literal(value.Int(1)), loc)
	r.ErrorIs(err, compiler.ErrUnboundVariable)

	var ce *compiler.CompileError
	r.ErrorAs(err, &ce)
	r.Equal(loc, ce.Loc)
	r.Contains(err.Error(), "main.clv:7")

	// the first error sticks
	r.Equal(err, c.Err())
	_, err = c.Reference("other", compiler.Location{Line: 9})
	r.ErrorIs(err, compiler.ErrUnboundVariable)
	r.ErrorAs(err, &ce)
	r.Equal(7, ce.Loc.Line)

	_, err = c.Finalize()
	r.Error(err)
}

func TestExitGlobalScope(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.ErrorIs(c.ExitScope(), compiler.ErrScopeUnderflow)
}

func TestReturnOutsideFunction(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	err := c.Return(value.None, compiler.Location{Line: 3})
	r.ErrorIs(err, compiler.ErrOutsideFunction)
}

func TestBinaryOpRejectsNonOperators(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	_, err := c.BinaryOp(ir.OpPrint, value.None, value.None)
	r.ErrorIs(err, compiler.ErrBadOpcode)
}

func TestFunctionScope(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginFunction("id", []string{"a"}, compiler.Location{Line: 1}))

	a, err := c.Reference("a", compiler.Location{Line: 2})
	r.NoError(err)
	r.NoError(c.Return(a, compiler.Location{Line: 2}))
	r.NoError(c.EndFunction())

	_, err = c.Reference("a", compiler.Location{Line: 4})
	r.ErrorIs(err, compiler.ErrUnboundVariable)
}

func TestFunctionBodyCannotExitPastItself(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginFunction("f", nil, compiler.Location{Line: 1}))
	r.ErrorIs(c.ExitScope(), compiler.ErrScopeUnderflow)
}

func TestFunctionCanCallItself(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginFunction("loop", nil, compiler.Location{Line: 1}))
	_, err := c.Call("loop", nil, compiler.Location{Line: 2})
	r.NoError(err)
	r.NoError(c.EndFunction())
}

func TestFunctionProgram(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginFunction("id", []string{"a"}, compiler.Location{Line: 1}))
	a, err := c.Reference("a", compiler.Location{Line: 2})
	r.NoError(err)
	r.NoError(c.Return(a, compiler.Location{Line: 2}))
	r.NoError(c.EndFunction())

	result, err := c.Call("id", []value.ID{c.Literal(value.Int(4))}, compiler.Location{Line: 4})
	r.NoError(err)
	c.PrintValue(result)

	prog, err := c.Finalize()
	r.NoError(err)

	fn, ok := prog.Function("id")
	r.True(ok)
	r.Equal(1, fn.Addr)
	r.Len(fn.Params, 1)
	r.Contains(fn.Vars, fn.Params[0])
	r.NotEqual(value.Global, fn.Owner)
	r.Equal(fn.Owner, prog.Values.Owner(fn.Params[0]))

	// jmp over the body lands on the first instruction after leave
	r.Equal(ir.OpJmp, prog.Code[0].Op)
	r.Equal(ir.JmpAddr, prog.Code[0].Op1.Kind)
	end := prog.Code[0].Op1.Addr()
	r.Equal(ir.OpLeave, prog.Code[end-1].Op)

	r.Equal([]ir.Opcode{
		ir.OpJmp,
		ir.OpRet,
		ir.OpLeave,
		ir.OpSendVal,
		ir.OpFCall,
		ir.OpPrint,
		ir.OpReturn,
	}, prog.Code.Ops())

	fcall := prog.Code[4]
	r.Equal(result, fcall.Result)
}

func TestThreadBlockLayout(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginThread(compiler.Location{Line: 1}))
	c.DeclareVariable("local", value.None)
	r.NoError(c.EndThread())
	c.Wait(compiler.Location{Line: 3})

	_, err := c.Reference("local", compiler.Location{Line: 4})
	r.ErrorIs(err, compiler.ErrUnboundVariable)
}

func TestThreadBlockProgram(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginThread(compiler.Location{Line: 1}))
	local := c.DeclareVariable("local", value.None)
	r.NoError(c.EndThread())
	c.Wait(compiler.Location{Line: 3})

	prog, err := c.Finalize()
	r.NoError(err)

	r.Equal([]ir.Opcode{
		ir.OpThreadCall,
		ir.OpJmp,
		ir.OpSwitchScope,
		ir.OpAssign,
		ir.OpEndThread,
		ir.OpWait,
		ir.OpReturn,
	}, prog.Code.Ops())

	r.Equal(2, prog.Code[0].Op1.Addr())
	r.Equal(5, prog.Code[1].Op1.Addr())
	r.NotEqual(value.Global, prog.Values.Owner(local))
}

func TestFinalizeUnterminated(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	r.NoError(c.BeginFunction("f", nil, compiler.Location{Line: 1}))
	_, err := c.Finalize()
	r.ErrorIs(err, compiler.ErrUnterminated)
}

func TestFinalizeOnce(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	_, err := c.Finalize()
	r.NoError(err)

	_, err = c.Finalize()
	r.ErrorIs(err, compiler.ErrFinalized)
	r.ErrorIs(c.Assign("x", value.None, compiler.Location{}), compiler.ErrFinalized)
}

func TestUnmarkedLabel(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	c.Jump(c.NewLabel())
	_, err := c.Finalize()
	r.ErrorIs(err, compiler.ErrUnmarkedLabel)
}

func TestImportWithoutImporter(t *testing.T) {
	r := require.New(t)
	c := newCompiler(t)

	err := c.Import("std.strings", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, compiler.ErrImport)
}
