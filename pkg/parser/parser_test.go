package parser_test

import (
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/parser"
)

func TestLexer(t *testing.T) {
	r := require.New(t)

	src := `var x = 1.5e2; // comment
/* block
   comment */ x += "a\"b";
if (x >= 10 && !y) { x--; }`

	lx := parser.NewLexer("lex.clv", src)

	type tok struct {
		kind parser.TokenKind
		text string
	}
	var got []tok
	var last parser.Token
	for {
		next, err := lx.Next()
		r.NoError(err)
		if next.Kind == parser.EOF {
			break
		}
		got = append(got, tok{next.Kind, next.Text})
		last = next
	}

	r.Equal([]tok{
		{parser.Keyw, "var"},
		{parser.Ident, "x"},
		{parser.Punct, "="},
		{parser.Double, "1.5e2"},
		{parser.Punct, ";"},
		{parser.Ident, "x"},
		{parser.Punct, "+="},
		{parser.String, `"a\"b"`},
		{parser.Punct, ";"},
		{parser.Keyw, "if"},
		{parser.Punct, "("},
		{parser.Ident, "x"},
		{parser.Punct, ">="},
		{parser.Int, "10"},
		{parser.Punct, "&&"},
		{parser.Punct, "!"},
		{parser.Ident, "y"},
		{parser.Punct, ")"},
		{parser.Punct, "{"},
		{parser.Ident, "x"},
		{parser.Punct, "--"},
		{parser.Punct, ";"},
		{parser.Punct, "}"},
	}, got)

	r.Equal(4, last.Pos.Line)
}

func TestLexerErrors(t *testing.T) {
	for name, src := range map[string]string{
		"char":    "var x = 1 @ 2;",
		"string":  "var x = \"open\n\";",
		"comment": "/* never closed",
	} {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)

			lx := parser.NewLexer("bad.clv", src)
			var err error
			for err == nil {
				var tok parser.Token
				tok, err = lx.Next()
				if tok.Kind == parser.EOF && err == nil {
					break
				}
			}

			var pe parser.PositionError
			r.ErrorAs(err, &pe)
			r.Equal("bad.clv", pe.Position.File)
		})
	}
}

func compile(t *testing.T, src string) (*compiler.Program, error) {
	t.Helper()

	return parser.Compile(slogt.New(t), compiler.Config{File: "test.clv"}, strings.NewReader(src))
}

func TestSyntaxErrorPosition(t *testing.T) {
	r := require.New(t)

	_, err := compile(t, "var x = 1;\nvar y = x +;\n")
	r.ErrorIs(err, parser.ErrUnexpectedToken)

	var pe parser.PositionError
	r.ErrorAs(err, &pe)
	r.Equal(2, pe.Position.Line)
	r.Equal(12, pe.Position.Column)
}

func TestUnboundVariableLine(t *testing.T) {
	r := require.New(t)

	_, err := compile(t, "var x = 1;\n\nprint y;\n")
	r.ErrorIs(err, compiler.ErrUnboundVariable)

	var ce *compiler.CompileError
	r.ErrorAs(err, &ce)
	r.Equal(3, ce.Loc.Line)
	r.Equal("test.clv", ce.Loc.File)
}

func TestReturnAtTopLevel(t *testing.T) {
	r := require.New(t)

	_, err := compile(t, "return 1;\n")
	r.ErrorIs(err, compiler.ErrOutsideFunction)
}

func TestUnclosedBlock(t *testing.T) {
	r := require.New(t)

	_, err := compile(t, "function f() {\n  print 1;\n")
	r.ErrorIs(err, parser.ErrUnexpectedToken)
}

func TestImportWithoutLoader(t *testing.T) {
	r := require.New(t)

	_, err := compile(t, "import std.strings;\n")
	r.ErrorIs(err, compiler.ErrImport)
}

func TestPrecedence(t *testing.T) {
	r := require.New(t)

	prog, err := compile(t, "var x = 1 + 2 * 3 == 7 || false;\n")
	r.NoError(err)

	r.Equal([]ir.Opcode{
		ir.OpMul,
		ir.OpAdd,
		ir.OpEq,
		ir.OpOr,
		ir.OpAssign,
		ir.OpReturn,
	}, prog.Code.Ops())
}

func TestCompoundAssignment(t *testing.T) {
	r := require.New(t)

	prog, err := compile(t, "var x = 1;\nx *= 4;\nx++;\n")
	r.NoError(err)

	r.Equal([]ir.Opcode{
		ir.OpAssign,
		ir.OpMul,
		ir.OpAssign,
		ir.OpInc,
		ir.OpReturn,
	}, prog.Code.Ops())

	mul := prog.Code[1]
	r.Equal(prog.Code[0].Op1, mul.Op1)
	r.Equal(mul.Result, prog.Code[2].Op2.Value())
	r.Equal(2, mul.Line)
}

func TestSpawnIntoVariable(t *testing.T) {
	r := require.New(t)

	prog, err := compile(t, `
function f(a) { return a; }
var r = spawn f(1);
wait;
print r;
`)
	r.NoError(err)

	var spawn, decl, printed ir.Instruction
	for _, in := range prog.Code {
		switch in.Op {
		case ir.OpThreadCall:
			spawn = in
		case ir.OpPrint:
			printed = in
		case ir.OpAssign:
			decl = in
		}
	}

	r.Equal(decl.Op1.Value(), spawn.Result)
	r.Equal(decl.Op1, printed.Op1)
}

func TestIfElseLayout(t *testing.T) {
	r := require.New(t)

	prog, err := compile(t, "if (true) print 1; else print 2;\n")
	r.NoError(err)

	r.Equal([]ir.Opcode{
		ir.OpJmpz,
		ir.OpPrint,
		ir.OpJmp,
		ir.OpPrint,
		ir.OpReturn,
	}, prog.Code.Ops())

	r.Equal(3, prog.Code[0].Op2.Addr())
	r.Equal(4, prog.Code[2].Op1.Addr())
}
