// Package parser reads clever source and drives a compiler with the call
// sequence for each statement. It builds no syntax tree.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/compiler/operators"
	"github.com/rhino1998/clever/pkg/value"
)

var ErrUnexpectedToken = errors.New("unexpected")

type Parser struct {
	c    *compiler.Compiler
	file string
	toks []Token
	pos  int
}

// Parse compiles every statement in r into c. The compiler is not finalized.
func Parse(c *compiler.Compiler, file string, r io.Reader) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	return ParseString(c, file, string(src))
}

func ParseString(c *compiler.Compiler, file, src string) error {
	p, err := newParser(c, file, src)
	if err != nil {
		return err
	}

	return p.parseProgram()
}

func newParser(c *compiler.Compiler, file, src string) (*Parser, error) {
	lx := NewLexer(file, src)

	var toks []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}

	return &Parser{
		c:    c,
		file: file,
		toks: toks,
	}, nil
}

func (p *Parser) peek() Token {
	return p.peekN(0)
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if tok.Kind != EOF {
		p.pos++
	}

	return tok
}

func (p *Parser) accept(kind TokenKind, text string) bool {
	if p.peek().Is(kind, text) {
		p.next()
		return true
	}

	return false
}

func (p *Parser) expect(kind TokenKind, text string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind || (text != "" && tok.Text != text) {
		want := kind.String()
		if text != "" {
			want = strconv.Quote(text)
		}
		return tok, p.errorf(tok, "%w %v, expected %s", ErrUnexpectedToken, tok, want)
	}

	return p.next(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return PositionError{Position: tok.Pos, Err: fmt.Errorf(format, args...)}
}

func (p *Parser) loc(tok Token) compiler.Location {
	return compiler.Location{File: p.file, Line: tok.Pos.Line}
}

func (p *Parser) parseProgram() error {
	for p.peek().Kind != EOF {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}

	return p.c.Err()
}

func (p *Parser) parseStatement() error {
	tok := p.peek()
	p.c.At(p.loc(tok))

	var err error
	switch {
	case tok.Is(Punct, ";"):
		p.next()
	case tok.Is(Punct, "{"):
		err = p.parseBlock()
	case tok.Is(Keyw, string(KeywordVar)):
		err = p.parseVar()
	case tok.Is(Keyw, string(KeywordPrint)):
		err = p.parsePrint()
	case tok.Is(Keyw, string(KeywordIf)):
		err = p.parseIf()
	case tok.Is(Keyw, string(KeywordWhile)):
		err = p.parseWhile()
	case tok.Is(Keyw, string(KeywordFunction)):
		err = p.parseFunction()
	case tok.Is(Keyw, string(KeywordReturn)):
		err = p.parseReturn()
	case tok.Is(Keyw, string(KeywordSpawn)):
		err = p.parseSpawn(value.None)
		if err == nil {
			_, err = p.expect(Punct, ";")
		}
	case tok.Is(Keyw, string(KeywordThread)):
		err = p.parseThread()
	case tok.Is(Keyw, string(KeywordWait)):
		p.next()
		p.c.Wait(p.loc(tok))
		_, err = p.expect(Punct, ";")
	case tok.Is(Keyw, string(KeywordImport)):
		err = p.parseImport()
	case tok.Kind == Ident:
		err = p.parseSimple()
	default:
		_, err = p.parseExpr()
		if err == nil {
			_, err = p.expect(Punct, ";")
		}
	}
	if err != nil {
		return err
	}

	return p.c.Err()
}

// parseBody parses statements up to and including the closing brace.
func (p *Parser) parseBody() error {
	for !p.peek().Is(Punct, "}") {
		if tok := p.peek(); tok.Kind == EOF {
			return p.errorf(tok, "%w %v, expected \"}\"", ErrUnexpectedToken, tok)
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	p.next()

	return nil
}

func (p *Parser) parseBlock() error {
	if _, err := p.expect(Punct, "{"); err != nil {
		return err
	}

	p.c.EnterScope()
	if err := p.parseBody(); err != nil {
		return err
	}

	return p.c.ExitScope()
}

func (p *Parser) parseVar() error {
	p.next()

	name, err := p.expect(Ident, "")
	if err != nil {
		return err
	}

	switch {
	case p.accept(Punct, "="):
		if p.peek().Is(Keyw, string(KeywordSpawn)) {
			into := p.c.DeclareVariable(name.Text, value.None)
			if err := p.parseSpawn(into); err != nil {
				return err
			}
			break
		}

		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		p.c.At(p.loc(name))
		p.c.DeclareVariable(name.Text, v)
	default:
		p.c.DeclareVariable(name.Text, value.None)
	}

	_, err = p.expect(Punct, ";")
	return err
}

// parseSimple handles statements that start with an identifier: assignment,
// compound assignment, increment and bare expressions.
func (p *Parser) parseSimple() error {
	name := p.peek()
	op := p.peekN(1)

	switch {
	case op.Is(Punct, "="):
		p.next()
		p.next()

		if p.peek().Is(Keyw, string(KeywordSpawn)) {
			into, err := p.c.Reference(name.Text, p.loc(name))
			if err != nil {
				return err
			}
			if err := p.parseSpawn(into); err != nil {
				return err
			}
			break
		}

		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.c.Assign(name.Text, v, p.loc(name)); err != nil {
			return err
		}
	case op.Is(Punct, "++"), op.Is(Punct, "--"):
		p.next()
		p.next()

		var err error
		if op.Text == "++" {
			err = p.c.Increment(name.Text, p.loc(name))
		} else {
			err = p.c.Decrement(name.Text, p.loc(name))
		}
		if err != nil {
			return err
		}
	case op.Kind == Punct && len(op.Text) == 2 && op.Text[1] == '=' && op.Text != "==" && op.Text != "!=" && op.Text != "<=" && op.Text != ">=":
		infix, err := operators.Operator(op.Text).AssignmentToInfix()
		if err != nil {
			return p.errorf(op, "%w", err)
		}
		code, _ := ir.ForOperator(infix)

		p.next()
		p.next()

		cur, err := p.c.Reference(name.Text, p.loc(name))
		if err != nil {
			return err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return err
		}
		v, err := p.c.BinaryOp(code, cur, rhs)
		if err != nil {
			return err
		}
		if err := p.c.Assign(name.Text, v, p.loc(name)); err != nil {
			return err
		}
	default:
		if _, err := p.parseExpr(); err != nil {
			return err
		}
	}

	_, err := p.expect(Punct, ";")
	return err
}

func (p *Parser) parsePrint() error {
	p.next()

	if name := p.peek(); name.Kind == Ident && p.peekN(1).Is(Punct, ";") {
		p.next()
		if err := p.c.Print(name.Text, p.loc(name)); err != nil {
			return err
		}
	} else {
		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		p.c.PrintValue(v)
	}

	_, err := p.expect(Punct, ";")
	return err
}

func (p *Parser) parseCondition() (value.ID, error) {
	if _, err := p.expect(Punct, "("); err != nil {
		return value.None, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return value.None, err
	}

	if _, err := p.expect(Punct, ")"); err != nil {
		return value.None, err
	}

	return cond, nil
}

func (p *Parser) parseIf() error {
	p.next()

	cond, err := p.parseCondition()
	if err != nil {
		return err
	}

	elseLabel, end := p.c.NewLabel(), p.c.NewLabel()
	p.c.JumpIfZero(cond, elseLabel)

	if err := p.parseStatement(); err != nil {
		return err
	}

	if p.accept(Keyw, string(KeywordElse)) {
		p.c.Jump(end)
		p.c.Mark(elseLabel)
		if err := p.parseStatement(); err != nil {
			return err
		}
	} else {
		p.c.Mark(elseLabel)
	}
	p.c.Mark(end)

	return nil
}

func (p *Parser) parseWhile() error {
	p.next()

	top, end := p.c.NewLabel(), p.c.NewLabel()
	p.c.Mark(top)

	cond, err := p.parseCondition()
	if err != nil {
		return err
	}
	p.c.JumpIfZero(cond, end)

	if err := p.parseStatement(); err != nil {
		return err
	}

	p.c.Jump(top)
	p.c.Mark(end)

	return nil
}

func (p *Parser) parseFunction() error {
	kw := p.next()

	name, err := p.expect(Ident, "")
	if err != nil {
		return err
	}

	if _, err := p.expect(Punct, "("); err != nil {
		return err
	}

	var params []string
	for !p.accept(Punct, ")") {
		if len(params) > 0 {
			if _, err := p.expect(Punct, ","); err != nil {
				return err
			}
		}
		param, err := p.expect(Ident, "")
		if err != nil {
			return err
		}
		params = append(params, param.Text)
	}

	if err := p.c.BeginFunction(name.Text, params, p.loc(kw)); err != nil {
		return err
	}

	if _, err := p.expect(Punct, "{"); err != nil {
		return err
	}
	if err := p.parseBody(); err != nil {
		return err
	}

	return p.c.EndFunction()
}

func (p *Parser) parseReturn() error {
	kw := p.next()

	if p.accept(Punct, ";") {
		return p.c.Return(value.None, p.loc(kw))
	}

	v, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.c.Return(v, p.loc(kw)); err != nil {
		return err
	}

	_, err = p.expect(Punct, ";")
	return err
}

// parseSpawn parses `spawn f(args)`, delivering the result into into.
func (p *Parser) parseSpawn(into value.ID) error {
	kw := p.next()

	name, err := p.expect(Ident, "")
	if err != nil {
		return err
	}

	args, err := p.parseArgs()
	if err != nil {
		return err
	}

	return p.c.Spawn(name.Text, args, into, p.loc(kw))
}

func (p *Parser) parseThread() error {
	kw := p.next()

	if err := p.c.BeginThread(p.loc(kw)); err != nil {
		return err
	}

	if _, err := p.expect(Punct, "{"); err != nil {
		return err
	}
	if err := p.parseBody(); err != nil {
		return err
	}

	return p.c.EndThread()
}

func (p *Parser) parseImport() error {
	kw := p.next()

	kind := compiler.ImportAll
	if tok := p.peek(); tok.Kind == Ident && p.peekN(1).Kind == Ident {
		switch Keyword(tok.Text) {
		case KeywordTypes:
			kind = compiler.ImportTypes
		case KeywordFunctions:
			kind = compiler.ImportFunctions
		default:
			return p.errorf(tok, "%w %v, expected import path", ErrUnexpectedToken, tok)
		}
		p.next()
	}

	first, err := p.expect(Ident, "")
	if err != nil {
		return err
	}

	path := first.Text
	for p.accept(Punct, ".") {
		part, err := p.expect(Ident, "")
		if err != nil {
			return err
		}
		path += "." + part.Text
	}

	if _, err := p.expect(Punct, ";"); err != nil {
		return err
	}

	return p.c.Import(path, kind, p.loc(kw))
}

func (p *Parser) parseArgs() ([]value.ID, error) {
	if _, err := p.expect(Punct, "("); err != nil {
		return nil, err
	}

	var args []value.ID
	for !p.accept(Punct, ")") {
		if len(args) > 0 {
			if _, err := p.expect(Punct, ","); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return args, nil
}

func (p *Parser) parseExpr() (value.ID, error) {
	return p.parseBinary(1)
}

// parseBinary is a precedence climber over the operators package's binding
// powers; all binary operators are left associative.
func (p *Parser) parseBinary(minPrec int) (value.ID, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return value.None, err
	}

	for {
		tok := p.peek()
		if tok.Kind != Punct {
			return lhs, nil
		}

		op := operators.Operator(tok.Text)
		prec := op.Precedence()
		if prec == 0 || prec < minPrec {
			return lhs, nil
		}

		code, ok := ir.ForOperator(op)
		if !ok {
			return value.None, p.errorf(tok, "%w operator %v", ErrUnexpectedToken, tok)
		}
		p.next()

		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return value.None, err
		}

		p.c.At(p.loc(tok))
		lhs, err = p.c.BinaryOp(code, lhs, rhs)
		if err != nil {
			return value.None, err
		}
	}
}

func (p *Parser) parseUnary() (value.ID, error) {
	switch tok := p.peek(); {
	case tok.Is(Punct, string(operators.Not)):
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return value.None, err
		}
		return p.c.UnaryNot(v), nil
	case tok.Is(Punct, string(operators.Negate)):
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return value.None, err
		}
		return p.c.Negate(v), nil
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (value.ID, error) {
	v, err := p.parsePrimary()
	if err != nil {
		return value.None, err
	}

	for p.accept(Punct, ".") {
		name, err := p.expect(Ident, "")
		if err != nil {
			return value.None, err
		}

		args, err := p.parseArgs()
		if err != nil {
			return value.None, err
		}

		p.c.At(p.loc(name))
		v = p.c.MethodCall(v, name.Text, args)
	}

	return v, nil
}

func (p *Parser) parsePrimary() (value.ID, error) {
	tok := p.next()

	switch tok.Kind {
	case Int:
		i, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return value.None, p.errorf(tok, "invalid integer %s: %w", tok.Text, err)
		}
		return p.c.Literal(value.Int(i)), nil
	case Double:
		d, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return value.None, p.errorf(tok, "invalid double %s: %w", tok.Text, err)
		}
		return p.c.Literal(value.Double(d)), nil
	case String:
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			return value.None, p.errorf(tok, "invalid string %s: %w", tok.Text, err)
		}
		return p.c.Literal(value.String(s)), nil
	case Keyw:
		switch Keyword(tok.Text) {
		case KeywordTrue:
			return p.c.Literal(value.Bool(true)), nil
		case KeywordFalse:
			return p.c.Literal(value.Bool(false)), nil
		case KeywordNull:
			return p.c.Literal(value.New()), nil
		case KeywordNew:
			name, err := p.expect(Ident, "")
			if err != nil {
				return value.None, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return value.None, err
			}
			return p.c.New(name.Text, args, p.loc(name))
		}
	case Ident:
		if p.peek().Is(Punct, "(") {
			args, err := p.parseArgs()
			if err != nil {
				return value.None, err
			}
			return p.c.Call(tok.Text, args, p.loc(tok))
		}
		return p.c.Reference(tok.Text, p.loc(tok))
	case Punct:
		if tok.Text == "(" {
			v, err := p.parseExpr()
			if err != nil {
				return value.None, err
			}
			if _, err := p.expect(Punct, ")"); err != nil {
				return value.None, err
			}
			return v, nil
		}
	}

	return value.None, p.errorf(tok, "%w %v, expected expression", ErrUnexpectedToken, tok)
}
