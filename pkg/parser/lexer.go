package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnexpectedChar   = errors.New("unexpected character")
	ErrUnterminatedStr  = errors.New("unterminated string literal")
	ErrUnterminatedNote = errors.New("unterminated comment")
)

// two character operators, checked before single characters
var punct2 = []string{"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=", "%="}

const punct1 = "+-*/%<>=!(){};,."

type Lexer struct {
	src  string
	file string
	off  int
	line int
	col  int
}

func NewLexer(file, src string) *Lexer {
	return &Lexer{
		src:  src,
		file: file,
		line: 1,
		col:  1,
	}
}

func (lx *Lexer) pos() Position {
	return Position{File: lx.file, Line: lx.line, Column: lx.col}
}

func (lx *Lexer) peekByte(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}

	return lx.src[lx.off+n]
}

func (lx *Lexer) advance(n int) {
	for range n {
		if lx.off >= len(lx.src) {
			return
		}
		if lx.src[lx.off] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.off++
	}
}

func (lx *Lexer) skipTrivia() error {
	for lx.off < len(lx.src) {
		ch := lx.src[lx.off]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			lx.advance(1)
		case ch == '/' && lx.peekByte(1) == '/':
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.advance(1)
			}
		case ch == '/' && lx.peekByte(1) == '*':
			start := lx.pos()
			end := strings.Index(lx.src[lx.off+2:], "*/")
			if end < 0 {
				return PositionError{Position: start, Err: ErrUnterminatedNote}
			}
			lx.advance(end + 4)
		default:
			return nil
		}
	}

	return nil
}

// Next returns the next token. After the end of input it keeps returning EOF.
func (lx *Lexer) Next() (Token, error) {
	if err := lx.skipTrivia(); err != nil {
		return Token{}, err
	}

	start := lx.pos()
	if lx.off >= len(lx.src) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	ch := lx.src[lx.off]
	switch {
	case isIdentStart(ch):
		begin := lx.off
		for lx.off < len(lx.src) && isIdentContinue(lx.src[lx.off]) {
			lx.advance(1)
		}
		text := lx.src[begin:lx.off]
		if _, ok := keywords[text]; ok {
			return Token{Kind: Keyw, Text: text, Pos: start}, nil
		}
		return Token{Kind: Ident, Text: text, Pos: start}, nil
	case isDigit(ch):
		return lx.scanNumber(start), nil
	case ch == '"':
		return lx.scanString(start)
	}

	for _, p := range punct2 {
		if strings.HasPrefix(lx.src[lx.off:], p) {
			lx.advance(2)
			return Token{Kind: Punct, Text: p, Pos: start}, nil
		}
	}

	if strings.IndexByte(punct1, ch) >= 0 {
		lx.advance(1)
		return Token{Kind: Punct, Text: string(ch), Pos: start}, nil
	}

	return Token{}, PositionError{Position: start, Err: fmt.Errorf("%w %q", ErrUnexpectedChar, ch)}
}

func (lx *Lexer) scanNumber(start Position) Token {
	begin := lx.off
	kind := Int

	for isDigit(lx.peekByte(0)) {
		lx.advance(1)
	}

	if lx.peekByte(0) == '.' && isDigit(lx.peekByte(1)) {
		kind = Double
		lx.advance(1)
		for isDigit(lx.peekByte(0)) {
			lx.advance(1)
		}
	}

	if e := lx.peekByte(0); e == 'e' || e == 'E' {
		n := 1
		if s := lx.peekByte(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(lx.peekByte(n)) {
			kind = Double
			lx.advance(n)
			for isDigit(lx.peekByte(0)) {
				lx.advance(1)
			}
		}
	}

	return Token{Kind: kind, Text: lx.src[begin:lx.off], Pos: start}
}

// scanString returns the quoted source text; the parser unquotes it.
func (lx *Lexer) scanString(start Position) (Token, error) {
	begin := lx.off
	lx.advance(1)

	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case '\\':
			lx.advance(2)
		case '\n':
			return Token{}, PositionError{Position: start, Err: ErrUnterminatedStr}
		case '"':
			lx.advance(1)
			return Token{Kind: String, Text: lx.src[begin:lx.off], Pos: start}, nil
		default:
			lx.advance(1)
		}
	}

	return Token{}, PositionError{Position: start, Err: ErrUnterminatedStr}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
