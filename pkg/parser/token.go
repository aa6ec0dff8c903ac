package parser

import "fmt"

type Keyword string

const (
	KeywordVar       Keyword = "var"
	KeywordPrint     Keyword = "print"
	KeywordIf        Keyword = "if"
	KeywordElse      Keyword = "else"
	KeywordWhile     Keyword = "while"
	KeywordFunction  Keyword = "function"
	KeywordReturn    Keyword = "return"
	KeywordNew       Keyword = "new"
	KeywordSpawn     Keyword = "spawn"
	KeywordThread    Keyword = "thread"
	KeywordWait      Keyword = "wait"
	KeywordImport    Keyword = "import"
	KeywordTypes     Keyword = "types"
	KeywordFunctions Keyword = "functions"
	KeywordTrue      Keyword = "true"
	KeywordFalse     Keyword = "false"
	KeywordNull      Keyword = "null"
)

var keywords = map[string]Keyword{
	"var":      KeywordVar,
	"print":    KeywordPrint,
	"if":       KeywordIf,
	"else":     KeywordElse,
	"while":    KeywordWhile,
	"function": KeywordFunction,
	"return":   KeywordReturn,
	"new":      KeywordNew,
	"spawn":    KeywordSpawn,
	"thread":   KeywordThread,
	"wait":     KeywordWait,
	"import":   KeywordImport,
	"true":     KeywordTrue,
	"false":    KeywordFalse,
	"null":     KeywordNull,
}

type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	Keyw
	Int
	Double
	String
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Ident:
		return "identifier"
	case Keyw:
		return "keyword"
	case Int:
		return "integer"
	case Double:
		return "double"
	case String:
		return "string"
	case Punct:
		return "punctuation"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

func (t Token) Is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}

	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

type PositionError struct {
	Position Position
	Err      error
}

func (e PositionError) Error() string {
	return fmt.Sprintf("%v: %v", e.Position, e.Err)
}

func (e PositionError) Unwrap() error {
	return e.Err
}
