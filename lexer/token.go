package lexer

import (
	"fmt"

	"github.com/wudi/loom/values"
)

// Kind identifies the category of a Token, per spec.md section 4.1.
type Kind int

const (
	EOF Kind = iota
	Number
	String
	Interpolation
	Identifier

	// Keywords.
	KwVar
	KwFun
	KwIf
	KwElse
	KwWhile
	KwFor
	KwBreak
	KwContinue
	KwReturn
	KwNull
	KwClass
	KwThis
	KwStatic
	KwIs
	KwSuper
	KwImport
	KwTrue
	KwFalse
	KwIn

	// Punctuation.
	Comma
	Colon
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	Dot
	DotDot
	Question

	// Operators.
	Plus
	Minus
	Star
	Slash
	Percent
	Eq
	Amp
	Pipe
	Tilde
	ShiftRight
	ShiftLeft
	AndAnd
	OrOr
	Bang
	EqEq
	BangEq
	Greater
	GreaterEq
	Less
	LessEq
)

var keywords = map[string]Kind{
	"var": KwVar, "fun": KwFun, "if": KwIf, "else": KwElse, "while": KwWhile,
	"for": KwFor, "break": KwBreak, "continue": KwContinue, "return": KwReturn,
	"null": KwNull, "class": KwClass, "this": KwThis, "static": KwStatic,
	"is": KwIs, "super": KwSuper, "import": KwImport, "true": KwTrue, "false": KwFalse,
	"in": KwIn,
}

var kindNames = map[Kind]string{
	EOF: "EOF", Number: "number", String: "string", Interpolation: "interpolation",
	Identifier: "identifier", Comma: "','", Colon: "':'", LeftParen: "'('", RightParen: "')'",
	LeftBracket: "'['", RightBracket: "']'", LeftBrace: "'{'", RightBrace: "'}'",
	Dot: "'.'", DotDot: "'..'", Question: "'?'", Plus: "'+'", Minus: "'-'", Star: "'*'",
	Slash: "'/'", Percent: "'%'", Eq: "'='", Amp: "'&'", Pipe: "'|'", Tilde: "'~'",
	ShiftRight: "'>>'", ShiftLeft: "'<<'", AndAnd: "'&&'", OrOr: "'||'", Bang: "'!'",
	EqEq: "'=='", BangEq: "'!='", Greater: "'>'", GreaterEq: "'>='", Less: "'<'", LessEq: "'<='",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "keyword"
}

// Token is { kind, start-pointer, length, line, value } per spec.md section 4.1.
type Token struct {
	Kind   Kind
	Start  int
	Length int
	Line   int
	Value  values.Value // set for Number, String and Interpolation tokens, Undefined otherwise
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s @%d}", t.Kind, t.Line)
}
