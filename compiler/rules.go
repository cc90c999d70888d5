package compiler

import "github.com/wudi/loom/lexer"

// Binding powers, low to high, per spec.md section 4.3.
const (
	bpNone = iota
	bpLowest
	bpAssign
	bpCondition
	bpLogicOr
	bpLogicAnd
	bpEqual
	bpIs
	bpCompare
	bpBitOr
	bpBitAnd
	bpBitShift
	bpRange
	bpTerm
	bpFactor
	bpUnary
	bpCall
	bpHighest
)

type prefixFn func(c *Compiler, canAssign bool)
type infixFn func(c *Compiler, canAssign bool)

type rule struct {
	lbp    int
	prefix prefixFn
	infix  infixFn
}

var rules map[lexer.Kind]rule

func init() {
	rules = map[lexer.Kind]rule{
		lexer.Number:        {lbp: bpNone, prefix: (*Compiler).number},
		lexer.String:        {lbp: bpNone, prefix: (*Compiler).stringLiteral},
		lexer.Interpolation: {lbp: bpNone, prefix: (*Compiler).interpolation},
		lexer.Identifier:    {lbp: bpNone, prefix: (*Compiler).variable},
		lexer.KwTrue:        {lbp: bpNone, prefix: (*Compiler).literalTrue},
		lexer.KwFalse:       {lbp: bpNone, prefix: (*Compiler).literalFalse},
		lexer.KwNull:        {lbp: bpNone, prefix: (*Compiler).literalNull},
		lexer.KwThis:        {lbp: bpNone, prefix: (*Compiler).this},
		lexer.KwSuper:       {lbp: bpNone, prefix: (*Compiler).super},
		lexer.LeftParen:     {lbp: bpCall, prefix: (*Compiler).grouping},
		lexer.LeftBracket:   {lbp: bpCall, prefix: (*Compiler).listLiteral, infix: (*Compiler).subscript},
		lexer.LeftBrace:     {lbp: bpNone, prefix: (*Compiler).mapLiteral},
		lexer.Dot:           {lbp: bpCall, infix: (*Compiler).call},

		lexer.Minus: {lbp: bpTerm, prefix: (*Compiler).unary, infix: (*Compiler).binary},
		lexer.Plus:  {lbp: bpTerm, infix: (*Compiler).binary},
		lexer.Star:  {lbp: bpFactor, infix: (*Compiler).binary},
		lexer.Slash: {lbp: bpFactor, infix: (*Compiler).binary},
		lexer.Percent: {lbp: bpFactor, infix: (*Compiler).binary},

		lexer.Bang:  {lbp: bpNone, prefix: (*Compiler).unary},
		lexer.Tilde: {lbp: bpNone, prefix: (*Compiler).unary},

		lexer.Amp:        {lbp: bpBitAnd, infix: (*Compiler).binary},
		lexer.Pipe:       {lbp: bpBitOr, infix: (*Compiler).binary},
		lexer.ShiftLeft:  {lbp: bpBitShift, infix: (*Compiler).binary},
		lexer.ShiftRight: {lbp: bpBitShift, infix: (*Compiler).binary},

		lexer.EqEq:      {lbp: bpEqual, infix: (*Compiler).binary},
		lexer.BangEq:    {lbp: bpEqual, infix: (*Compiler).binary},
		lexer.Greater:   {lbp: bpCompare, infix: (*Compiler).binary},
		lexer.GreaterEq: {lbp: bpCompare, infix: (*Compiler).binary},
		lexer.Less:      {lbp: bpCompare, infix: (*Compiler).binary},
		lexer.LessEq:    {lbp: bpCompare, infix: (*Compiler).binary},
		lexer.KwIs:      {lbp: bpIs, infix: (*Compiler).binary},

		lexer.DotDot: {lbp: bpRange, infix: (*Compiler).binary},

		lexer.AndAnd: {lbp: bpLogicAnd, infix: (*Compiler).and},
		lexer.OrOr:   {lbp: bpLogicOr, infix: (*Compiler).or},

		lexer.Question: {lbp: bpCondition, infix: (*Compiler).ternary},

		lexer.Eq: {lbp: bpAssign},
	}
}

func ruleFor(k lexer.Kind) rule { return rules[k] }
