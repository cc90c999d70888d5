package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/loom/values"
)

// fakeAlloc is the minimal alloc.Allocator a lexer needs: it only ever
// calls NewStringValue, for string and interpolation-fragment literals.
type fakeAlloc struct{}

func (fakeAlloc) NewStringValue(s string) values.Value {
	return values.FromObj(&values.ObjString{Bytes: []byte(s)})
}

func (fakeAlloc) NewFn(module *values.ObjModule) *values.ObjFn {
	return &values.ObjFn{Module: module}
}

func kindsOf(t *testing.T, src string) []Kind {
	t.Helper()
	l := New(src, "<test>", fakeAlloc{})
	var kinds []Kind
	for l.Cur.Kind != EOF {
		kinds = append(kinds, l.Cur.Kind)
		l.Advance()
	}
	require.NoError(t, l.Err())
	return kinds
}

func TestLexerKeywordsAndPunctuation(t *testing.T) {
	kinds := kindsOf(t, `var x = 1 + 2`)
	require.Equal(t, []Kind{KwVar, Identifier, Eq, Number, Plus, Number}, kinds)
}

func TestLexerOperators(t *testing.T) {
	kinds := kindsOf(t, `a == b != c <= d >= e && f || !g`)
	require.Equal(t, []Kind{
		Identifier, EqEq, Identifier, BangEq, Identifier, LessEq, Identifier,
		GreaterEq, Identifier, AndAnd, Identifier, OrOr, Bang, Identifier,
	}, kinds)
}

func TestLexerRangeVsDot(t *testing.T) {
	require.Equal(t, []Kind{Number, DotDot, Number}, kindsOf(t, `1..10`))
	require.Equal(t, []Kind{Identifier, Dot, Identifier}, kindsOf(t, `a.b`))
}

func TestLexerStringLiteral(t *testing.T) {
	l := New(`"hello"`, "<test>", fakeAlloc{})
	require.Equal(t, String, l.Cur.Kind)
	s, ok := l.Cur.Value.AsString()
	require.True(t, ok)
	require.Equal(t, "hello", string(s.Bytes))
}

func TestLexerNumberLiteral(t *testing.T) {
	l := New(`3.5`, "<test>", fakeAlloc{})
	require.Equal(t, Number, l.Cur.Kind)
	require.True(t, l.Cur.Value.IsNumber())
	require.Equal(t, 3.5, l.Cur.Value.Num)
}

func TestLexerComments(t *testing.T) {
	kinds := kindsOf(t, "var x = 1 // trailing comment\nvar y = 2 /* block */ + 3")
	require.Equal(t, []Kind{
		KwVar, Identifier, Eq, Number,
		KwVar, Identifier, Eq, Number, Plus, Number,
	}, kinds)
}

func TestLexerFailsOnUnterminatedString(t *testing.T) {
	l := New(`"unterminated`, "<test>", fakeAlloc{})
	require.Error(t, l.Err())
}
