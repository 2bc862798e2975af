package kaleido

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type BufferedTokenizerMocker struct {
	buf []Token
	pos int
}

func NewBufferedTokenizerMocker(toks []Token) *BufferedTokenizerMocker {
	return &BufferedTokenizerMocker{
		buf: toks,
		pos: 0,
	}
}

func (b *BufferedTokenizerMocker) Next() (Token, error) {
	if len(b.buf) <= b.pos {
		return Token{Typ: TokenEOF}, nil
	}

	tok := b.buf[b.pos]
	b.pos++

	return tok, nil
}

func anon(body Expr) *FuncDecl {
	return &FuncDecl{Proto: &Prototype{}, Body: body}
}

func integer(v int64) *IntegerLiteral {
	return &IntegerLiteral{Value: v}
}

func ident(name string) *Identifier {
	return &Identifier{Name: name}
}

func binary(op Operator, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{Operation: op, Op1: lhs, Op2: rhs}
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   []Token
		fail   bool
		expect []Node
	}{
		{
			[]Token{
				{Typ: TokenKeyword, Value: "def"},
				{Typ: TokenIdentifier, Value: "main"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenBracket, Value: ")"},
				{Typ: TokenInteger, Value: "0"},
			},
			false,
			[]Node{
				&FuncDecl{
					Proto: &Prototype{Name: "main"},
					Body:  integer(0),
				},
			},
		},
		{
			[]Token{
				{Typ: TokenKeyword, Value: "extern"},
				{Typ: TokenIdentifier, Value: "atan2"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenIdentifier, Value: "y"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenIdentifier, Value: "x"},
				{Typ: TokenBracket, Value: ")"},
				{Typ: TokenSemicolon, Value: ";"},
			},
			false,
			[]Node{
				&ExternDecl{
					Proto: &Prototype{Name: "atan2", Params: []string{"y", "x"}},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenSemicolon, Value: ";"},
				{Typ: TokenSemicolon, Value: ";"},
			},
			false,
			nil,
		},
		{
			[]Token{
				{Typ: TokenIdentifier, Value: "foo"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenBracket, Value: ")"},
			},
			false,
			[]Node{
				anon(&FuncCall{Name: "foo"}),
			},
		},
		{
			[]Token{
				{Typ: TokenIdentifier, Value: "foo"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenFloat, Value: "1.5"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenInteger, Value: "2"},
				{Typ: TokenBracket, Value: ")"},
			},
			false,
			[]Node{
				anon(&FuncCall{
					Name: "foo",
					Args: []Expr{&FloatLiteral{Value: 1.5}, integer(2)},
				}),
			},
		},
		{
			[]Token{
				{Typ: TokenIdentifier, Value: "foo"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenInteger, Value: "1"},
				{Typ: TokenInteger, Value: "2"},
				{Typ: TokenBracket, Value: ")"},
			},
			true,
			nil,
		},
		{
			[]Token{
				{Typ: TokenKeyword, Value: "def"},
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenBracket, Value: ")"},
			},
			true,
			nil,
		},
		{
			[]Token{
				{Typ: TokenInteger, Value: "1"},
				{Typ: TokenOperator, Value: "+"},
				{Typ: TokenInteger, Value: "2"},
				{Typ: TokenOperator, Value: "*"},
				{Typ: TokenInteger, Value: "3"},
			},
			false,
			[]Node{
				anon(binary(OpAdd, integer(1), binary(OpMul, integer(2), integer(3)))),
			},
		},
		{
			[]Token{
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenInteger, Value: "1"},
				{Typ: TokenOperator, Value: "+"},
				{Typ: TokenInteger, Value: "3"},
				{Typ: TokenBracket, Value: ")"},
				{Typ: TokenOperator, Value: "*"},
				{Typ: TokenInteger, Value: "2"},
			},
			false,
			[]Node{
				anon(binary(OpMul, binary(OpAdd, integer(1), integer(3)), integer(2))),
			},
		},
		{
			[]Token{
				{Typ: TokenOperator, Value: "-"},
				{Typ: TokenIdentifier, Value: "x"},
				{Typ: TokenOperator, Value: "*"},
				{Typ: TokenIdentifier, Value: "y"},
			},
			false,
			[]Node{
				anon(binary(OpMul, &UnaryExpr{Operation: OpSub, Operand: ident("x")}, ident("y"))),
			},
		},
		{
			[]Token{
				{Typ: TokenKeyword, Value: "var"},
				{Typ: TokenIdentifier, Value: "a"},
				{Typ: TokenOperator, Value: "="},
				{Typ: TokenInteger, Value: "1"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenIdentifier, Value: "b"},
				{Typ: TokenKeyword, Value: "in"},
				{Typ: TokenIdentifier, Value: "a"},
				{Typ: TokenOperator, Value: "+"},
				{Typ: TokenIdentifier, Value: "b"},
			},
			false,
			[]Node{
				anon(&VariableExpr{
					Name: "a",
					Init: integer(1),
					Body: &VariableExpr{
						Name: "b",
						Init: integer(0),
						Body: binary(OpAdd, ident("a"), ident("b")),
					},
				}),
			},
		},
		{
			[]Token{
				{Typ: TokenBracket, Value: "("},
				{Typ: TokenInteger, Value: "1"},
				{Typ: TokenBracket, Value: "]"},
			},
			true,
			nil,
		},
	}

	for _, c := range cases {
		p := NewParser(NewBufferedTokenizerMocker(c.data))

		ast, err := p.Run()
		if c.fail {
			assert.Error(t, err)
			assert.Nil(t, ast)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, c.expect, ast.Items)
	}
}

func parseExpr(t *testing.T, src string) Expr {
	t.Helper()

	item, err := NewParserFromReader(strings.NewReader(src)).Next()
	require.NoError(t, err, src)

	decl := MustNarrow[*FuncDecl](clearPositions(item))
	require.True(t, decl.IsAnonymous(), src)

	return decl.Body
}

func TestParserPrecedence(t *testing.T) {
	cases := []struct {
		src    string
		expect Expr
	}{
		{"1+2*3", binary(OpAdd, integer(1), binary(OpMul, integer(2), integer(3)))},
		{"1*2+3", binary(OpAdd, binary(OpMul, integer(1), integer(2)), integer(3))},
		{"1-2-3", binary(OpSub, binary(OpSub, integer(1), integer(2)), integer(3))},
		{"1/2/3", binary(OpDiv, binary(OpDiv, integer(1), integer(2)), integer(3))},
		{"2^3^2", binary(OpPow, integer(2), binary(OpPow, integer(3), integer(2)))},
		{"2*3^2", binary(OpMul, integer(2), binary(OpPow, integer(3), integer(2)))},
		{"2^3*2", binary(OpMul, binary(OpPow, integer(2), integer(3)), integer(2))},
		{"1+2<3*4", binary(OpLess, binary(OpAdd, integer(1), integer(2)), binary(OpMul, integer(3), integer(4)))},
		{"1<2==3", binary(OpEqual, binary(OpLess, integer(1), integer(2)), integer(3))},
		{
			"1+2*3-4",
			binary(OpSub, binary(OpAdd, integer(1), binary(OpMul, integer(2), integer(3))), integer(4)),
		},
		{"--1", &UnaryExpr{Operation: OpSub, Operand: &UnaryExpr{Operation: OpSub, Operand: integer(1)}}},
		{"-2^2", binary(OpPow, &UnaryExpr{Operation: OpSub, Operand: integer(2)}, integer(2))},
	}

	for _, c := range cases {
		assert.Equal(t, c.expect, parseExpr(t, c.src), c.src)
	}
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind ParseErrorKind
	}{
		{"1 +", UnexpectedEndOfInput},
		{"def f(x", UnexpectedEndOfInput},
		{"def", UnexpectedEndOfInput},
		{"foo(1,", UnexpectedEndOfInput},
		{"def 1(x) x", UnexpectedToken},
		{"def f(x,) x", UnexpectedToken},
		{"if x then 1 else 2", UnexpectedToken},
		{"var x = 1 x", UnexpectedToken},
		{"(1 + 2", UnexpectedEndOfInput},
		{"x = 3", InvalidOperatorUsage},
		{"*3", InvalidOperatorUsage},
		{"1 + = 2", InvalidOperatorUsage},
	}

	for _, c := range cases {
		_, err := NewParserFromReader(strings.NewReader(c.src)).Run()

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "%s: %v", c.src, err)
		assert.Equal(t, c.kind, parseErr.Kind, c.src)
	}
}

func TestParserErrorPosition(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("def f(x)\n  x + )")).Run()

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnexpectedToken, parseErr.Kind)
	assert.Equal(t, "expression", parseErr.Expected)
	assert.Equal(t, Position{Line: 2, Column: 7, Offset: 15}, parseErr.Pos)
}

func TestParserLexError(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("1 + @")).Run()

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, UnrecognizedCharacter, lexErr.Kind)
}

// Every call to Next must consume input, so malformed sources always
// terminate.
func TestParserTerminates(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(strings.Repeat("(", 10000))).Run()

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnexpectedEndOfInput, parseErr.Kind)
}

func TestParserSynchronize(t *testing.T) {
	cases := []struct {
		src    string
		errors int
		items  []Node
	}{
		{
			"def f(x) x + ) 1 2; g(); def h() 1 extern k(a)",
			1,
			[]Node{
				anon(&FuncCall{Name: "g"}),
				&FuncDecl{Proto: &Prototype{Name: "h"}, Body: integer(1)},
				&ExternDecl{Proto: &Prototype{Name: "k", Params: []string{"a"}}},
			},
		},
		{
			"def f(x) x +\ndef g(y) y\ng(1)",
			1,
			[]Node{
				&FuncDecl{Proto: &Prototype{Name: "g", Params: []string{"y"}}, Body: ident("y")},
				anon(&FuncCall{Name: "g", Args: []Expr{integer(1)}}),
			},
		},
		{
			"1 + ; 2 + 3; 4",
			1,
			[]Node{
				anon(binary(OpAdd, integer(2), integer(3))),
				anon(integer(4)),
			},
		},
		{
			"foo(1, extern k(a)",
			1,
			[]Node{
				&ExternDecl{Proto: &Prototype{Name: "k", Params: []string{"a"}}},
			},
		},
		{
			"def def f() 1",
			1,
			[]Node{
				&FuncDecl{Proto: &Prototype{Name: "f"}, Body: integer(1)},
			},
		},
	}

	for _, c := range cases {
		p := NewParserFromReader(strings.NewReader(c.src))

		var items []Node
		var errs []error
		for {
			item, err := p.Next()
			if errors.Is(err, io.EOF) {
				break
			}

			if err != nil {
				errs = append(errs, err)
				p.Synchronize()
				continue
			}

			items = append(items, clearPositions(item))
		}

		assert.Len(t, errs, c.errors, c.src)
		assert.Equal(t, c.items, items, c.src)
	}
}

func TestParserEOF(t *testing.T) {
	p := NewParserFromReader(strings.NewReader("1"))

	_, err := p.Next()
	require.NoError(t, err)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}
