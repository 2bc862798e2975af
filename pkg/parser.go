package kaleido

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

type Tokenizer interface {
	Next() (Token, error)
}

// Parser builds top-level items out of a token stream. It keeps a single
// token of lookahead.
type Parser struct {
	tokenizer Tokenizer
	buf       *Token
}

func NewParser(tokenizer Tokenizer) *Parser {
	return &Parser{
		tokenizer: tokenizer,
	}
}

func NewParserFromReader(reader io.Reader) *Parser {
	return NewParser(NewLexerFromReader(reader))
}

// Run parses every item up to the end of the input. It stops at the first
// error, in which case no tree is returned.
func (p *Parser) Run() (*AST, error) {
	ast := &AST{}

	for {
		item, err := p.Next()
		if errors.Is(err, io.EOF) {
			return ast, nil
		}

		if err != nil {
			return nil, err
		}

		ast.Items = append(ast.Items, item)
	}
}

// Next parses one top-level item: a FuncDecl, an ExternDecl, or a bare
// expression wrapped in an anonymous FuncDecl. It returns io.EOF once the
// input is exhausted.
func (p *Parser) Next() (Node, error) {
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch {
		case tok.IsEOF():
			return nil, io.EOF
		case tok.Typ == TokenSemicolon:
			continue
		case tok.isKeyword(KeywordDef):
			return p.funcDecl(tok)
		case tok.isKeyword(KeywordExtern):
			return p.externDecl(tok)
		default:
			p.unread(tok)
			return p.topLevelExpr()
		}
	}
}

// Synchronize discards tokens up to the start of the next item. It stops in
// front of def, extern or the end of input, and right after a semicolon.
func (p *Parser) Synchronize() {
	for {
		tok, err := p.peek()
		if err != nil {
			// The lexer already skipped the bad input
			continue
		}

		switch {
		case tok.IsEOF(), tok.isKeyword(KeywordDef), tok.isKeyword(KeywordExtern):
			return
		case tok.Typ == TokenSemicolon:
			p.buf = nil
			return
		}

		p.buf = nil
	}
}

func (p *Parser) peek() (Token, error) {
	if p.buf == nil {
		tok, err := p.tokenizer.Next()
		if err != nil {
			return Token{}, err
		}

		p.buf = &tok
	}

	return *p.buf, nil
}

func (p *Parser) next() (Token, error) {
	tok, err := p.peek()
	if err != nil {
		return Token{}, err
	}

	if !tok.IsEOF() {
		// EOF stays buffered since no more tokens are expected
		p.buf = nil
	}

	return tok, nil
}

// unread pushes tok back so the next call to peek or next returns it.
func (p *Parser) unread(tok Token) {
	if p.buf != nil && !p.buf.IsEOF() {
		panic("kaleido: parser lookahead is already full")
	}

	p.buf = &tok
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return Token{}, err
	}

	if tok.Typ != typ {
		return Token{}, p.unexpected(tok, what)
	}

	return tok, nil
}

func (p *Parser) check(typ TokenType) bool {
	tok, err := p.peek()
	return err == nil && tok.Typ == typ
}

func (p *Parser) checkBracket(side BracketSide) bool {
	tok, err := p.peek()
	return err == nil && tok.isBracket(BracketRound, side)
}

func (p *Parser) consume(typ TokenType) bool {
	if !p.check(typ) {
		return false
	}

	p.buf = nil
	return true
}

// unexpected reports tok as out of place. A token that starts or ends an item
// is pushed back so that Synchronize stops in front of it.
func (p *Parser) unexpected(tok Token, expected string) error {
	if boundary(tok) {
		p.unread(tok)
	}

	if tok.IsEOF() {
		return &ParseError{
			Kind:     UnexpectedEndOfInput,
			Msg:      fmt.Sprintf("expected %s, found end of input", expected),
			Expected: expected,
			Found:    tok,
			Pos:      tok.Pos,
		}
	}

	return &ParseError{
		Kind:     UnexpectedToken,
		Msg:      fmt.Sprintf("expected %s, found %s", expected, tok.describe()),
		Expected: expected,
		Found:    tok,
		Pos:      tok.Pos,
	}
}

func boundary(tok Token) bool {
	return tok.IsEOF() || tok.Typ == TokenSemicolon ||
		tok.isKeyword(KeywordDef) || tok.isKeyword(KeywordExtern)
}

func (p *Parser) invalidOperator(tok Token, format string, args ...interface{}) error {
	return &ParseError{
		Kind:  InvalidOperatorUsage,
		Msg:   fmt.Sprintf(format, args...),
		Found: tok,
		Pos:   tok.Pos,
	}
}

func (p *Parser) funcDecl(def Token) (Node, error) {
	proto, err := p.prototype()
	if err != nil {
		return nil, err
	}

	body, err := p.expression()
	if err != nil {
		return nil, err
	}

	logf("parsed function %s", proto.Name)

	return &FuncDecl{
		Proto: proto,
		Body:  body,
		Pos:   def.Pos,
	}, nil
}

func (p *Parser) externDecl(extern Token) (Node, error) {
	proto, err := p.prototype()
	if err != nil {
		return nil, err
	}

	logf("parsed extern %s", proto.Name)

	return &ExternDecl{
		Proto: proto,
		Pos:   extern.Pos,
	}, nil
}

func (p *Parser) topLevelExpr() (Node, error) {
	start, err := p.peek()
	if err != nil {
		return nil, err
	}

	body, err := p.expression()
	if err != nil {
		return nil, err
	}

	logf("parsed top-level expression at %s", start.Pos)

	return &FuncDecl{
		Proto: &Prototype{Pos: start.Pos},
		Body:  body,
		Pos:   start.Pos,
	}, nil
}

// prototype parses `name(a b c)`. Parameters may also be separated by commas.
func (p *Parser) prototype() (*Prototype, error) {
	name, err := p.expect(TokenIdentifier, "function name")
	if err != nil {
		return nil, err
	}

	open, err := p.next()
	if err != nil {
		return nil, err
	}

	if !open.isBracket(BracketRound, BracketLeft) {
		return nil, p.unexpected(open, "'('")
	}

	proto := &Prototype{
		Name: name.Value,
		Pos:  name.Pos,
	}

	afterComma := false
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch {
		case tok.Typ == TokenIdentifier:
			proto.Params = append(proto.Params, tok.Value)
			afterComma = p.consume(TokenComma)
		case tok.isBracket(BracketRound, BracketRight) && !afterComma:
			return proto, nil
		case afterComma:
			return nil, p.unexpected(tok, "parameter name")
		default:
			return nil, p.unexpected(tok, "parameter name or ')'")
		}
	}
}

func (p *Parser) expression() (Expr, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}

	return p.binaryRHS(0, lhs)
}

// binaryRHS extends lhs with every following operator whose level is at least
// minLevel. Operators that bind tighter than the one before them take the
// right operand first through a nested call.
func (p *Parser) binaryRHS(minLevel int, lhs Expr) (Expr, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		op, ok := tok.Operator()
		if !ok {
			return lhs, nil
		}

		prec, ok := PrecedenceOf(op)
		if !ok {
			return nil, p.invalidOperator(tok, "'%s' is not a binary operator", op)
		}

		if prec.Level < minLevel {
			return lhs, nil
		}

		p.buf = nil // Skip the operator

		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}

		lookahead, err := p.peek()
		if err != nil {
			return nil, err
		}

		if nextOp, ok := lookahead.Operator(); ok {
			if nextPrec, ok := PrecedenceOf(nextOp); ok && BindsTighter(nextPrec, prec) {
				level := prec.Level + 1
				if nextPrec.Level == prec.Level {
					level = prec.Level
				}

				rhs, err = p.binaryRHS(level, rhs)
				if err != nil {
					return nil, err
				}
			}
		}

		lhs = &BinaryExpr{
			Operation: op,
			Op1:       lhs,
			Op2:       rhs,
			Pos:       tok.Pos,
		}
	}
}

func (p *Parser) unary() (Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	op, ok := tok.Operator()
	if !ok {
		return p.primary()
	}

	if !unaryOperators[op] {
		return nil, p.invalidOperator(tok, "'%s' cannot be used as a prefix operator", op)
	}

	p.buf = nil // Skip the operator

	operand, err := p.unary()
	if err != nil {
		return nil, err
	}

	return &UnaryExpr{
		Operation: op,
		Operand:   operand,
		Pos:       tok.Pos,
	}, nil
}

func (p *Parser) primary() (Expr, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.Typ == TokenInteger:
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.unexpected(tok, "integer literal")
		}

		return &IntegerLiteral{Value: v, Pos: tok.Pos}, nil
	case tok.Typ == TokenFloat:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.unexpected(tok, "float literal")
		}

		return &FloatLiteral{Value: v, Pos: tok.Pos}, nil
	case tok.Typ == TokenIdentifier:
		return p.identifier(tok)
	case tok.isBracket(BracketRound, BracketLeft):
		return p.parenthesisedExpression(tok)
	case tok.isKeyword(KeywordVar):
		return p.variableExpr()
	}

	return nil, p.unexpected(tok, "expression")
}

func (p *Parser) parenthesisedExpression(open Token) (Expr, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	closer, err := p.next()
	if err != nil {
		return nil, err
	}

	if !closer.Bracket().Closes(open.Bracket()) {
		return nil, p.unexpected(closer, "')'")
	}

	return expr, nil
}

// identifier parses a variable reference or, when followed by '(', a call.
func (p *Parser) identifier(id Token) (Expr, error) {
	if !p.checkBracket(BracketLeft) {
		return &Identifier{Name: id.Value, Pos: id.Pos}, nil
	}

	p.buf = nil // Skip the '('

	call := &FuncCall{
		Name: id.Value,
		Pos:  id.Pos,
	}

	if p.checkBracket(BracketRight) {
		p.buf = nil
		return call, nil
	}

	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)

		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch {
		case tok.isBracket(BracketRound, BracketRight):
			return call, nil
		case tok.Typ == TokenComma:
			continue
		default:
			return nil, p.unexpected(tok, "',' or ')'")
		}
	}
}

// variableExpr parses `var a = 1, b in body` into nested VariableExprs, the
// first binding outermost. A binding without an initializer starts at 0.
func (p *Parser) variableExpr() (Expr, error) {
	type binding struct {
		name Token
		init Expr
	}

	var bindings []binding
	for {
		name, err := p.expect(TokenIdentifier, "variable name")
		if err != nil {
			return nil, err
		}

		b := binding{name: name}

		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		if op, ok := tok.Operator(); ok && op == OpAssign {
			p.buf = nil
			if b.init, err = p.expression(); err != nil {
				return nil, err
			}
		} else {
			b.init = &IntegerLiteral{Value: 0, Pos: name.Pos}
		}

		bindings = append(bindings, b)

		if !p.consume(TokenComma) {
			break
		}
	}

	in, err := p.next()
	if err != nil {
		return nil, err
	}

	if !in.isKeyword(KeywordIn) {
		return nil, p.unexpected(in, "'in'")
	}

	body, err := p.expression()
	if err != nil {
		return nil, err
	}

	for i := len(bindings) - 1; i >= 0; i-- {
		body = &VariableExpr{
			Name: bindings[i].name.Value,
			Init: bindings[i].init,
			Body: body,
			Pos:  bindings[i].name.Pos,
		}
	}

	return body, nil
}
