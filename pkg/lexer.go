package kaleido

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type stateFunc func(l *Lexer) stateFunc

// Lexer turns a CharSource into tokens, one per call to Next. It is not
// restartable: scanning the same input again needs a new Lexer.
type Lexer struct {
	src   CharSource
	start Position
	tok   Token
	err   error
	done  bool
}

func NewLexer(src CharSource) *Lexer {
	return &Lexer{src: src}
}

func NewLexerFromReader(reader io.Reader) *Lexer {
	return NewLexer(NewReaderSource(reader))
}

// Next scans the next token. Once the end of the stream has been reached it
// keeps returning the same TokenEOF. A failed scan consumes the offending
// input, so calling Next again resumes after it.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return l.tok, nil
	}

	l.err = nil
	for state := defaultState; state != nil; {
		state = state(l)
	}

	if l.err != nil {
		return Token{}, l.err
	}

	if l.tok.IsEOF() {
		l.done = true
	}

	return l.tok, nil
}

// All drains the lexer and returns every token before the end of the stream.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}

		if tok.IsEOF() {
			return tokens, nil
		}

		tokens = append(tokens, tok)
	}
}

func defaultState(l *Lexer) stateFunc {
	for {
		l.start = l.src.Position()

		switch r := l.src.Peek(); {
		case r == EOF:
			if err := l.src.Err(); err != nil {
				// A failed read is final; later calls see the end of the stream
				l.done = true
				l.tok = Token{Typ: TokenEOF, Pos: l.start}
				l.err = fmt.Errorf("reading source at %s: %w", l.start, err)
				return nil
			}

			return l.emitValue(TokenEOF, "")
		case unicode.IsSpace(r):
			l.src.Next()
		case r == '#':
			return lineCommentState
		case isIdentifierStart(r):
			return identifierState
		case isDigit(r):
			return numberState
		default:
			return operatorState
		}
	}
}

func lineCommentState(l *Lexer) stateFunc {
	for r := l.src.Peek(); r != '\n' && r != EOF; r = l.src.Peek() {
		l.src.Next()
	}

	return defaultState
}

func identifierState(l *Lexer) stateFunc {
	var id strings.Builder
	for r := l.src.Peek(); isIdentifierStart(r) || isDigit(r); r = l.src.Peek() {
		id.WriteRune(l.src.Next())
	}

	if _, ok := keywordTable[id.String()]; ok {
		return l.emitValue(TokenKeyword, id.String())
	}

	return l.emitValue(TokenIdentifier, id.String())
}

func numberState(l *Lexer) stateFunc {
	var num strings.Builder
	dots := 0
	for r := l.src.Peek(); isDigit(r) || r == '.'; r = l.src.Peek() {
		if r == '.' {
			dots++
		}

		num.WriteRune(l.src.Next())
	}

	lexeme := num.String()
	switch {
	case dots > 1:
		return l.errorf(MalformedNumericLiteral, lexeme, "numeric literal '%s' has more than one decimal point", lexeme)
	case strings.HasSuffix(lexeme, "."):
		return l.errorf(MalformedNumericLiteral, lexeme, "numeric literal '%s' ends with a decimal point", lexeme)
	}

	typ := TokenInteger
	if dots == 1 {
		typ = TokenFloat
	}

	if r := l.src.Peek(); r == 'e' || r == 'E' {
		num.WriteRune(l.src.Next())
		if r := l.src.Peek(); r == '+' || r == '-' {
			num.WriteRune(l.src.Next())
		}

		digits := 0
		for r := l.src.Peek(); isDigit(r); r = l.src.Peek() {
			num.WriteRune(l.src.Next())
			digits++
		}

		lexeme = num.String()
		if digits == 0 {
			return l.errorf(UnterminatedConstruct, lexeme, "exponent of '%s' has no digits", lexeme)
		}

		typ = TokenFloat
	}

	if typ == TokenInteger {
		if _, err := strconv.ParseInt(lexeme, 10, 64); err != nil {
			return l.errorf(MalformedNumericLiteral, lexeme, "integer literal '%s' does not fit in 64 bits", lexeme)
		}
	} else if _, err := strconv.ParseFloat(lexeme, 64); err != nil {
		return l.errorf(MalformedNumericLiteral, lexeme, "float literal '%s' is out of range", lexeme)
	}

	return l.emitValue(typ, lexeme)
}

func operatorState(l *Lexer) stateFunc {
	r := l.src.Next()

	switch r {
	case ',':
		return l.emitValue(TokenComma, ",")
	case ';':
		return l.emitValue(TokenSemicolon, ";")
	}

	if _, ok := bracketTable[r]; ok {
		return l.emitValue(TokenBracket, string(r))
	}

	if _, ok := operatorTable[string(r)]; ok {
		// Some operators are two runes long; take the longest spelling
		if next := l.src.Peek(); next != EOF {
			if op := string(r) + string(next); isOperator(op) {
				l.src.Next()
				return l.emitValue(TokenOperator, op)
			}
		}

		return l.emitValue(TokenOperator, string(r))
	}

	return l.errorf(UnrecognizedCharacter, string(r), "unrecognized character '%c'", r)
}

func (l *Lexer) errorf(kind LexErrorKind, lexeme string, format string, args ...interface{}) stateFunc {
	l.err = &LexError{
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
		Lexeme: lexeme,
		Pos:    l.start,
	}

	return nil
}

func (l *Lexer) emitValue(t TokenType, val string) stateFunc {
	l.tok = Token{
		Typ:   t,
		Value: val,
		Pos:   l.start,
	}

	return nil
}

func isIdentifierStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isOperator(spelling string) bool {
	_, ok := operatorTable[spelling]
	return ok
}
