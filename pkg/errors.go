package kaleido

import (
	"errors"
	"fmt"
)

// CompileError is implemented by every failure the pipeline reports about
// its input. Position may be the zero value when no location is known.
type CompileError interface {
	error
	Position() Position
}

type LexErrorKind int

const (
	UnrecognizedCharacter LexErrorKind = iota
	MalformedNumericLiteral
	UnterminatedConstruct
)

func (k LexErrorKind) String() string {
	switch k {
	case UnrecognizedCharacter:
		return "unrecognized character"
	case MalformedNumericLiteral:
		return "malformed numeric literal"
	case UnterminatedConstruct:
		return "unterminated construct"
	}

	return fmt.Sprintf("LexErrorKind(%d)", int(k))
}

type LexError struct {
	Kind   LexErrorKind
	Msg    string
	Lexeme string
	Pos    Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s lex error: %s", e.Pos, e.Msg)
}

func (e *LexError) Position() Position {
	return e.Pos
}

type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	UnexpectedEndOfInput
	InvalidOperatorUsage
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEndOfInput:
		return "unexpected end of input"
	case InvalidOperatorUsage:
		return "invalid operator usage"
	}

	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

type ParseError struct {
	Kind     ParseErrorKind
	Msg      string
	Expected string
	Found    Token
	Pos      Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %s", e.Pos, e.Msg)
}

func (e *ParseError) Position() Position {
	return e.Pos
}

type CodeGenErrorKind int

const (
	UndefinedName CodeGenErrorKind = iota
	UndefinedFunction
	ArityMismatch
	Redefinition
	// WrongNodeKind means the parser built a tree the code generator did not
	// expect. It is a bug, never a fault in the compiled program.
	WrongNodeKind
)

func (k CodeGenErrorKind) String() string {
	switch k {
	case UndefinedName:
		return "undefined name"
	case UndefinedFunction:
		return "undefined function"
	case ArityMismatch:
		return "arity mismatch"
	case Redefinition:
		return "redefinition"
	case WrongNodeKind:
		return "wrong node kind"
	}

	return fmt.Sprintf("CodeGenErrorKind(%d)", int(k))
}

type CodeGenError struct {
	Kind CodeGenErrorKind
	Msg  string
	Name string
	Pos  Position
}

func (e *CodeGenError) Error() string {
	return fmt.Sprintf("%s codegen error: %s", e.Pos, e.Msg)
}

func (e *CodeGenError) Position() Position {
	return e.Pos
}

// IsInternal reports whether err signals a compiler defect rather than a
// problem with the source program.
func IsInternal(err error) bool {
	var e *CodeGenError
	return errors.As(err, &e) && e.Kind == WrongNodeKind
}
