package kaleido

import "fmt"

type TokenType uint64

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenKeyword
	TokenOperator
	TokenBracket
	TokenInteger
	TokenFloat
	TokenComma
	TokenSemicolon
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIdentifier: "Identifier",
	TokenKeyword:    "Keyword",
	TokenOperator:   "Operator",
	TokenBracket:    "Bracket",
	TokenInteger:    "Integer",
	TokenFloat:      "Float",
	TokenComma:      "Comma",
	TokenSemicolon:  "Semicolon",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("TokenType(%d)", uint64(t))
}

func (t TokenType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Keyword string

const (
	KeywordDef    Keyword = "def"
	KeywordExtern Keyword = "extern"
	KeywordIf     Keyword = "if"
	KeywordThen   Keyword = "then"
	KeywordElse   Keyword = "else"
	KeywordVar    Keyword = "var"
	KeywordIn     Keyword = "in"
)

var keywordTable = map[string]Keyword{
	"def":    KeywordDef,
	"extern": KeywordExtern,
	"if":     KeywordIf,
	"then":   KeywordThen,
	"else":   KeywordElse,
	"var":    KeywordVar,
	"in":     KeywordIn,
}

// Every operator spelling the lexer accepts. None is longer than two runes.
var operatorTable = map[string]Operator{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"^":  OpPow,
	"<":  OpLess,
	">":  OpGreater,
	"<=": OpLessEqual,
	">=": OpGreaterEqual,
	"==": OpEqual,
	"=":  OpAssign,
}

type BracketKind int

const (
	BracketUnknown BracketKind = iota
	BracketRound
	BracketSquare
	BracketCurly
)

type BracketSide int

const (
	BracketLeft BracketSide = iota
	BracketRight
)

// Bracket is a bracket token's shape and orientation.
type Bracket struct {
	Kind BracketKind
	Side BracketSide
}

var bracketTable = map[rune]Bracket{
	'(': {BracketRound, BracketLeft},
	')': {BracketRound, BracketRight},
	'[': {BracketSquare, BracketLeft},
	']': {BracketSquare, BracketRight},
	'{': {BracketCurly, BracketLeft},
	'}': {BracketCurly, BracketRight},
}

// Closes reports whether b is the right-hand partner of open.
func (b Bracket) Closes(open Bracket) bool {
	return b.Kind != BracketUnknown && b.Kind == open.Kind && open.Side == BracketLeft && b.Side == BracketRight
}

type Token struct {
	Typ   TokenType `json:"type"`
	Value string    `json:"value"`
	Pos   Position  `json:"pos"`
}

func (t Token) IsEOF() bool {
	return t.Typ == TokenEOF
}

// Keyword returns the keyword a TokenKeyword spells, or "" for other tokens.
func (t Token) Keyword() Keyword {
	if t.Typ != TokenKeyword {
		return ""
	}

	return keywordTable[t.Value]
}

// Operator returns the operator a TokenOperator spells.
func (t Token) Operator() (Operator, bool) {
	if t.Typ != TokenOperator {
		return "", false
	}

	op, ok := operatorTable[t.Value]
	return op, ok
}

func (t Token) Bracket() Bracket {
	if t.Typ != TokenBracket {
		return Bracket{}
	}

	for _, r := range t.Value {
		return bracketTable[r]
	}

	return Bracket{}
}

func (t Token) isKeyword(k Keyword) bool {
	return t.Keyword() == k
}

func (t Token) isBracket(kind BracketKind, side BracketSide) bool {
	return t.Bracket() == Bracket{Kind: kind, Side: side}
}

// describe names the token for diagnostics.
func (t Token) describe() string {
	switch t.Typ {
	case TokenEOF:
		return "end of input"
	case TokenKeyword, TokenOperator, TokenBracket, TokenComma, TokenSemicolon:
		return fmt.Sprintf("'%s'", t.Value)
	default:
		return fmt.Sprintf("%s '%s'", t.Typ, t.Value)
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Typ, t.Value, t.Pos)
}
