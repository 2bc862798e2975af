package kaleido

import "fmt"

// Position locates the first character of a token or node. Line and Column
// are 1-based, Offset is the 0-based byte offset into the stream. The zero
// value means the position is unknown.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
