package kaleido

type Operator string

const (
	OpAdd          Operator = "+"
	OpSub          Operator = "-"
	OpMul          Operator = "*"
	OpDiv          Operator = "/"
	OpPow          Operator = "^"
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpEqual        Operator = "=="

	// OpAssign only appears inside var bindings and has no precedence.
	OpAssign Operator = "="
)

type Associativity int

const (
	LeftAssociative Associativity = iota
	RightAssociative
)

func (a Associativity) String() string {
	if a == RightAssociative {
		return "right"
	}

	return "left"
}

type Precedence struct {
	Level int
	Assoc Associativity
}

// binaryPrecedence holds every operator that may appear between two
// operands. Higher levels bind tighter.
var binaryPrecedence = map[Operator]Precedence{
	OpEqual:        {10, LeftAssociative},
	OpLess:         {10, LeftAssociative},
	OpGreater:      {10, LeftAssociative},
	OpLessEqual:    {10, LeftAssociative},
	OpGreaterEqual: {10, LeftAssociative},
	OpAdd:          {20, LeftAssociative},
	OpSub:          {20, LeftAssociative},
	OpMul:          {40, LeftAssociative},
	OpDiv:          {40, LeftAssociative},
	OpPow:          {60, RightAssociative},
}

// unaryOperators are the prefix operators. Both are also binary operators.
var unaryOperators = map[Operator]bool{
	OpAdd: true,
	OpSub: true,
}

// PrecedenceOf reports the precedence of a binary operator.
func PrecedenceOf(op Operator) (Precedence, bool) {
	p, ok := binaryPrecedence[op]
	return p, ok
}

// BindsTighter reports whether an operator of precedence next, following an
// operand that was preceded by an operator of precedence cur, must take that
// operand first.
func BindsTighter(next, cur Precedence) bool {
	if next.Level != cur.Level {
		return next.Level > cur.Level
	}

	return next.Assoc == RightAssociative
}

func IsComparison(op Operator) bool {
	switch op {
	case OpEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		return true
	}

	return false
}
