package kaleido

import "fmt"

type AST struct {
	Items []Node
}

type NodeKind int

const (
	KindIntegerLiteral NodeKind = iota + 1
	KindFloatLiteral
	KindIdentifier
	KindVariableExpr
	KindUnaryExpr
	KindBinaryExpr
	KindFuncCall
	KindPrototype
	KindExternDecl
	KindFuncDecl
)

var nodeKindNames = map[NodeKind]string{
	KindIntegerLiteral: "IntegerLiteral",
	KindFloatLiteral:   "FloatLiteral",
	KindIdentifier:     "Identifier",
	KindVariableExpr:   "VariableExpr",
	KindUnaryExpr:      "UnaryExpr",
	KindBinaryExpr:     "BinaryExpr",
	KindFuncCall:       "FuncCall",
	KindPrototype:      "Prototype",
	KindExternDecl:     "ExternDecl",
	KindFuncDecl:       "FuncDecl",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is implemented by the closed set of tree nodes below. Kind returns a
// per-type constant and never dereferences its receiver.
type Node interface {
	Kind() NodeKind
	Position() Position
	Accept(v Visitor) error
	String() string
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

type Visitor interface {
	VisitIntegerLiteral(n *IntegerLiteral) error
	VisitFloatLiteral(n *FloatLiteral) error
	VisitIdentifier(n *Identifier) error
	VisitVariableExpr(n *VariableExpr) error
	VisitUnaryExpr(n *UnaryExpr) error
	VisitBinaryExpr(n *BinaryExpr) error
	VisitFuncCall(n *FuncCall) error
	VisitPrototype(n *Prototype) error
	VisitExternDecl(n *ExternDecl) error
	VisitFuncDecl(n *FuncDecl) error
}

type IntegerLiteral struct {
	Value int64
	Pos   Position
}

type FloatLiteral struct {
	Value float64
	Pos   Position
}

type Identifier struct {
	Name string
	Pos  Position
}

// VariableExpr binds Name to Init for the evaluation of Body only.
type VariableExpr struct {
	Name string
	Init Expr
	Body Expr
	Pos  Position
}

type UnaryExpr struct {
	Operation Operator
	Operand   Expr
	Pos       Position
}

type BinaryExpr struct {
	Operation Operator
	Op1       Expr
	Op2       Expr
	Pos       Position
}

type FuncCall struct {
	Name string
	Args []Expr
	Pos  Position
}

type Prototype struct {
	Name   string
	Params []string
	Pos    Position
}

type ExternDecl struct {
	Proto *Prototype
	Pos   Position
}

// FuncDecl is a function definition. Top-level expressions are wrapped in a
// FuncDecl whose prototype has no name and no parameters.
type FuncDecl struct {
	Proto *Prototype
	Body  Expr
	Pos   Position
}

func (f *FuncDecl) IsAnonymous() bool {
	return f.Proto.Name == ""
}

func (*IntegerLiteral) Kind() NodeKind { return KindIntegerLiteral }
func (*FloatLiteral) Kind() NodeKind   { return KindFloatLiteral }
func (*Identifier) Kind() NodeKind     { return KindIdentifier }
func (*VariableExpr) Kind() NodeKind   { return KindVariableExpr }
func (*UnaryExpr) Kind() NodeKind      { return KindUnaryExpr }
func (*BinaryExpr) Kind() NodeKind     { return KindBinaryExpr }
func (*FuncCall) Kind() NodeKind       { return KindFuncCall }
func (*Prototype) Kind() NodeKind      { return KindPrototype }
func (*ExternDecl) Kind() NodeKind     { return KindExternDecl }
func (*FuncDecl) Kind() NodeKind       { return KindFuncDecl }

func (n *IntegerLiteral) Position() Position { return n.Pos }
func (n *FloatLiteral) Position() Position   { return n.Pos }
func (n *Identifier) Position() Position     { return n.Pos }
func (n *VariableExpr) Position() Position   { return n.Pos }
func (n *UnaryExpr) Position() Position      { return n.Pos }
func (n *BinaryExpr) Position() Position     { return n.Pos }
func (n *FuncCall) Position() Position       { return n.Pos }
func (n *Prototype) Position() Position      { return n.Pos }
func (n *ExternDecl) Position() Position     { return n.Pos }
func (n *FuncDecl) Position() Position       { return n.Pos }

func (n *IntegerLiteral) Accept(v Visitor) error { return v.VisitIntegerLiteral(n) }
func (n *FloatLiteral) Accept(v Visitor) error   { return v.VisitFloatLiteral(n) }
func (n *Identifier) Accept(v Visitor) error     { return v.VisitIdentifier(n) }
func (n *VariableExpr) Accept(v Visitor) error   { return v.VisitVariableExpr(n) }
func (n *UnaryExpr) Accept(v Visitor) error      { return v.VisitUnaryExpr(n) }
func (n *BinaryExpr) Accept(v Visitor) error     { return v.VisitBinaryExpr(n) }
func (n *FuncCall) Accept(v Visitor) error       { return v.VisitFuncCall(n) }
func (n *Prototype) Accept(v Visitor) error      { return v.VisitPrototype(n) }
func (n *ExternDecl) Accept(v Visitor) error     { return v.VisitExternDecl(n) }
func (n *FuncDecl) Accept(v Visitor) error       { return v.VisitFuncDecl(n) }

func (n *IntegerLiteral) String() string { return Print(n) }
func (n *FloatLiteral) String() string   { return Print(n) }
func (n *Identifier) String() string     { return Print(n) }
func (n *VariableExpr) String() string   { return Print(n) }
func (n *UnaryExpr) String() string      { return Print(n) }
func (n *BinaryExpr) String() string     { return Print(n) }
func (n *FuncCall) String() string       { return Print(n) }
func (n *Prototype) String() string      { return Print(n) }
func (n *ExternDecl) String() string     { return Print(n) }
func (n *FuncDecl) String() string       { return Print(n) }

func (*IntegerLiteral) exprNode() {}
func (*FloatLiteral) exprNode()   {}
func (*Identifier) exprNode()     {}
func (*VariableExpr) exprNode()   {}
func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*FuncCall) exprNode()       {}

// Narrow converts n to the concrete node type T after checking n's kind tag
// against T's. T must be one of the pointer node types above. A mismatch is
// reported as a WrongNodeKind error.
func Narrow[T Node](n Node) (T, error) {
	var zero T
	want := zero.Kind()

	if n == nil {
		return zero, &CodeGenError{
			Kind: WrongNodeKind,
			Msg:  fmt.Sprintf("expected %s node, found nothing", want),
		}
	}

	if got := n.Kind(); got != want {
		return zero, &CodeGenError{
			Kind: WrongNodeKind,
			Msg:  fmt.Sprintf("expected %s node, found %s", want, got),
			Pos:  n.Position(),
		}
	}

	t, ok := n.(T)
	if !ok {
		return zero, &CodeGenError{
			Kind: WrongNodeKind,
			Msg:  fmt.Sprintf("node tagged %s has type %T", want, n),
			Pos:  n.Position(),
		}
	}

	return t, nil
}

// MustNarrow is Narrow for callers that treat a mismatch as a bug.
func MustNarrow[T Node](n Node) T {
	t, err := Narrow[T](n)
	if err != nil {
		panic(err)
	}

	return t
}
