package kaleido

import (
	"strconv"
	"strings"
)

// Printer renders nodes back into source text. Binary expressions are fully
// parenthesized, so parsing the output yields the same tree.
type Printer struct {
	sb strings.Builder
}

func Print(n Node) string {
	var p Printer
	_ = n.Accept(&p)

	return p.sb.String()
}

// PrintAST renders every item, separating them with semicolons.
func PrintAST(ast *AST) string {
	items := make([]string, 0, len(ast.Items))
	for _, item := range ast.Items {
		items = append(items, Print(item))
	}

	return strings.Join(items, ";\n")
}

func (p *Printer) VisitIntegerLiteral(n *IntegerLiteral) error {
	p.sb.WriteString(strconv.FormatInt(n.Value, 10))
	return nil
}

func (p *Printer) VisitFloatLiteral(n *FloatLiteral) error {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	p.sb.WriteString(s)
	return nil
}

func (p *Printer) VisitIdentifier(n *Identifier) error {
	p.sb.WriteString(n.Name)
	return nil
}

func (p *Printer) VisitVariableExpr(n *VariableExpr) error {
	p.sb.WriteString("(var ")
	p.sb.WriteString(n.Name)
	p.sb.WriteString(" = ")
	_ = n.Init.Accept(p)
	p.sb.WriteString(" in ")
	_ = n.Body.Accept(p)
	p.sb.WriteString(")")

	return nil
}

func (p *Printer) VisitUnaryExpr(n *UnaryExpr) error {
	p.sb.WriteString(string(n.Operation))
	return n.Operand.Accept(p)
}

func (p *Printer) VisitBinaryExpr(n *BinaryExpr) error {
	p.sb.WriteString("(")
	_ = n.Op1.Accept(p)
	p.sb.WriteString(" ")
	p.sb.WriteString(string(n.Operation))
	p.sb.WriteString(" ")
	_ = n.Op2.Accept(p)
	p.sb.WriteString(")")

	return nil
}

func (p *Printer) VisitFuncCall(n *FuncCall) error {
	p.sb.WriteString(n.Name)
	p.sb.WriteString("(")
	for i, arg := range n.Args {
		if i > 0 {
			p.sb.WriteString(", ")
		}

		_ = arg.Accept(p)
	}
	p.sb.WriteString(")")

	return nil
}

func (p *Printer) VisitPrototype(n *Prototype) error {
	p.sb.WriteString(n.Name)
	p.sb.WriteString("(")
	p.sb.WriteString(strings.Join(n.Params, " "))
	p.sb.WriteString(")")

	return nil
}

func (p *Printer) VisitExternDecl(n *ExternDecl) error {
	p.sb.WriteString("extern ")
	return n.Proto.Accept(p)
}

func (p *Printer) VisitFuncDecl(n *FuncDecl) error {
	if n.IsAnonymous() {
		return n.Body.Accept(p)
	}

	p.sb.WriteString("def ")
	_ = n.Proto.Accept(p)
	p.sb.WriteString(" ")

	return n.Body.Accept(p)
}
