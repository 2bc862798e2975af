package kaleido

import (
	"fmt"
	"math"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

const anonPrefix = "__anon_expr"

// CodeGen lowers top-level items into a single LLVM module. Integers are i64
// and floats are double; an operation mixing the two promotes the integer
// side. Named functions take and return doubles.
type CodeGen struct {
	mod      *ir.Module
	block    *ir.Block
	scope    *Scope
	funcs    map[string]*ir.Func
	reserved map[string]bool
	anon     int
	pow      *ir.Func
}

func NewCodeGen() *CodeGen {
	c := &CodeGen{
		mod:      ir.NewModule(),
		scope:    NewScope(),
		funcs:    make(map[string]*ir.Func),
		reserved: make(map[string]bool),
	}

	defineBuiltins(c)
	return c
}

func (c *CodeGen) Module() *ir.Module {
	return c.mod
}

// Function returns the function registered under name, if any.
func (c *CodeGen) Function(name string) (*ir.Func, bool) {
	f, ok := c.funcs[name]
	return f, ok
}

// Generate lowers one top-level item and returns the function it declared or
// defined. A function whose body fails to generate leaves no trace in the
// module.
func (c *CodeGen) Generate(n Node) (value.Value, error) {
	if n == nil {
		return nil, &CodeGenError{Kind: WrongNodeKind, Msg: "nothing to generate"}
	}

	switch n.Kind() {
	case KindFuncDecl:
		decl, err := Narrow[*FuncDecl](n)
		if err != nil {
			return nil, err
		}

		if decl.Proto == nil {
			return nil, missingPrototype(n)
		}

		return asValue(c.function(decl))
	case KindExternDecl:
		decl, err := Narrow[*ExternDecl](n)
		if err != nil {
			return nil, err
		}

		if decl.Proto == nil {
			return nil, missingPrototype(n)
		}

		return asValue(c.declare(decl.Proto))
	case KindPrototype:
		proto, err := Narrow[*Prototype](n)
		if err != nil {
			return nil, err
		}

		if proto == nil {
			return nil, missingPrototype(n)
		}

		return asValue(c.declare(proto))
	}

	return nil, &CodeGenError{
		Kind: WrongNodeKind,
		Msg:  fmt.Sprintf("%s is not a top-level item", n.Kind()),
		Pos:  n.Position(),
	}
}

func missingPrototype(n Node) error {
	return &CodeGenError{
		Kind: WrongNodeKind,
		Msg:  fmt.Sprintf("%s has no prototype", n.Kind()),
	}
}

// asValue keeps a failed lookup from surfacing as a non-nil interface holding
// a nil function.
func asValue(f *ir.Func, err error) (value.Value, error) {
	if err != nil {
		return nil, err
	}

	return f, nil
}

// declare registers proto's signature. Declaring an existing name again is
// allowed as long as the parameter count matches.
func (c *CodeGen) declare(proto *Prototype) (*ir.Func, error) {
	if c.reserved[proto.Name] || strings.HasPrefix(proto.Name, anonPrefix) {
		return nil, &CodeGenError{
			Kind: Redefinition,
			Msg:  fmt.Sprintf("'%s' is a reserved name", proto.Name),
			Name: proto.Name,
			Pos:  proto.Pos,
		}
	}

	names := NewScope()
	params := make([]*ir.Param, len(proto.Params))
	for i, name := range proto.Params {
		if names.Declared(name) {
			return nil, &CodeGenError{
				Kind: Redefinition,
				Msg:  fmt.Sprintf("parameter '%s' of '%s' is declared twice", name, proto.Name),
				Name: name,
				Pos:  proto.Pos,
			}
		}

		params[i] = ir.NewParam(name, types.Double)
		names.Set(name, params[i])
	}

	if f, ok := c.funcs[proto.Name]; ok {
		if len(f.Params) != len(proto.Params) {
			return nil, &CodeGenError{
				Kind: Redefinition,
				Msg: fmt.Sprintf("'%s' redeclared with %d parameters, previously %d",
					proto.Name, len(proto.Params), len(f.Params)),
				Name: proto.Name,
				Pos:  proto.Pos,
			}
		}

		return f, nil
	}

	f := c.mod.NewFunc(proto.Name, types.Double, params...)
	c.funcs[proto.Name] = f

	logf("declared %s/%d", proto.Name, len(params))
	return f, nil
}

func (c *CodeGen) function(decl *FuncDecl) (*ir.Func, error) {
	if decl.IsAnonymous() {
		return c.anonymous(decl)
	}

	name := decl.Proto.Name
	existing, declared := c.funcs[name]
	if declared && len(existing.Blocks) > 0 {
		return nil, &CodeGenError{
			Kind: Redefinition,
			Msg:  fmt.Sprintf("function '%s' is already defined", name),
			Name: name,
			Pos:  decl.Proto.Pos,
		}
	}

	f, err := c.declare(decl.Proto)
	if err != nil {
		return nil, err
	}

	// An earlier extern may have used other parameter names
	for i, param := range f.Params {
		param.SetName(decl.Proto.Params[i])
	}

	if err := c.body(f, decl.Proto.Params, decl.Body, true); err != nil {
		if declared {
			f.Blocks = nil
		} else {
			c.remove(f)
		}

		return nil, err
	}

	logf("defined %s", name)
	return f, nil
}

// anonymous wraps a top-level expression in a fresh parameterless function
// returning whatever kind of value the expression produces.
func (c *CodeGen) anonymous(decl *FuncDecl) (*ir.Func, error) {
	name := fmt.Sprintf("%s%d", anonPrefix, c.anon)
	c.anon++

	f := c.mod.NewFunc(name, types.Double)
	if err := c.body(f, nil, decl.Body, false); err != nil {
		c.remove(f)
		return nil, err
	}

	logf("defined %s", name)
	return f, nil
}

func (c *CodeGen) body(f *ir.Func, params []string, body Expr, named bool) error {
	prevBlock := c.block
	c.block = f.NewBlock("entry")
	c.scope.Push()

	defer func() {
		c.scope.Pop()
		c.block = prevBlock
	}()

	for i, param := range f.Params {
		c.scope.Set(params[i], param)
	}

	v, err := c.recursiveLoad(body)
	if err != nil {
		return err
	}

	if named {
		v = c.toDouble(v)
	} else {
		f.Sig.RetType = v.Type()
	}

	c.block.NewRet(v)
	return nil
}

func (c *CodeGen) remove(f *ir.Func) {
	for i, g := range c.mod.Funcs {
		if g == f {
			c.mod.Funcs = append(c.mod.Funcs[:i], c.mod.Funcs[i+1:]...)
			break
		}
	}

	if c.funcs[f.Name()] == f {
		delete(c.funcs, f.Name())
	}
}

func (c *CodeGen) recursiveLoad(expr Expr) (value.Value, error) {
	if expr == nil {
		return nil, &CodeGenError{Kind: WrongNodeKind, Msg: "missing expression"}
	}

	switch expr.Kind() {
	case KindIntegerLiteral:
		lit, err := Narrow[*IntegerLiteral](expr)
		if err != nil {
			return nil, err
		}

		return constant.NewInt(types.I64, lit.Value), nil
	case KindFloatLiteral:
		lit, err := Narrow[*FloatLiteral](expr)
		if err != nil {
			return nil, err
		}

		return constant.NewFloat(types.Double, lit.Value), nil
	case KindIdentifier:
		id, err := Narrow[*Identifier](expr)
		if err != nil {
			return nil, err
		}

		return c.identifier(id)
	case KindVariableExpr:
		v, err := Narrow[*VariableExpr](expr)
		if err != nil {
			return nil, err
		}

		return c.variableExpr(v)
	case KindUnaryExpr:
		u, err := Narrow[*UnaryExpr](expr)
		if err != nil {
			return nil, err
		}

		return c.unaryExpression(u)
	case KindBinaryExpr:
		b, err := Narrow[*BinaryExpr](expr)
		if err != nil {
			return nil, err
		}

		return c.binaryExpression(b)
	case KindFuncCall:
		call, err := Narrow[*FuncCall](expr)
		if err != nil {
			return nil, err
		}

		return c.functionCall(call)
	}

	return nil, &CodeGenError{
		Kind: WrongNodeKind,
		Msg:  fmt.Sprintf("%s is not an expression", expr.Kind()),
		Pos:  expr.Position(),
	}
}

func (c *CodeGen) identifier(id *Identifier) (value.Value, error) {
	v, ok := c.scope.Get(id.Name)
	if !ok {
		return nil, &CodeGenError{
			Kind: UndefinedName,
			Msg:  fmt.Sprintf("undefined name '%s'", id.Name),
			Name: id.Name,
			Pos:  id.Pos,
		}
	}

	return v, nil
}

// variableExpr evaluates the initializer in the enclosing scope, then the body
// with the new binding visible.
func (c *CodeGen) variableExpr(expr *VariableExpr) (value.Value, error) {
	init, err := c.recursiveLoad(expr.Init)
	if err != nil {
		return nil, err
	}

	c.scope.Push()
	defer c.scope.Pop()

	c.scope.Set(expr.Name, init)
	return c.recursiveLoad(expr.Body)
}

func (c *CodeGen) unaryExpression(expr *UnaryExpr) (value.Value, error) {
	v, err := c.recursiveLoad(expr.Operand)
	if err != nil {
		return nil, err
	}

	switch expr.Operation {
	case OpAdd:
		return v, nil
	case OpSub:
		switch k := v.(type) {
		case *constant.Int:
			return constant.NewInt(types.I64, -k.X.Int64()), nil
		case *constant.Float:
			f, _ := k.X.Float64()
			return constant.NewFloat(types.Double, -f), nil
		}

		if isFloat(v) {
			return c.block.NewFNeg(v), nil
		}

		return c.block.NewSub(constant.NewInt(types.I64, 0), v), nil
	}

	return nil, &CodeGenError{
		Kind: WrongNodeKind,
		Msg:  fmt.Sprintf("'%s' is not a prefix operator", expr.Operation),
		Pos:  expr.Pos,
	}
}

func (c *CodeGen) binaryExpression(expr *BinaryExpr) (value.Value, error) {
	lhs, err := c.recursiveLoad(expr.Op1)
	if err != nil {
		return nil, err
	}

	rhs, err := c.recursiveLoad(expr.Op2)
	if err != nil {
		return nil, err
	}

	if expr.Operation == OpPow {
		return c.power(lhs, rhs), nil
	}

	if _, ok := PrecedenceOf(expr.Operation); !ok {
		return nil, &CodeGenError{
			Kind: WrongNodeKind,
			Msg:  fmt.Sprintf("'%s' is not a binary operator", expr.Operation),
			Pos:  expr.Pos,
		}
	}

	float := isFloat(lhs) || isFloat(rhs)
	if float {
		lhs, rhs = c.toDouble(lhs), c.toDouble(rhs)
	}

	if v, ok := fold(expr.Operation, lhs, rhs); ok {
		return v, nil
	}

	if IsComparison(expr.Operation) {
		return c.compare(expr.Operation, lhs, rhs, float), nil
	}

	switch expr.Operation {
	case OpAdd:
		if float {
			return c.block.NewFAdd(lhs, rhs), nil
		}

		return c.block.NewAdd(lhs, rhs), nil
	case OpSub:
		if float {
			return c.block.NewFSub(lhs, rhs), nil
		}

		return c.block.NewSub(lhs, rhs), nil
	case OpMul:
		if float {
			return c.block.NewFMul(lhs, rhs), nil
		}

		return c.block.NewMul(lhs, rhs), nil
	default: // OpDiv
		if float {
			return c.block.NewFDiv(lhs, rhs), nil
		}

		return c.block.NewSDiv(lhs, rhs), nil
	}
}

var (
	intPredicates = map[Operator]enum.IPred{
		OpLess:         enum.IPredSLT,
		OpGreater:      enum.IPredSGT,
		OpLessEqual:    enum.IPredSLE,
		OpGreaterEqual: enum.IPredSGE,
		OpEqual:        enum.IPredEQ,
	}

	floatPredicates = map[Operator]enum.FPred{
		OpLess:         enum.FPredOLT,
		OpGreater:      enum.FPredOGT,
		OpLessEqual:    enum.FPredOLE,
		OpGreaterEqual: enum.FPredOGE,
		OpEqual:        enum.FPredOEQ,
	}
)

// compare yields 1 or 0 as an i64 so the result can feed further arithmetic.
func (c *CodeGen) compare(op Operator, lhs, rhs value.Value, float bool) value.Value {
	var cmp value.Value
	if float {
		cmp = c.block.NewFCmp(floatPredicates[op], lhs, rhs)
	} else {
		cmp = c.block.NewICmp(intPredicates[op], lhs, rhs)
	}

	return c.block.NewZExt(cmp, types.I64)
}

// power computes lhs^rhs in double precision.
func (c *CodeGen) power(lhs, rhs value.Value) value.Value {
	x, y := c.toDouble(lhs), c.toDouble(rhs)

	if a, ok := x.(*constant.Float); ok {
		if b, ok := y.(*constant.Float); ok {
			af, _ := a.X.Float64()
			bf, _ := b.X.Float64()
			if r := math.Pow(af, bf); !math.IsInf(r, 0) && !math.IsNaN(r) {
				return constant.NewFloat(types.Double, r)
			}
		}
	}

	if c.pow == nil {
		c.pow = c.mod.NewFunc("llvm.pow.f64", types.Double,
			ir.NewParam("x", types.Double), ir.NewParam("y", types.Double))
	}

	return c.block.NewCall(c.pow, x, y)
}

func (c *CodeGen) functionCall(call *FuncCall) (value.Value, error) {
	f, ok := c.funcs[call.Name]
	if !ok {
		return nil, &CodeGenError{
			Kind: UndefinedFunction,
			Msg:  fmt.Sprintf("undefined function '%s'", call.Name),
			Name: call.Name,
			Pos:  call.Pos,
		}
	}

	if len(call.Args) != len(f.Params) {
		return nil, &CodeGenError{
			Kind: ArityMismatch,
			Msg: fmt.Sprintf("'%s' takes %d arguments, %d given",
				call.Name, len(f.Params), len(call.Args)),
			Name: call.Name,
			Pos:  call.Pos,
		}
	}

	args := make([]value.Value, 0, len(call.Args))
	for _, arg := range call.Args {
		v, err := c.recursiveLoad(arg)
		if err != nil {
			return nil, err
		}

		args = append(args, c.toDouble(v))
	}

	return c.block.NewCall(f, args...), nil
}

func (c *CodeGen) toDouble(v value.Value) value.Value {
	if isFloat(v) {
		return v
	}

	if k, ok := v.(*constant.Int); ok {
		return constant.NewFloat(types.Double, float64(k.X.Int64()))
	}

	return c.block.NewSIToFP(v, types.Double)
}

func isFloat(v value.Value) bool {
	_, ok := v.Type().(*types.FloatType)
	return ok
}

// fold evaluates op when both operands are constants of the same kind.
// Division by a constant zero is left to run time.
func fold(op Operator, lhs, rhs value.Value) (value.Value, bool) {
	switch x := lhs.(type) {
	case *constant.Int:
		y, ok := rhs.(*constant.Int)
		if !ok {
			return nil, false
		}

		a, b := x.X.Int64(), y.X.Int64()
		switch op {
		case OpAdd:
			return constant.NewInt(types.I64, a+b), true
		case OpSub:
			return constant.NewInt(types.I64, a-b), true
		case OpMul:
			return constant.NewInt(types.I64, a*b), true
		case OpDiv:
			if b == 0 || (a == math.MinInt64 && b == -1) {
				return nil, false
			}

			return constant.NewInt(types.I64, a/b), true
		}

		return foldComparison(op, compareOrdered(a, b))
	case *constant.Float:
		y, ok := rhs.(*constant.Float)
		if !ok {
			return nil, false
		}

		a, _ := x.X.Float64()
		b, _ := y.X.Float64()

		var r float64
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv:
			if b == 0 {
				return nil, false
			}

			r = a / b
		default:
			return foldComparison(op, compareOrdered(a, b))
		}

		// Overflowed results are left to run time
		if math.IsInf(r, 0) || math.IsNaN(r) {
			return nil, false
		}

		return constant.NewFloat(types.Double, r), true
	}

	return nil, false
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

func foldComparison(op Operator, order int) (value.Value, bool) {
	var r bool
	switch op {
	case OpLess:
		r = order < 0
	case OpGreater:
		r = order > 0
	case OpLessEqual:
		r = order <= 0
	case OpGreaterEqual:
		r = order >= 0
	case OpEqual:
		r = order == 0
	default:
		return nil, false
	}

	if r {
		return constant.NewInt(types.I64, 1), true
	}

	return constant.NewInt(types.I64, 0), true
}
