package kaleido

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// defineBuiltins declares printf and defines the library functions programs
// may call without an extern. printf itself stays hidden from programs since
// it is variadic.
func defineBuiltins(c *CodeGen) {
	printf := c.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true
	c.reserved["printf"] = true

	defineBuiltinFunc(c, "printd", builtinPrintd(printf))
	defineBuiltinFunc(c, "putchard", builtinPutchard(printf))
}

type funcDefinition = func(mod *ir.Module) *ir.Func

func defineBuiltinFunc(c *CodeGen, name string, definition funcDefinition) {
	f := definition(c.mod)
	f.SetName(name)
	c.funcs[name] = f
}

// builtinPrintd prints its argument as a decimal followed by a newline.
func builtinPrintd(printf *ir.Func) funcDefinition {
	return func(mod *ir.Module) *ir.Func {
		f := mod.NewFunc("", types.Double, ir.NewParam("x", types.Double))
		b := f.NewBlock("")

		b.NewCall(printf, formatString(mod, ".fmt.printd", "%f\n"), f.Params[0])
		b.NewRet(constant.NewFloat(types.Double, 0))

		return f
	}
}

// builtinPutchard prints the character whose code is its argument.
func builtinPutchard(printf *ir.Func) funcDefinition {
	return func(mod *ir.Module) *ir.Func {
		f := mod.NewFunc("", types.Double, ir.NewParam("x", types.Double))
		b := f.NewBlock("")

		ch := b.NewFPToSI(f.Params[0], types.I32)
		b.NewCall(printf, formatString(mod, ".fmt.putchard", "%c"), ch)
		b.NewRet(constant.NewFloat(types.Double, 0))

		return f
	}
}

func formatString(mod *ir.Module, name, format string) constant.Constant {
	zero := constant.NewInt(types.I64, 0)

	arr := constant.NewCharArrayFromString(format + "\x00")
	glob := mod.NewGlobalDef(name, arr)
	glob.Immutable = true

	return constant.NewGetElementPtr(arr.Typ, glob, zero, zero)
}
