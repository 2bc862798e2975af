package kaleido

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/llir/llvm/ir"
)

type Compiler struct {
	// ContinueOnError makes the compiler skip a failed item and carry on with
	// the next one, collecting every error. By default it stops at the first.
	ContinueOnError bool
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Result holds the module built from a source along with every error met
// while building it. The module is only complete when Errors is empty.
type Result struct {
	Module *ir.Module
	Errors []error
}

func (r *Result) Failed() bool {
	return len(r.Errors) != 0
}

func (c *Compiler) Compile(filename string) (*Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.CompileFromReader(filename, f)
}

// CompileFromReader compiles a whole source. Problems with the program end
// up in the Result; the returned error is reserved for failures to read the
// source.
func (c *Compiler) CompileFromReader(name string, reader io.Reader) (*Result, error) {
	logf("compiling %s", name)

	gen := NewCodeGen()
	_, errs, err := compileItems(NewParserFromReader(reader), gen, c.ContinueOnError)
	if err != nil {
		return nil, err
	}

	logf("compiled %s with %d error(s)", name, len(errs))
	return &Result{Module: gen.Module(), Errors: errs}, nil
}

// compileItems feeds every item from p to gen. It returns the functions that
// were generated, the program errors, and any error reading the source.
func compileItems(p *Parser, gen *CodeGen, keepGoing bool) ([]*ir.Func, []error, error) {
	var funcs []*ir.Func
	var errs []error

	for {
		item, err := p.Next()
		if errors.Is(err, io.EOF) {
			return funcs, errs, nil
		}

		if err != nil {
			var compileErr CompileError
			if !errors.As(err, &compileErr) {
				return funcs, errs, err
			}

			errs = append(errs, err)
			if !keepGoing {
				return funcs, errs, nil
			}

			p.Synchronize()
			continue
		}

		v, err := gen.Generate(item)
		if err != nil {
			errs = append(errs, err)
			if !keepGoing || IsInternal(err) {
				return funcs, errs, nil
			}

			continue
		}

		if f, ok := v.(*ir.Func); ok {
			funcs = append(funcs, f)
		}
	}
}

// Session compiles source fragments one after another into the same module,
// so later fragments can call functions defined by earlier ones.
type Session struct {
	gen *CodeGen
}

func NewSession() *Session {
	return &Session{gen: NewCodeGen()}
}

func (s *Session) Module() *ir.Module {
	return s.gen.Module()
}

// Eval compiles every item in src. Failed items are skipped and reported;
// the rest still land in the module.
func (s *Session) Eval(src string) ([]*ir.Func, []error) {
	funcs, errs, err := compileItems(NewParserFromReader(strings.NewReader(src)), s.gen, true)
	if err != nil {
		errs = append(errs, err)
	}

	return funcs, errs
}
