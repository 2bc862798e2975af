package kaleido

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
# Computes a few values and prints them
extern sin(x);
def square(x) x * x;
def hyp(a b) (square(a) + square(b)) ^ 0.5;
printd(hyp(3, 4));
putchard(10);
sin(1.5) < 1
`

func TestCompileFromReader(t *testing.T) {
	res, err := NewCompiler().CompileFromReader("program.k", strings.NewReader(program))
	require.NoError(t, err)
	require.False(t, res.Failed(), res.Errors)

	for _, name := range []string{"sin", "square", "hyp", "__anon_expr0", "__anon_expr1", "__anon_expr2"} {
		assert.True(t, hasFunc(res.Module, name), name)
	}

	assert.Contains(t, res.Module.String(), "define double @hyp(double %a, double %b)")
}

func TestCompileStopsAtFirstError(t *testing.T) {
	src := "def f(x) y; def g(x) x; g(1, 2); def h() 1"

	res, err := NewCompiler().CompileFromReader("bad.k", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assertCodeGenError(t, res.Errors[0], UndefinedName, "y")
	assert.False(t, hasFunc(res.Module, "g"))
}

func TestCompileContinueOnError(t *testing.T) {
	src := "def f(x) y; def g(x) x; g(1, 2); def (; def h() 1"

	c := NewCompiler()
	c.ContinueOnError = true

	res, err := c.CompileFromReader("bad.k", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, res.Errors, 3)

	assertCodeGenError(t, res.Errors[0], UndefinedName, "y")
	assertCodeGenError(t, res.Errors[1], ArityMismatch, "g")

	var parseErr *ParseError
	assert.ErrorAs(t, res.Errors[2], &parseErr)

	for _, err := range res.Errors {
		var compileErr CompileError
		require.ErrorAs(t, err, &compileErr)
		assert.True(t, compileErr.Position().IsValid(), err.Error())
	}

	assert.False(t, hasFunc(res.Module, "f"))
	assert.True(t, hasFunc(res.Module, "g"))
	assert.True(t, hasFunc(res.Module, "h"))
}

func TestCompileContinueOnErrorKeepsFollowingItems(t *testing.T) {
	c := NewCompiler()
	c.ContinueOnError = true

	res, err := c.CompileFromReader("bad.k", strings.NewReader("def f(x) x +\ndef g(y) y\ng(1)"))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)

	var parseErr *ParseError
	require.ErrorAs(t, res.Errors[0], &parseErr)
	assert.Equal(t, Position{Line: 2, Column: 1, Offset: 13}, parseErr.Pos)

	assert.False(t, hasFunc(res.Module, "f"))
	assert.True(t, hasFunc(res.Module, "g"))
	assert.True(t, hasFunc(res.Module, "__anon_expr0"))

	s := NewSession()
	funcs, errs := s.Eval("1 + ; 2 + 3; 4")
	assert.Len(t, errs, 1)
	assert.Len(t, funcs, 2)
}

func TestCompile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.k")
	require.NoError(t, os.WriteFile(path, []byte(program), 0o644))

	res, err := NewCompiler().Compile(path)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	_, err = NewCompiler().Compile(filepath.Join(t.TempDir(), "missing.k"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestCompileReadError(t *testing.T) {
	c := NewCompiler()
	c.ContinueOnError = true

	res, err := c.CompileFromReader("broken", failingReader{})
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestSession(t *testing.T) {
	s := NewSession()

	funcs, errs := s.Eval("def double(x) x * 2")
	require.Empty(t, errs)
	require.Len(t, funcs, 1)
	assert.Equal(t, "double", funcs[0].Name())

	funcs, errs = s.Eval("double(21); nope(1); double(1)")
	require.Len(t, errs, 1)
	assertCodeGenError(t, errs[0], UndefinedFunction, "nope")
	assert.Len(t, funcs, 2)

	assert.True(t, hasFunc(s.Module(), "double"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	defer SetLogger(nil)

	_, err := NewCompiler().CompileFromReader("log.k", strings.NewReader("def f(x) x"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "compiling log.k")
	assert.Contains(t, buf.String(), "parsed function f")
	assert.Contains(t, buf.String(), "defined f")
}
