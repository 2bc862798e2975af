package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"go.kaleido.dev/pkg"
)

const (
	appName     = "kaleido"
	historyFile = ".kaleido_history"
	promptMain  = "ready> "
	promptCont  = "...... "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "tokens":
		os.Exit(cmdTokens(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  %[1]s build [-o out.ll] [-keep-going] [-v] file
  %[1]s tokens file
  %[1]s repl
`, appName)
}

func cmdBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	out := fs.String("o", "", "write the IR to this file instead of stdout")
	keepGoing := fs.Bool("keep-going", false, "report every error instead of stopping at the first")
	verbose := fs.Bool("v", false, "log compiler events to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		usage()
		return 2
	}

	if *verbose {
		kaleido.SetLogger(log.New(os.Stderr, appName+": ", 0))
	}

	c := kaleido.NewCompiler()
	c.ContinueOnError = *keepGoing

	filename := fs.Arg(0)
	res, err := c.Compile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	if res.Failed() {
		printErrors(filename, res.Errors)
		return 1
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		defer f.Close()

		w = f
	}

	if _, err := fmt.Fprint(w, res.Module); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	return 0
}

func cmdTokens(args []string) int {
	if len(args) != 1 {
		usage()
		return 2
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer f.Close()

	toks, err := kaleido.NewLexerFromReader(f).All()
	if err != nil {
		printErrors(args[0], []error{err})
		return 1
	}

	if toks == nil {
		toks = []kaleido.Token{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toks); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	return 0
}

func cmdRepl(_ []string) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := kaleido.NewSession()
	for {
		src, ok := readItem(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		if strings.TrimSpace(src) == "" {
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		funcs, errs := session.Eval(src)
		for _, f := range funcs {
			fmt.Println(f.LLString())
		}

		printErrors("<stdin>", errs)
	}
}

// readItem keeps prompting while the input so far only fails for lack of
// more input.
func readItem(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}

		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		_, perr := kaleido.NewParserFromReader(strings.NewReader(b.String())).Run()

		var parseErr *kaleido.ParseError
		if errors.As(perr, &parseErr) && parseErr.Kind == kaleido.UnexpectedEndOfInput {
			continue
		}

		return b.String(), true
	}
}

func printErrors(filename string, errs []error) {
	for _, err := range errs {
		var lexErr *kaleido.LexError
		var parseErr *kaleido.ParseError
		var cgErr *kaleido.CodeGenError

		switch {
		case errors.As(err, &lexErr):
			fmt.Fprintf(os.Stderr, "%s:%s: %s: %s\n", filename, lexErr.Pos, lexErr.Kind, lexErr.Msg)
		case errors.As(err, &parseErr):
			fmt.Fprintf(os.Stderr, "%s:%s: %s: %s\n", filename, parseErr.Pos, parseErr.Kind, parseErr.Msg)
		case errors.As(err, &cgErr) && kaleido.IsInternal(err):
			fmt.Fprintf(os.Stderr, "%s:%s: internal compiler error: %s\n", filename, cgErr.Pos, cgErr.Msg)
		case errors.As(err, &cgErr):
			fmt.Fprintf(os.Stderr, "%s:%s: %s: %s\n", filename, cgErr.Pos, cgErr.Kind, cgErr.Msg)
		default:
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
		}
	}
}
