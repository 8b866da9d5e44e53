package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
)

// Compile reads, analyzes and compiles each file, printing the resulting
// chunk's pseudo-assembly disassembly.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(ctx, stdio, args...)
}

func CompileFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, path := range files {
		chunk, _, err := compileFile(stdio, path)
		if err != nil {
			firstErr = err
			continue
		}
		fmt.Fprint(stdio.Stdout, compiler.Disassemble(chunk))
	}
	return firstErr
}

// compileFile reads, analyzes and compiles a single file into a Chunk,
// returning the environment it was analyzed against (needed by run/disasm
// to evaluate or dump the same namespace state the compile step produced),
// and reporting any reader/analyzer/compiler error to stderr.
func compileFile(stdio mainer.Stdio, path string) (*compiler.Chunk, *env.Env, error) {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return nil, nil, err
	}

	r := reader.New(src, reader.DefaultPolicy())
	forms, rerr := r.ReadAll()
	if rerr != nil {
		reader.PrintError(stdio.Stderr, rerr)
		return nil, nil, rerr
	}

	e := env.NewEnv()
	ns := e.CurrentNamespace()
	reg := corelib.NewRegistry()
	if _, cerr := corelib.Chain(ns, reg, corelib.DefaultLoader); cerr != nil {
		fmt.Fprintf(stdio.Stderr, "%s: loading builtins: %s\n", path, cerr)
		return nil, nil, cerr
	}
	corelib.Install(ns, reg)

	a := analyzer.New(e, ns)
	nodes := make([]*analyzer.Node, len(forms))
	for i, f := range forms {
		nodes[i] = a.Analyze(f)
	}
	if errs := a.Errors(); len(errs) > 0 {
		for _, aerr := range errs {
			fmt.Fprintf(stdio.Stderr, "%s\n", aerr)
		}
		return nil, nil, errs[0]
	}

	chunk, cerr := compiler.Compile(path, nodes)
	if cerr != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, cerr)
		return nil, nil, cerr
	}
	return chunk, e, nil
}
