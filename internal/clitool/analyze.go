package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
)

// Analyze reads each file, analyzes every top-level form against a fresh
// environment, and prints each resulting node's kind and position.
func (c *Cmd) Analyze(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return AnalyzeFiles(ctx, stdio, args...)
}

func AnalyzeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, path := range files {
		src, err := readFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		r := reader.New(src, reader.DefaultPolicy())
		forms, rerr := r.ReadAll()
		if rerr != nil {
			reader.PrintError(stdio.Stderr, rerr)
			firstErr = rerr
			continue
		}

		e := env.NewEnv()
		a := analyzer.New(e, e.CurrentNamespace())
		for _, f := range forms {
			n := a.Analyze(f)
			fmt.Fprintf(stdio.Stdout, "%s: kind=%d\n", n.Pos, n.Kind)
		}
		for _, aerr := range a.Errors() {
			fmt.Fprintf(stdio.Stderr, "%s\n", aerr)
			firstErr = aerr
		}
	}
	return firstErr
}
