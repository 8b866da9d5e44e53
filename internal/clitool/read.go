package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/lang/reader"
)

// Read reads each file and prints every top-level form it contains.
func (c *Cmd) Read(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ReadFiles(ctx, stdio, args...)
}

func ReadFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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
		for _, f := range forms {
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", f.Pos, f.String())
		}
		if rerr != nil {
			reader.PrintError(stdio.Stderr, rerr)
			firstErr = rerr
		}
	}
	return firstErr
}
