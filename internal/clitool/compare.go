package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/lang/treewalk"
	"github.com/cljcore/cljc/lang/value"
)

// Compare runs each file through both the virtual machine and the
// tree-walk oracle (lang/treewalk.Compare) and reports the first
// divergence, if any, exercisingthe compare mode from the CLI.
func (c *Cmd) Compare(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompareFiles(ctx, stdio, args...)
}

func CompareFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, path := range files {
		src, err := readFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}

		results, cerr := treewalk.Compare(src)
		if div, ok := cerr.(*treewalk.Divergence); ok {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, div)
			firstErr = div
			continue
		}
		if cerr != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, cerr)
			firstErr = cerr
			continue
		}

		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(stdio.Stdout, "%s: error: %s\n", path, r.Err)
				continue
			}
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", path, value.Print(r.Value))
		}
	}
	return firstErr
}
