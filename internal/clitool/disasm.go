package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/lang/persist"
)

// Disasm compiles each file and prints a structured YAML dump of the
// resulting chunk and the environment it was analyzed against, the
// non-bytecode counterpart to Compile's pseudo-assembly listing.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFiles(ctx, stdio, args...)
}

func DisasmFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, path := range files {
		chunk, e, err := compileFile(stdio, path)
		if err != nil {
			firstErr = err
			continue
		}

		chunkYAML, err := persist.DumpChunkYAML(chunk)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s", chunkYAML)

		envYAML, err := persist.DumpEnvYAML(e)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s", envYAML)
	}
	return firstErr
}
