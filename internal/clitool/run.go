package clitool

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/internal/config"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
)

// Run compiles each file and runs it on a fresh virtual-machine thread,
// printing the value the last top-level form evaluated to.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "loading configuration: %s\n", err)
		return err
	}
	if c.MaxSteps != 0 {
		cfg.MaxSteps = c.MaxSteps
	}
	return RunFiles(ctx, stdio, cfg, args...)
}

func RunFiles(ctx context.Context, stdio mainer.Stdio, cfg config.VM, files ...string) error {
	var firstErr error
	for _, path := range files {
		chunk, e, err := compileFile(stdio, path)
		if err != nil {
			firstErr = err
			continue
		}

		th := vm.NewThread(e, cfg.NewCollector())
		th.MaxFrames = cfg.FrameStackCapacity
		th.MaxSteps = cfg.MaxSteps
		result, rerr := th.Run(chunk)
		if rerr != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, rerr)
			firstErr = rerr
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s\n", value.Print(result))
	}
	return firstErr
}
