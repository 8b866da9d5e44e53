package clitool_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/cljcore/cljc/internal/clitool"
	"github.com/cljcore/cljc/internal/filetest"
)

func TestReadFiles(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".cljc") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

			_ = clitool.ReadFiles(ctx, stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, out.String(), resultDir, boolPtr(false))
			filetest.DiffErrors(t, fi, errOut.String(), resultDir, boolPtr(false))
		})
	}
}

func boolPtr(b bool) *bool { return &b }
