package treewalk

import (
	"fmt"

	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/gc"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
)

// Divergence reports a compare-mode mismatch between the two backends for
// one input form, carrying both results and the input form.
type Divergence struct {
	Form           string
	TreeWalkResult value.Value
	TreeWalkErr    error
	VMResult       value.Value
	VMErr          error
	Reason         string
}

func (d *Divergence) Error() string {
	return fmt.Sprintf("compare mode divergence on %s: %s", d.Form, d.Reason)
}

// CompareResult is one form's shared outcome once both backends have agreed
// on it.
type CompareResult struct {
	Value value.Value
	Err   error
}

// Compare reads every form in src, analyzes each one independently for the
// tree-walk evaluator and for the VM, and evaluates it by both backends
// against a fresh pair of isolated environments. Each backend gets its own
// Analyzer (rather than one shared analysis reused by both) because the two
// environments are isolated: a def in one must not leak namespace state
// into the other's resolution. It stops at the first divergence and
// returns it; on full agreement it returns every form's result in source
// order.
func Compare(src []byte) ([]CompareResult, error) {
	r := reader.New(src, reader.DefaultPolicy())
	forms, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	twEnv := env.NewEnv()
	vmEnv := env.NewEnv()
	if err := installCorelibBoth(twEnv, vmEnv); err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	twAnalyzer := analyzer.New(twEnv, twEnv.CurrentNamespace())
	vmAnalyzer := analyzer.New(vmEnv, vmEnv.CurrentNamespace())
	twEval := NewEvaluator(twEnv)
	arena := gc.NewArena()

	var results []CompareResult
	for _, f := range forms {
		twNode := twAnalyzer.Analyze(f)
		vmNode := vmAnalyzer.Analyze(f)

		twVal, twErr := twEval.Eval(twNode)

		chunk, cerr := compiler.Compile("compare", []*analyzer.Node{vmNode})
		if cerr != nil {
			return results, fmt.Errorf("compare: compiling %s: %w", f.String(), cerr)
		}
		th := vm.NewThread(vmEnv, arena)
		vmVal, vmErr := th.Run(chunk)

		if reason, mismatched := diverges(twVal, twErr, vmVal, vmErr); mismatched {
			return results, &Divergence{
				Form:           f.String(),
				TreeWalkResult: twVal,
				TreeWalkErr:    twErr,
				VMResult:       vmVal,
				VMErr:          vmErr,
				Reason:         reason,
			}
		}
		results = append(results, CompareResult{Value: twVal, Err: twErr})
	}
	return results, nil
}

// diverges reports whether the two backends' outcomes for one form
// disagree. Both backends failing counts as agreement whatever either error
// says, since the two implementations are free to describe a runtime
// failure in their own words; the errors themselves are not compared. Two
// results agree when value.Equal holds or when they print the same: a var,
// multimethod or other reference value is allocated separately in each
// isolated environment, and Equal compares those by identity.
func diverges(twVal value.Value, twErr error, vmVal value.Value, vmErr error) (string, bool) {
	if (twErr == nil) != (vmErr == nil) {
		return fmt.Sprintf("tree-walk err=%v, vm err=%v", twErr, vmErr), true
	}
	if twErr != nil {
		return "", false
	}
	if !value.Equal(twVal, vmVal) && value.Print(twVal) != value.Print(vmVal) {
		return fmt.Sprintf("tree-walk result=%s, vm result=%s", value.Print(twVal), value.Print(vmVal)), true
	}
	return "", false
}

// installCorelibBoth loads internal/corelib's DefaultLoader into twEnv and
// vmEnv's current namespaces, each through its own Registry so neither
// backend's installed vars alias the other's. Without this, any call shape
// the compiler and the tree-walk evaluator don't fuse directly to a
// dedicated opcode (three-or-more-argument +, a standalone comparison, mod,
// rem, not=, ...) resolves to nothing in either backend.
func installCorelibBoth(twEnv, vmEnv *env.Env) error {
	twReg := corelib.NewRegistry()
	if _, err := corelib.Chain(twEnv.CurrentNamespace(), twReg, corelib.DefaultLoader); err != nil {
		return err
	}
	InstallCorelib(twEnv.CurrentNamespace(), twReg)

	vmReg := corelib.NewRegistry()
	if _, err := corelib.Chain(vmEnv.CurrentNamespace(), vmReg, corelib.DefaultLoader); err != nil {
		return err
	}
	corelib.Install(vmEnv.CurrentNamespace(), vmReg)
	return nil
}
