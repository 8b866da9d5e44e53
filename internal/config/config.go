// Package config loads the runtime tuning knobs for the reader, compiler
// and virtual machine from the environment into one typed struct, rather
// than through mainer.Parser's own EnvVars support (left disabled in
// internal/clitool so this package owns configuration instead).
package config

import (
	"github.com/caarlos0/env/v6"

	"github.com/cljcore/cljc/lang/gc"
	"github.com/cljcore/cljc/lang/reader"
)

// Prefix is prepended to every variable name below, so the knobs never
// collide with an embedder's own environment.
const Prefix = "CLJC_"

// VM holds every tuning knob a running program can override without a
// recompile: the call-depth cap, the GC allocation threshold, reader
// nesting limits, and a step budget for runaway-program protection. A
// single Frame's own operand-stack capacity is not one of these: it is
// sized exactly to its FnProto's MaxStack at compile time (the // abstract-stack-depth tracking already fixes it per arity), so there is
// no runtime knob to expose for it.
type VM struct {
	// FrameStackCapacity bounds how many nested Thread.callFn invocations
	// are allowed before a stack-overflow error is raised instead of a Go
	// stack overflow.
	FrameStackCapacity int `env:"FRAME_STACK_CAPACITY" envDefault:"2048"`

	// GCThresholdBytes is the allocation total (gc.MarkSweep's
	// thresholdBytes) that triggers the next collection.
	GCThresholdBytes int64 `env:"GC_THRESHOLD_BYTES" envDefault:"4194304"`

	// ReaderMaxDepth bounds nested collection forms the reader will descend
	// into before reporting a syntax error, guarding against a malformed or
	// adversarial source file exhausting the Go call stack.
	ReaderMaxDepth int `env:"READER_MAX_DEPTH" envDefault:"512"`

	// ReaderMaxCollectionSize and ReaderMaxStringBytes feed
	// reader.Policy's matching fields.
	ReaderMaxCollectionSize int `env:"READER_MAX_COLLECTION_SIZE" envDefault:"1048576"`
	ReaderMaxStringBytes    int `env:"READER_MAX_STRING_BYTES" envDefault:"1048576"`

	// MaxSteps bounds how many bytecode instructions a single vm.Thread
	// will execute over its lifetime before aborting with vm.ErrStepLimit;
	// zero means unbounded. Guards the `run` CLI command against a
	// runaway/adversarial program; not applied by lang/treewalk.Compare,
	// which is meant to run trusted, already-finite test inputs.
	MaxSteps int `env:"MAX_STEPS" envDefault:"0"`
}

// Load reads a VM configuration from the process environment, filling in
// the defaults above for anything unset.
func Load() (VM, error) {
	cfg := VM{}
	if err := env.Parse(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return VM{}, err
	}
	return cfg, nil
}

// ReaderPolicy builds the reader.Policy this configuration describes.
func (c VM) ReaderPolicy() reader.Policy {
	return reader.Policy{
		MaxDepth:          c.ReaderMaxDepth,
		MaxCollectionSize: c.ReaderMaxCollectionSize,
		MaxStringBytes:    c.ReaderMaxStringBytes,
	}
}

// NewCollector builds the mark-sweep collector this configuration
// describes, ready to hand to vm.NewThread.
func (c VM) NewCollector() gc.Collector {
	return gc.NewMarkSweep(c.GCThresholdBytes)
}
