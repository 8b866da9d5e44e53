// Package persist implements the AOT persistence format: a little-endian,
// framed binary encoding for a compiled Chunk/FnProto and for a full
// environment snapshot, so the standard library can be compiled once and
// loaded at startup instead of re-read and re-analyzed on every process
// start. It shares lang/value's tag space and lang/compiler's
// Chunk/FnProto/Arity layout rather than inventing a parallel one.
//
// There is no existing binary persistence format to adapt (the pseudo-
// assembly printer in lang/compiler only emits human-readable text), so the
// framing here is hand-rolled directly from the byte layout below;
// encoding/binary is used rather than a third-party codec because nothing
// in the available dependency set demonstrates a binary serialization
// library (see DESIGN.md).
package persist

import "fmt"

// Magic is the 4-byte file signature every persisted artefact starts with.
var Magic = [4]byte{'C', 'L', 'J', 'C'}

// Version is the format version this package reads and writes.
const Version uint16 = 1

// ErrBadMagic is returned when a stream does not start with Magic.
var ErrBadMagic = fmt.Errorf("persist: bad magic, not a CLJC artefact")

// ErrUnsupportedVersion is returned when a stream's version is newer than
// this package understands.
type ErrUnsupportedVersion struct{ Version uint16 }

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("persist: unsupported format version %d", e.Version)
}

// ErrUnknownTag is returned when a value record carries a tag byte this
// package does not recognize: an unknown tag always fails deserialization
// rather than being silently skipped.
type ErrUnknownTag struct{ Tag byte }

func (e *ErrUnknownTag) Error() string {
	return fmt.Sprintf("persist: unknown value tag 0x%02x", e.Tag)
}

// ErrNotPersistable is returned for a Value kind the format has no
// representation for: a tree-walk closure (: "Tree-walk closures
// refuse to serialize (typed error)") or a runtime-only callable that closes
// over a Go function value rather than compiled bytecode (builtin-fn,
// protocol-fn, multi-fn, lazy-seq — none of these appear inthe value
// tag byte list).
type ErrNotPersistable struct{ Kind string }

func (e *ErrNotPersistable) Error() string {
	return fmt.Sprintf("persist: %s values cannot be persisted", e.Kind)
}
