// Package value implements the tagged runtime value model shared by the
// reader, analyzer, compiler, virtual machine and tree-walk evaluator: the
// primitive types, persistent collections and reference kinds the language
// core is built from.
package value

import "fmt"

// Value is implemented by every first-class datum the runtime can
// manipulate. It intentionally stays small: callable and machine-specific
// kinds (Fn, BuiltinFn, ProtocolFn, MultiFn, LazySeq) live in lang/vm since
// they close over compiler.FnProto, which this package must not depend on.
type Value interface {
	// String returns the pr-str-style printed representation.
	String() string
	// Type returns a short, stable tag name (e.g. "int", "vector").
	Type() string
	// Truth reports the value's truthiness: only Nil and Bool(false) are
	// falsy, every other value (including 0, "", and empty collections) is
	// truthy.
	Truth() bool
}

// Tag is a stable, small discriminator exposed to other layers (inline
// caches, persistence, protocol dispatch) without relying on a Go type
// switch or interface type assertion on every lookup.
type Tag uint8

const (
	TagNil Tag = iota
	TagBool
	TagInt
	TagFloat
	TagChar
	TagString
	TagSymbol
	TagKeyword
	TagList
	TagVector
	TagArrayMap
	TagSet
	TagVar
	TagAtom
	TagVolatile
	TagRatio
	TagBigInt
	TagBigDecimal
	TagRegex
	// Callable kinds are tagged here too even though their Go types live in
	// lang/vm, so that protocol/multimethod dispatch has one tag space.
	TagFn
	TagBuiltinFn
	TagProtocolFn
	TagMultiFn
	TagLazySeq
)

var tagNames = [...]string{
	TagNil:        "nil",
	TagBool:       "bool",
	TagInt:        "int",
	TagFloat:      "float",
	TagChar:       "char",
	TagString:     "string",
	TagSymbol:     "symbol",
	TagKeyword:    "keyword",
	TagList:       "list",
	TagVector:     "vector",
	TagArrayMap:   "map",
	TagSet:        "set",
	TagVar:        "var",
	TagAtom:       "atom",
	TagVolatile:   "volatile",
	TagRatio:      "ratio",
	TagBigInt:     "bigint",
	TagBigDecimal: "bigdec",
	TagRegex:      "regex",
	TagFn:         "function",
	TagBuiltinFn:  "builtin-function",
	TagProtocolFn: "protocol-function",
	TagMultiFn:    "multi-function",
	TagLazySeq:    "lazy-seq",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) && tagNames[t] != "" {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", t)
}

// Tagged is implemented by every concrete Value so that callers needing a
// stable discriminator (protocol dispatch, inline caches, persistence) never
// need a type switch.
type Tagged interface {
	Value
	Tag() Tag
}

// An Ordered type supports <, <=, > and >= against values of the same kind.
type Ordered interface {
	Value
	// Cmp returns negative, zero or positive as the receiver is less than,
	// equal to, or greater than y. The caller guarantees y has the same
	// concrete type as the receiver (numeric cross-type comparisons are
	// handled by the standalone Compare function, not by Cmp).
	Cmp(y Value) (int, error)
}

// Sequential is implemented by the ordered, index-agnostic collections
// (List, Vector) for which equality and iteration are order-sensitive.
type Sequential interface {
	Value
	Seq() []Value
}

// Counted is a collection whose length is known without full traversal.
type Counted interface {
	Value
	Count() int
}

// Indexed is a sequence that supports O(1)-ish random access by position.
type Indexed interface {
	Counted
	Nth(i int) (Value, bool)
}

// Iterable abstracts a sequence that may be walked in order; a LazySeq
// satisfies this without knowing its length in advance.
type Iterable interface {
	Value
	Iterator() Iterator
}

// Iterator yields the elements of an Iterable one at a time.
type Iterator interface {
	// Next reports whether a next element is available, and if so stores it
	// in *p and advances the iterator.
	Next(p *Value) bool
}

// Mapping is implemented by associative collections (ArrayMap).
type Mapping interface {
	Value
	Get(k Value) (v Value, found bool)
	Keys() []Value
	Assoc(k, v Value) Mapping
	Without(k Value) Mapping
}

// Callable marks a Value that the VM's CALL opcode may dispatch to via a
// type switch in lang/vm; kept here only as a documentation anchor since the
// concrete callable kinds are defined in lang/vm to avoid an import cycle
// with lang/compiler.
type Callable interface {
	Value
	CallableName() string
}
