// Package reader implements the first stage of the pipeline: source text to
// a stream of Forms. It fuses tokenizing (number.go, scanner.go) with a
// recursive reader (reader.go) that expands reader macros, syntax-quote
// (syntaxquote.go) and reader conditionals at read time.
package reader

// Policy bounds the reader against pathological or adversarial input:
// nesting depth, collection element count, and string byte length. Limits
// are enforced even on malformed input (unmatched delimiter, EOF mid-
// collection).
type Policy struct {
	MaxDepth          int
	MaxCollectionSize int
	MaxStringBytes    int
}

// DefaultPolicy returns generous but finite limits suitable for ordinary
// source files.
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth:          512,
		MaxCollectionSize: 1 << 20,
		MaxStringBytes:    1 << 20,
	}
}
