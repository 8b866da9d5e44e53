package reader

import (
	"fmt"
	"strings"

	"github.com/cljcore/cljc/lang/token"
	"github.com/cljcore/cljc/lang/value"
)

// Kind discriminates the shape of a Form. Form mirrors Value for ordinary
// literal and collection shapes, but stays a distinct tree so every node can
// carry its source Pos and so reader-only constructs (tagged literals,
// reader-conditional branches already resolved away, auto-resolved keywords)
// have somewhere to live before quote lowers a subtree to a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindChar
	KindString
	KindSymbol
	KindKeyword
	KindList
	KindVector
	KindMap
	KindSet
	KindRatio
	KindBigInt
	KindBigDecimal
	KindRegex
	KindTag // a #tag form: TagName names the reader tag, Inner holds the tagged form
)

// Form is one node of the tree the reader produces,.
type Form struct {
	Kind Kind
	Pos  token.Pos

	Bool  bool
	Int   int64
	Float float64
	Char  rune
	Str   string // string contents / ratio, bigint, bigdec, regex raw text

	Ns, Name    string // symbol / keyword name parts
	AutoResolve bool   // ::kw shorthand, resolved against the current namespace alias table

	Elems []Form // list, vector, set elements; map: flat key0,val0,key1,val1,...

	TagName string // KindTag: the tag symbol's printed name
	Inner   *Form  // KindTag: the tagged form
}

func sym(pos token.Pos, ns, name string) Form {
	return Form{Kind: KindSymbol, Pos: pos, Ns: ns, Name: name}
}

// ToValue lowers a Form subtree to the Value it denotes as literal data,
// discarding position information. Used by quote and by constant-pool
// emission for self-evaluating literals. A KindTag form with no registered
// reader function has no default data shape and is rejected.
func (f Form) ToValue() (value.Value, error) {
	switch f.Kind {
	case KindNil:
		return value.Nil, nil
	case KindBool:
		return value.Bool(f.Bool), nil
	case KindInt:
		return value.Int(f.Int), nil
	case KindFloat:
		return value.Float(f.Float), nil
	case KindChar:
		return value.Char(f.Char), nil
	case KindString:
		return value.String(f.Str), nil
	case KindSymbol:
		if f.Ns == "" {
			return value.NewSymbol(f.Name), nil
		}
		return value.NewQualifiedSymbol(f.Ns, f.Name), nil
	case KindKeyword:
		if f.Ns == "" {
			return value.NewKeyword(f.Name), nil
		}
		return value.NewQualifiedKeyword(f.Ns, f.Name), nil
	case KindRatio:
		return value.Ratio{Text: f.Str}, nil
	case KindBigInt:
		return value.BigInt{Text: f.Str}, nil
	case KindBigDecimal:
		return value.BigDecimal{Text: f.Str}, nil
	case KindRegex:
		return value.Regex{Pattern: f.Str}, nil
	case KindList:
		elems, err := formsToValues(f.Elems)
		if err != nil {
			return nil, err
		}
		return value.NewList(elems...), nil
	case KindVector:
		elems, err := formsToValues(f.Elems)
		if err != nil {
			return nil, err
		}
		return value.NewVector(elems), nil
	case KindSet:
		elems, err := formsToValues(f.Elems)
		if err != nil {
			return nil, err
		}
		return value.NewSet(elems...), nil
	case KindMap:
		elems, err := formsToValues(f.Elems)
		if err != nil {
			return nil, err
		}
		return value.NewArrayMap(elems...), nil
	case KindTag:
		return nil, fmt.Errorf("tagged literal #%s has no reader function to lower it to a value", f.TagName)
	default:
		return nil, fmt.Errorf("reader: form kind %d has no literal value shape", f.Kind)
	}
}

func formsToValues(fs []Form) ([]value.Value, error) {
	out := make([]value.Value, len(fs))
	for i, f := range fs {
		v, err := f.ToValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// String renders the Form back to readable source text, used by tests that
// check read/print round trips and by error messages quoting a form.
func (f Form) String() string {
	switch f.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if f.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", f.Int)
	case KindFloat:
		return fmt.Sprintf("%g", f.Float)
	case KindChar:
		return value.Print(value.Char(f.Char))
	case KindString:
		return value.String(f.Str).Quote()
	case KindSymbol:
		if f.Ns != "" {
			return f.Ns + "/" + f.Name
		}
		return f.Name
	case KindKeyword:
		prefix := ":"
		if f.AutoResolve {
			prefix = "::"
		}
		if f.Ns != "" {
			return prefix + f.Ns + "/" + f.Name
		}
		return prefix + f.Name
	case KindRatio, KindBigInt, KindBigDecimal:
		return f.Str
	case KindRegex:
		return "#\"" + f.Str + "\""
	case KindList:
		return "(" + joinForms(f.Elems) + ")"
	case KindVector:
		return "[" + joinForms(f.Elems) + "]"
	case KindSet:
		return "#{" + joinForms(f.Elems) + "}"
	case KindMap:
		return "{" + joinForms(f.Elems) + "}"
	case KindTag:
		return "#" + f.TagName + " " + f.Inner.String()
	default:
		return "<invalid form>"
	}
}

func joinForms(fs []Form) string {
	var b strings.Builder
	for i, f := range fs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.String())
	}
	return b.String()
}
