package persist

import (
	"bytes"
	"fmt"
	"math"

	"github.com/cljcore/cljc/lang/treewalk"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
)

// Value tag bytes: 0x00 nil, 0x01 bool, 0x02 i64, 0x03 f64, 0x04
// u32 char, 0x05 string (string-table index), 0x06 symbol (ns index or −1,
// name index), 0x07 keyword (same), 0x08 fn (length-prefixed embedded
// chunk, capture count, length-prefixed inner string table, captured
// values, defining-ns index, always −1; see writeFn), 0x09 list, 0x0A vector, 0x0B map (pair
// count, then 2N values), 0x0C set, 0x0D var ref (ns index, name index),
// 0x0E atom, 0x0F volatile.
//
// Tags 0x10+ supplement the base tag list with value kinds that still need
// to round-trip even though they carry no fixed numeric contract: the
// text-preserving numeric literals and regex patterns (see
// lang/value/bignum.go).
const (
	tagNil byte = iota
	tagBool
	tagInt
	tagFloat
	tagChar
	tagString
	tagSymbol
	tagKeyword
	tagFn
	tagList
	tagVector
	tagMap
	tagSet
	tagVarRef
	tagAtom
	tagVolatile

	tagRatio
	tagBigInt
	tagBigDecimal
	tagRegex
)

// writeValue encodes v into w using st to intern any strings it carries.
// Tree-walk closures and runtime-only callables (builtin-fn, protocol-fn,
// multi-fn, lazy-seq) have no bytecode to persist and are rejected with
// *ErrNotPersistable, a typed error rather than a bare fmt.Errorf.
func writeValue(w *writer, st *stringTable, v value.Value) error {
	switch x := v.(type) {
	case value.NilType:
		w.u8(tagNil)
	case value.Bool:
		w.u8(tagBool)
		if x {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case value.Int:
		w.u8(tagInt)
		w.u32(uint32(x))
		w.u32(uint32(uint64(x) >> 32))
	case value.Float:
		w.u8(tagFloat)
		bits := math.Float64bits(float64(x))
		w.u32(uint32(bits))
		w.u32(uint32(bits >> 32))
	case value.Char:
		w.u8(tagChar)
		w.u32(uint32(x))
	case value.String:
		w.u8(tagString)
		w.u32(uint32(st.intern(string(x))))
	case value.Symbol:
		w.u8(tagSymbol)
		w.i32(st.internOptional(x.Ns, x.Ns != ""))
		w.u32(uint32(st.intern(x.Name)))
	case value.Keyword:
		w.u8(tagKeyword)
		w.i32(st.internOptional(x.Ns, x.Ns != ""))
		w.u32(uint32(st.intern(x.Name)))
	case *value.List:
		w.u8(tagList)
		elems := x.Seq()
		w.u32(uint32(len(elems)))
		for _, e := range elems {
			if err := writeValue(w, st, e); err != nil {
				return err
			}
		}
	case *value.Vector:
		w.u8(tagVector)
		w.u32(uint32(x.Count()))
		for i := 0; i < x.Count(); i++ {
			e, _ := x.Nth(i)
			if err := writeValue(w, st, e); err != nil {
				return err
			}
		}
	case *value.ArrayMap:
		w.u8(tagMap)
		items := x.Items()
		w.u32(uint32(len(items)))
		for _, kv := range items {
			if err := writeValue(w, st, kv[0]); err != nil {
				return err
			}
			if err := writeValue(w, st, kv[1]); err != nil {
				return err
			}
		}
	case *value.Set:
		w.u8(tagSet)
		elems := x.Seq()
		w.u32(uint32(len(elems)))
		for _, e := range elems {
			if err := writeValue(w, st, e); err != nil {
				return err
			}
		}
	case *value.Var:
		w.u8(tagVarRef)
		w.i32(st.internOptional(x.Ns, x.Ns != ""))
		w.u32(uint32(st.intern(x.Name)))
	case *value.Atom:
		w.u8(tagAtom)
		if err := writeValue(w, st, x.Deref()); err != nil {
			return err
		}
	case *value.Volatile:
		w.u8(tagVolatile)
		if err := writeValue(w, st, x.Deref()); err != nil {
			return err
		}
	case value.Ratio:
		w.u8(tagRatio)
		w.str(x.Text)
	case value.BigInt:
		w.u8(tagBigInt)
		w.str(x.Text)
	case value.BigDecimal:
		w.u8(tagBigDecimal)
		w.str(x.Text)
	case value.Regex:
		w.u8(tagRegex)
		w.str(x.Pattern)
	case *vm.Fn:
		return writeFn(w, st, x)
	case *treewalk.Closure:
		return &ErrNotPersistable{Kind: "tree-walk closure"}
	case *vm.BuiltinFn:
		return &ErrNotPersistable{Kind: "builtin-function"}
	case *vm.ProtocolFn:
		return &ErrNotPersistable{Kind: "protocol-function"}
	case *vm.MultiFn:
		return &ErrNotPersistable{Kind: "multi-function"}
	case *vm.LazySeq:
		return &ErrNotPersistable{Kind: "lazy-seq"}
	default:
		return fmt.Errorf("persist: no encoding for value of type %s", v.Type())
	}
	return w.err
}

// readValue decodes one value record from r, resolving string-table indices
// against strs.
func readValue(r *reader, strs []string) (value.Value, error) {
	tag := r.u8()
	if r.err != nil {
		return nil, r.err
	}
	switch tag {
	case tagNil:
		return value.Nil, nil
	case tagBool:
		return value.Bool(r.u8() != 0), nil
	case tagInt:
		lo := uint64(r.u32())
		hi := uint64(r.u32())
		return value.Int(int64(hi<<32 | lo)), nil
	case tagFloat:
		lo := uint64(r.u32())
		hi := uint64(r.u32())
		return value.Float(math.Float64frombits(hi<<32 | lo)), nil
	case tagChar:
		return value.Char(rune(r.u32())), nil
	case tagString:
		idx := int32(r.u32())
		s, _ := at(strs, idx)
		return value.String(s), nil
	case tagSymbol:
		ns := r.i32()
		name := r.u32()
		nsStr, _ := at(strs, ns)
		nameStr, _ := at(strs, int32(name))
		return value.NewQualifiedSymbol(nsStr, nameStr), nil
	case tagKeyword:
		ns := r.i32()
		name := r.u32()
		nsStr, _ := at(strs, ns)
		nameStr, _ := at(strs, int32(name))
		return value.NewQualifiedKeyword(nsStr, nameStr), nil
	case tagList:
		n := r.u32()
		elems := make([]value.Value, n)
		for i := range elems {
			v, err := readValue(r, strs)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewList(elems...), nil
	case tagVector:
		n := r.u32()
		elems := make([]value.Value, n)
		for i := range elems {
			v, err := readValue(r, strs)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewVector(elems), nil
	case tagMap:
		n := r.u32()
		kvs := make([]value.Value, 0, n*2)
		for i := uint32(0); i < n; i++ {
			k, err := readValue(r, strs)
			if err != nil {
				return nil, err
			}
			v, err := readValue(r, strs)
			if err != nil {
				return nil, err
			}
			kvs = append(kvs, k, v)
		}
		return value.NewArrayMap(kvs...), nil
	case tagSet:
		n := r.u32()
		elems := make([]value.Value, n)
		for i := range elems {
			v, err := readValue(r, strs)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewSet(elems...), nil
	case tagVarRef:
		ns := r.i32()
		name := r.u32()
		nsStr, _ := at(strs, ns)
		nameStr, _ := at(strs, int32(name))
		return value.NewVar(nsStr, nameStr), nil
	case tagAtom:
		v, err := readValue(r, strs)
		if err != nil {
			return nil, err
		}
		return value.NewAtom(v), nil
	case tagVolatile:
		v, err := readValue(r, strs)
		if err != nil {
			return nil, err
		}
		return value.NewVolatile(v), nil
	case tagRatio:
		return value.Ratio{Text: r.str()}, nil
	case tagBigInt:
		return value.BigInt{Text: r.str()}, nil
	case tagBigDecimal:
		return value.BigDecimal{Text: r.str()}, nil
	case tagRegex:
		return value.Regex{Pattern: r.str()}, nil
	case tagFn:
		return readFn(r)
	}
	return nil, &ErrUnknownTag{Tag: tag}
}
