package persist

import (
	"bytes"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
)

// WriteSnapshot encodes e as a full environment snapshot: the same header
// and string table, followed by a namespace list, each recording its owned
// vars, refers and aliases. Refers and aliases name other namespaces by
// index and are resolved in a second pass by ReadSnapshot once every
// namespace exists, since a refer can name a namespace that hasn't been
// decoded yet.
func WriteSnapshot(out io.Writer, e *env.Env) error {
	w := newWriter(out)
	w.bytes(Magic[:])
	w.u16(Version)
	w.u16(0)

	var body bytes.Buffer
	st := newStringTable()
	if err := encodeSnapshotBody(&body, st, e); err != nil {
		return err
	}
	st.write(w)
	w.bytes(body.Bytes())
	return w.err
}

func encodeSnapshotBody(out io.Writer, st *stringTable, e *env.Env) error {
	w := newWriter(out)
	namespaces := e.Namespaces()
	w.u32(uint32(len(namespaces)))
	for _, ns := range namespaces {
		w.u32(uint32(st.intern(ns.Name)))

		vars := ns.Vars()
		w.u32(uint32(len(vars)))
		for _, v := range vars {
			if err := writeVarRecord(w, st, v); err != nil {
				return err
			}
		}

		refers := ns.Refers()
		referNames := maps.Keys(refers)
		slices.Sort(referNames)
		w.u32(uint32(len(referNames)))
		for _, name := range referNames {
			w.u32(uint32(st.intern(name)))
			w.u32(uint32(st.intern(refers[name].Ns)))
		}

		aliases := ns.Aliases()
		aliasNames := maps.Keys(aliases)
		slices.Sort(aliasNames)
		w.u32(uint32(len(aliasNames)))
		for _, alias := range aliasNames {
			w.u32(uint32(st.intern(alias)))
			w.u32(uint32(st.intern(aliases[alias])))
		}
	}
	return w.err
}

// varRootSentinel marks a root value that should not be overwritten on
// load: "preserve the already-registered builtin root", used when a var
// was interned by a stdlib loader before the snapshot is applied and its
// root is a host Go function no format tag can represent.
const varRootSentinel = 0xFF

func writeVarRecord(w *writer, st *stringTable, v *value.Var) error {
	w.u32(uint32(st.intern(v.Name)))
	w.u8(uint8(v.Flags()))
	w.i32(st.internOptional(v.Doc, v.Doc != ""))
	w.i32(st.internOptional(v.Arglists, v.Arglists != ""))

	root := v.Root()
	if err := writeValue(w, st, root); err != nil {
		if _, ok := err.(*ErrNotPersistable); ok {
			w.u8(varRootSentinel)
			return nil
		}
		return err
	}
	return nil
}

// Snapshot is a decoded environment snapshot: namespace name -> its decoded
// records, before Apply's deferred refer/alias resolution pass runs.
type Snapshot struct {
	Namespaces []NamespaceRecord
}

type NamespaceRecord struct {
	Name    string
	Vars    []VarRecord
	Refers  []ReferRecord
	Aliases []AliasRecord
}

type VarRecord struct {
	Name     string
	Flags    value.VarFlags
	Doc      string
	Arglists string
	Root     value.Value // nil if the sentinel "preserve builtin root" was written
}

type ReferRecord struct {
	Name     string
	SourceNS string
}

type AliasRecord struct {
	Alias  string
	Target string
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(in io.Reader) (*Snapshot, error) {
	r := newReader(in)
	magic := r.bytes(4)
	if r.err != nil {
		return nil, r.err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, ErrBadMagic
	}
	version := r.u16()
	if version > Version {
		return nil, &ErrUnsupportedVersion{Version: version}
	}
	_ = r.u16()

	strs := readStringTable(r)
	nsCount := r.u32()
	out := &Snapshot{Namespaces: make([]NamespaceRecord, nsCount)}
	for i := range out.Namespaces {
		nameIdx := r.u32()
		name, _ := at(strs, int32(nameIdx))
		rec := NamespaceRecord{Name: name}

		varCount := r.u32()
		rec.Vars = make([]VarRecord, varCount)
		for j := range rec.Vars {
			v, err := readVarRecord(r, strs)
			if err != nil {
				return nil, err
			}
			rec.Vars[j] = v
		}

		referCount := r.u32()
		rec.Refers = make([]ReferRecord, referCount)
		for j := range rec.Refers {
			nIdx := r.u32()
			sIdx := r.u32()
			n, _ := at(strs, int32(nIdx))
			s, _ := at(strs, int32(sIdx))
			rec.Refers[j] = ReferRecord{Name: n, SourceNS: s}
		}

		aliasCount := r.u32()
		rec.Aliases = make([]AliasRecord, aliasCount)
		for j := range rec.Aliases {
			aIdx := r.u32()
			tIdx := r.u32()
			a, _ := at(strs, int32(aIdx))
			t, _ := at(strs, int32(tIdx))
			rec.Aliases[j] = AliasRecord{Alias: a, Target: t}
		}

		out.Namespaces[i] = rec
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

func readVarRecord(r *reader, strs []string) (VarRecord, error) {
	nameIdx := r.u32()
	name, _ := at(strs, int32(nameIdx))
	flags := value.VarFlags(r.u8())
	docIdx := r.i32()
	doc, _ := at(strs, docIdx)
	arglistsIdx := r.i32()
	arglists, _ := at(strs, arglistsIdx)

	peek := r.bytes(1)
	if r.err != nil {
		return VarRecord{}, r.err
	}
	if peek[0] == varRootSentinel {
		return VarRecord{Name: name, Flags: flags, Doc: doc, Arglists: arglists, Root: nil}, nil
	}
	inner := &reader{r: io.MultiReader(bytes.NewReader(peek), r.r)}
	root, err := readValue(inner, strs)
	r.err = inner.err
	if err != nil {
		return VarRecord{}, err
	}
	return VarRecord{Name: name, Flags: flags, Doc: doc, Arglists: arglists, Root: root}, nil
}

// Apply installs every namespace, var, refer and alias in snap into e,
// running the deferred refer/alias pass once all namespaces and vars exist.
// A VarRecord with a nil Root leaves an already-registered var's root
// untouched, the varRootSentinel meaning.
func Apply(e *env.Env, snap *Snapshot) {
	for _, rec := range snap.Namespaces {
		ns := e.FindOrCreateNamespace(rec.Name)
		for _, vr := range rec.Vars {
			v := ns.Intern(vr.Name)
			v.SetFlags(vr.Flags)
			v.Doc = vr.Doc
			v.Arglists = vr.Arglists
			if vr.Root != nil {
				v.BindRoot(vr.Root)
			}
		}
	}
	for _, rec := range snap.Namespaces {
		ns := e.FindOrCreateNamespace(rec.Name)
		for _, al := range rec.Aliases {
			ns.SetAlias(al.Alias, al.Target)
		}
		for _, rf := range rec.Refers {
			source := e.FindOrCreateNamespace(rf.SourceNS)
			if sv, ok := source.Resolve(rf.Name); ok {
				ns.Refer(rf.Name, sv)
			}
		}
	}
}
