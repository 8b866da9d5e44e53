package analyzer

import (
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
)

// analyzeDef handles (def name doc? init?) and, when macro is true,
// (defmacro name doc? [params*] body*), which desugars to a def whose init
// is an fn and whose var is flagged :macro. def records its flags and
// attached doc/arglist/line metadata for the compiler to place in the
// constant pool alongside the name.
func (a *Analyzer) analyzeDef(f reader.Form, sc *scope, macro bool) *Node {
	rest := f.Elems[1:]
	if len(rest) == 0 {
		return a.fail(f.Pos, "def requires an unqualified symbol name")
	}
	name, metaFlags := extractDefName(rest[0])
	if name.Kind != reader.KindSymbol || name.Ns != "" {
		return a.fail(f.Pos, "def requires an unqualified symbol name")
	}
	rest = rest[1:]

	doc := ""
	if len(rest) > 1 && rest[0].Kind == reader.KindString {
		doc = rest[0].Str
		rest = rest[1:]
	}

	n := &Node{Kind: KDef, Pos: f.Pos, Ns: a.NS.Name, Name: name.Name, Doc: doc}
	v := a.NS.Intern(name.Name)
	v.SetFlags(v.Flags() | metaFlags)
	if macro {
		n.DefFlags |= value.FlagMacro
		v.SetMacro()
	}
	if isEarmuffed(name.Name) {
		v.SetFlags(v.Flags() | value.FlagDynamic)
	}
	if v.Doc == "" {
		v.Doc = doc
	}
	n.DefFlags |= v.Flags()

	if macro {
		if len(rest) == 0 || rest[0].Kind != reader.KindVector {
			return a.fail(f.Pos, "defmacro requires a parameter vector")
		}
		fnForm := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append(
			[]reader.Form{{Kind: reader.KindSymbol, Name: "fn*"}, name}, rest...,
		)}
		n.Init = a.analyzeFn(fnForm, sc)
		n.Arglists = printParamVectors(rest)
		return n
	}

	if len(rest) == 0 {
		n.Init = &Node{Kind: KConst, Pos: f.Pos, Const: value.Nil}
		return n
	}
	if len(rest) != 1 {
		return a.fail(f.Pos, "def accepts at most one init expression")
	}
	n.Init = a.analyzeNonTail(rest[0], sc)
	return n
}

func printParamVectors(rest []reader.Form) string {
	if len(rest) == 0 {
		return "([])"
	}
	return rest[0].String()
}

// extractDefName unwraps the (with-meta sym {...}) shape produced by the
// reader's ^meta sugar (e.g. (def ^:dynamic *cwd* ...)) and translates the
// :dynamic/:private/:macro meta keys to VarFlags. A bare symbol passes
// through unchanged.
func extractDefName(f reader.Form) (reader.Form, value.VarFlags) {
	if f.Kind != reader.KindList || len(f.Elems) != 3 || f.Elems[0].Kind != reader.KindSymbol || f.Elems[0].Name != "with-meta" {
		return f, 0
	}
	sym, meta := f.Elems[1], f.Elems[2]
	var flags value.VarFlags
	switch meta.Kind {
	case reader.KindKeyword:
		flags |= metaKeywordFlag(meta.Name)
	case reader.KindMap:
		for i := 0; i+1 < len(meta.Elems); i += 2 {
			if meta.Elems[i].Kind == reader.KindKeyword {
				flags |= metaKeywordFlag(meta.Elems[i].Name)
			}
		}
	}
	return sym, flags
}

func metaKeywordFlag(name string) value.VarFlags {
	switch name {
	case "dynamic":
		return value.FlagDynamic
	case "private":
		return value.FlagPrivate
	case "macro":
		return value.FlagMacro
	case "const":
		return value.FlagConst
	}
	return 0
}

func isEarmuffed(name string) bool {
	return len(name) > 2 && name[0] == '*' && name[len(name)-1] == '*'
}
