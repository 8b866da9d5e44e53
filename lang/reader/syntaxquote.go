package reader

import (
	"fmt"
	"strings"

	"github.com/cljcore/cljc/lang/token"
)

// readSyntaxQuote reads the form following a backtick and expands it to its
// quote/unquote/unquote-splicing skeleton: symbols are kept as written,
// with no namespace qualification (see syntaxQuoteExpand), and a bare
// trailing '#' in a symbol name is replaced by a fresh name that is stable
// for every occurrence of that symbol within the same syntax-quote.
func (r *Reader) readSyntaxQuote(pos token.Pos) (Form, error) {
	if err := r.enter(pos); err != nil {
		return Form{}, err
	}
	defer r.leave()

	r.gensyms = append(r.gensyms, map[string]string{})
	defer func() { r.gensyms = r.gensyms[:len(r.gensyms)-1] }()

	inner, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	expanded := r.syntaxQuoteExpand(inner)
	return expanded, nil
}

// syntaxQuoteExpand rewrites a Form read inside a syntax-quote into the
// (quote ...)/(unquote ...)/(concat ...) skeleton a macro body compiles to.
// Symbols ending in '#' are resolved to a fresh per-expansion gensym;
// unqualified symbols that aren't special forms are left as-is (full
// namespace resolution happens in the analyzer, which has the alias table).
func (r *Reader) syntaxQuoteExpand(f Form) Form {
	switch f.Kind {
	case KindSymbol:
		if f.Ns == "" && strings.HasSuffix(f.Name, "#") && f.Name != "#" {
			return sym(f.Pos, "", r.autoGensym(f.Name))
		}
		return quoteForm(f.Pos, f)

	case KindList:
		if isUnquote(f) {
			return f.Elems[1]
		}
		concatArgs := r.syntaxQuoteSeqElems(f.Elems)
		return Form{Kind: KindList, Pos: f.Pos, Elems: append(
			[]Form{sym(f.Pos, "", "concat")}, concatArgs...,
		)}

	case KindVector:
		concatArgs := r.syntaxQuoteSeqElems(f.Elems)
		concat := Form{Kind: KindList, Pos: f.Pos, Elems: append(
			[]Form{sym(f.Pos, "", "concat")}, concatArgs...,
		)}
		return Form{Kind: KindList, Pos: f.Pos, Elems: []Form{sym(f.Pos, "", "vec"), concat}}

	case KindMap, KindSet:
		elems := make([]Form, len(f.Elems))
		for i, e := range f.Elems {
			elems[i] = r.syntaxQuoteExpand(e)
		}
		return Form{Kind: f.Kind, Pos: f.Pos, Elems: elems}

	case KindTag:
		inner := r.syntaxQuoteExpand(*f.Inner)
		return Form{Kind: KindTag, Pos: f.Pos, TagName: f.TagName, Inner: &inner}

	default:
		return f
	}
}

// syntaxQuoteSeqElems builds the (concat ...) argument list for a
// quasi-quoted list/vector: each ordinary element becomes a single-element
// (list form) argument, and a ~@form splice is passed to concat directly.
func (r *Reader) syntaxQuoteSeqElems(elems []Form) []Form {
	parts := make([]Form, 0, len(elems))
	for _, e := range elems {
		if isUnquoteSplicing(e) {
			parts = append(parts, e.Elems[1])
			continue
		}
		expanded := r.syntaxQuoteExpand(e)
		parts = append(parts, Form{Kind: KindList, Pos: e.Pos, Elems: []Form{
			sym(e.Pos, "", "list"),
			expanded,
		}})
	}
	return parts
}

func isUnquote(f Form) bool {
	return f.Kind == KindList && len(f.Elems) == 2 &&
		f.Elems[0].Kind == KindSymbol && f.Elems[0].Ns == "" && f.Elems[0].Name == "unquote"
}

func isUnquoteSplicing(f Form) bool {
	return f.Kind == KindList && len(f.Elems) == 2 &&
		f.Elems[0].Kind == KindSymbol && f.Elems[0].Ns == "" && f.Elems[0].Name == "unquote-splicing"
}

func quoteForm(pos token.Pos, f Form) Form {
	return Form{Kind: KindList, Pos: pos, Elems: []Form{sym(pos, "", "quote"), f}}
}

// autoGensym maps name (ending in '#') to a fresh symbol that is stable for
// every occurrence within the innermost active syntax-quote scope.
func (r *Reader) autoGensym(name string) string {
	scope := r.gensyms[len(r.gensyms)-1]
	if existing, ok := scope[name]; ok {
		return existing
	}
	r.gensymID++
	fresh := fmt.Sprintf("%s__%d__auto", strings.TrimSuffix(name, "#"), r.gensymID)
	scope[name] = fresh
	return fresh
}
