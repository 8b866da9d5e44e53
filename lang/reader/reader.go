package reader

import (
	"fmt"
	"math"
	"strings"

	"github.com/cljcore/cljc/lang/token"
)

func posInf() float64 { return math.Inf(1) }
func negInf() float64 { return math.Inf(-1) }
func nan() float64    { return math.NaN() }

// Reader turns source text into a stream of Forms, expanding reader macros
// (quote, syntax-quote, unquote, deref, meta, discard, fn literals, reader
// conditionals, tagged literals) as it goes. One Reader corresponds to one
// top-level read of a file or REPL form; depth and collection-size limits
// come from Policy.
type Reader struct {
	s        *scanner
	policy   Policy
	errs     ErrorList
	depth    int
	gensyms  []map[string]string // stack of auto-gensym scopes, one per nested syntax-quote
	gensymID int
	features map[string]bool // active reader-conditional feature keys, e.g. "clj", "default"
}

// New creates a Reader over src. features names the reader-conditional
// branches that should be kept (the #?(...) form); when a feature is
// absent from features, its branch is skipped entirely, never touching the
// Value/Node layers downstream.
func New(src []byte, policy Policy, features ...string) *Reader {
	r := &Reader{policy: policy, features: map[string]bool{}}
	for _, f := range features {
		r.features[f] = true
	}
	r.s = newScanner(src, func(pos token.Pos, msg string) { r.errs.Add(pos, msg) })
	return r
}

// Errors returns every diagnostic accumulated so far.
func (r *Reader) Errors() ErrorList { return r.errs }

// ReadAll reads every top-level form until EOF, returning an ErrorList error
// (via (ErrorList).Err) if anything went wrong.
func (r *Reader) ReadAll() ([]Form, error) {
	var out []Form
	for {
		f, ok, err := r.ReadOne()
		if err != nil {
			r.errs.Add(f.Pos, err.Error())
			continue
		}
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out, r.errs.Err()
}

// ReadOne reads the next top-level form. ok is false at EOF. A top-level
// #_ discard or an unmatched #?(...) reader conditional is transparently
// skipped in favor of the next real form.
func (r *Reader) ReadOne() (Form, bool, error) {
	for {
		r.s.skipAtmosphere()
		if r.s.cur < 0 {
			return Form{}, false, nil
		}
		f, err := r.readForm()
		if err != nil {
			return f, true, err
		}
		if f.Kind == discardMarker {
			continue
		}
		return f, true, nil
	}
}

func (r *Reader) enter(pos token.Pos) error {
	r.depth++
	if r.depth > r.policy.MaxDepth {
		return &SyntaxError{Pos: pos, Msg: fmt.Sprintf("nesting depth exceeds limit of %d", r.policy.MaxDepth)}
	}
	return nil
}

func (r *Reader) leave() { r.depth-- }

// readForm reads one form, dispatching on the current rune. Reader macros
// recurse into readForm for their argument and wrap the result.
func (r *Reader) readForm() (Form, error) {
	r.s.skipAtmosphere()
	pos := r.s.pos()
	cur := r.s.cur

	switch {
	case cur < 0:
		return Form{}, &SyntaxError{Pos: pos, Msg: "unexpected EOF"}

	case cur == '(':
		return r.readSeq(pos, '(', ')', KindList)
	case cur == '[':
		return r.readSeq(pos, '[', ']', KindVector)
	case cur == '{':
		return r.readMap(pos)
	case cur == ')' || cur == ']' || cur == '}':
		r.s.advance()
		return Form{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected %q", cur)}

	case cur == '\'':
		r.s.advance()
		return r.wrapReaderMacro(pos, "quote")
	case cur == '@':
		r.s.advance()
		return r.wrapReaderMacro(pos, "deref")
	case cur == '^':
		r.s.advance()
		return r.readMeta(pos)
	case cur == '`':
		r.s.advance()
		return r.readSyntaxQuote(pos)
	case cur == '~':
		r.s.advance()
		if r.s.cur == '@' {
			r.s.advance()
			return r.wrapReaderMacro(pos, "unquote-splicing")
		}
		return r.wrapReaderMacro(pos, "unquote")

	case cur == '"':
		r.s.advance()
		return r.readString(pos)
	case cur == ':':
		return r.readKeyword(pos)
	case cur == '\\':
		r.s.advance()
		ch, err := r.s.scanChar(pos)
		if err != nil {
			return Form{}, err
		}
		return Form{Kind: KindChar, Pos: pos, Char: ch}, nil

	case cur == '#':
		return r.readDispatch(pos)

	case isDigit(cur) || ((cur == '+' || cur == '-') && isDigit(rune(r.s.peek()))):
		raw, kind := r.s.scanNumber()
		return decodeNumber(pos, raw, kind)

	default:
		return r.readSymbolOrBool(pos)
	}
}

// wrapReaderMacro reads the next form and wraps it as (name form), the
// expansion shape for quote/deref/unquote/unquote-splicing.
func (r *Reader) wrapReaderMacro(pos token.Pos, name string) (Form, error) {
	if err := r.enter(pos); err != nil {
		return Form{}, err
	}
	defer r.leave()
	inner, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	return Form{Kind: KindList, Pos: pos, Elems: []Form{sym(pos, "", name), inner}}, nil
}

func (r *Reader) readMeta(pos token.Pos) (Form, error) {
	if err := r.enter(pos); err != nil {
		return Form{}, err
	}
	defer r.leave()
	meta, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	target, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	return Form{Kind: KindList, Pos: pos, Elems: []Form{sym(pos, "", "with-meta"), target, meta}}, nil
}

func (r *Reader) readSeq(pos token.Pos, open, close byte, kind Kind) (Form, error) {
	if err := r.enter(pos); err != nil {
		return Form{}, err
	}
	defer r.leave()
	r.s.advance() // consume open
	var elems []Form
	for {
		r.s.skipAtmosphere()
		if r.s.cur == rune(close) {
			r.s.advance()
			return Form{Kind: kind, Pos: pos, Elems: elems}, nil
		}
		if r.s.cur < 0 {
			return Form{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unterminated %s, expected %q", kindName(kind), close)}
		}
		f, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		if f.Kind == discardMarker {
			continue
		}
		elems = append(elems, f)
		if len(elems) > r.policy.MaxCollectionSize {
			return Form{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("collection exceeds size limit of %d", r.policy.MaxCollectionSize)}
		}
	}
}

func kindName(k Kind) string {
	switch k {
	case KindList:
		return "list"
	case KindVector:
		return "vector"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "form"
	}
}

func (r *Reader) readMap(pos token.Pos) (Form, error) {
	f, err := r.readSeq(pos, '{', '}', KindMap)
	if err != nil {
		return Form{}, err
	}
	if len(f.Elems)%2 != 0 {
		return Form{}, &SyntaxError{Pos: pos, Msg: "map literal must contain an even number of forms"}
	}
	return f, nil
}

func (r *Reader) readString(pos token.Pos) (Form, error) {
	_, decoded, err := r.s.scanString(pos)
	if err != nil {
		return Form{}, err
	}
	if len(decoded) > r.policy.MaxStringBytes {
		return Form{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("string literal exceeds size limit of %d bytes", r.policy.MaxStringBytes)}
	}
	return Form{Kind: KindString, Pos: pos, Str: decoded}, nil
}

func (r *Reader) readKeyword(pos token.Pos) (Form, error) {
	r.s.advance() // consume ':'
	autoResolve := false
	if r.s.cur == ':' {
		autoResolve = true
		r.s.advance()
	}
	if !isSymbolStart(r.s.cur) {
		return Form{}, &SyntaxError{Pos: pos, Msg: "invalid keyword"}
	}
	raw := r.s.scanSymbolic()
	ns, name := splitNamespace(raw)
	return Form{Kind: KindKeyword, Pos: pos, Ns: ns, Name: name, AutoResolve: autoResolve}, nil
}

func (r *Reader) readSymbolOrBool(pos token.Pos) (Form, error) {
	if !isSymbolStart(r.s.cur) {
		ch := r.s.cur
		r.s.advance()
		return Form{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", ch)}
	}
	raw := r.s.scanSymbolic()
	switch raw {
	case "nil":
		return Form{Kind: KindNil, Pos: pos}, nil
	case "true":
		return Form{Kind: KindBool, Pos: pos, Bool: true}, nil
	case "false":
		return Form{Kind: KindBool, Pos: pos, Bool: false}, nil
	}
	ns, name := splitNamespace(raw)
	return Form{Kind: KindSymbol, Pos: pos, Ns: ns, Name: name}, nil
}

// discardMarker is a sentinel Kind value used internally by #_ to signal
// "no form produced"; it never escapes the reader package.
const discardMarker Kind = 255

func discardForm(pos token.Pos) Form { return Form{Kind: discardMarker, Pos: pos} }

// readDispatch handles every '#'-prefixed construct with a single-rune
// lookahead past '#' so "#_foo" always tokenizes as discard followed by the
// symbol "foo", never as a symbol literally named "_foo".
func (r *Reader) readDispatch(pos token.Pos) (Form, error) {
	r.s.advance() // consume '#'
	switch r.s.cur {
	case '{':
		return r.readSeq(pos, '{', '}', KindSet)
	case '(':
		return r.readFnLiteral(pos)
	case '\'':
		r.s.advance()
		return r.wrapReaderMacro(pos, "var")
	case '_':
		r.s.advance()
		if err := r.enter(pos); err != nil {
			return Form{}, err
		}
		_, err := r.readForm()
		r.leave()
		if err != nil {
			return Form{}, err
		}
		return discardForm(pos), nil
	case '"':
		r.s.advance()
		pattern, err := r.s.scanRegex(pos)
		if err != nil {
			return Form{}, err
		}
		return Form{Kind: KindRegex, Pos: pos, Str: pattern}, nil
	case '?':
		r.s.advance()
		return r.readReaderConditional(pos)
	case '#':
		r.s.advance()
		raw := r.s.scanSymbolic()
		switch raw {
		case "Inf":
			return Form{Kind: KindFloat, Pos: pos, Float: posInf()}, nil
		case "-Inf":
			return Form{Kind: KindFloat, Pos: pos, Float: negInf()}, nil
		case "NaN":
			return Form{Kind: KindFloat, Pos: pos, Float: nan()}, nil
		default:
			return Form{}, &SyntaxError{Pos: pos, Msg: "unknown symbolic value ##" + raw}
		}
	default:
		if !isSymbolStart(r.s.cur) {
			return Form{}, &SyntaxError{Pos: pos, Msg: "invalid dispatch macro character after '#'"}
		}
		tagName := r.s.scanSymbolic()
		r.s.skipAtmosphere()
		if err := r.enter(pos); err != nil {
			return Form{}, err
		}
		defer r.leave()
		inner, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		return Form{Kind: KindTag, Pos: pos, TagName: tagName, Inner: &inner}, nil
	}
}

// readFnLiteral reads a #(...) anonymous function literal and desugars it to
// (fn* [%1 %2 ... & %&] (...)), scanning its body for %, %1.. %N and %&
// placeholders.
func (r *Reader) readFnLiteral(pos token.Pos) (Form, error) {
	body, err := r.readSeq(pos, '(', ')', KindList)
	if err != nil {
		return Form{}, err
	}
	maxArg, variadic := scanPercentArgs(body)
	params := make([]Form, 0, maxArg+2)
	for i := 1; i <= maxArg; i++ {
		params = append(params, sym(pos, "", fmt.Sprintf("%%%d", i)))
	}
	if variadic {
		params = append(params, sym(pos, "", "&"), sym(pos, "", "%&"))
	}
	paramVec := Form{Kind: KindVector, Pos: pos, Elems: params}
	return Form{
		Kind: KindList,
		Pos:  pos,
		Elems: []Form{
			sym(pos, "", "fn*"),
			paramVec,
			body,
		},
	}, nil
}

func scanPercentArgs(f Form) (maxArg int, variadic bool) {
	if f.Kind == KindSymbol && f.Ns == "" && strings.HasPrefix(f.Name, "%") {
		rest := f.Name[1:]
		switch {
		case rest == "" || rest == "1":
			if maxArg < 1 {
				maxArg = 1
			}
		case rest == "&":
			variadic = true
		default:
			n := 0
			for _, c := range rest {
				if c < '0' || c > '9' {
					return maxArg, variadic
				}
				n = n*10 + int(c-'0')
			}
			if n > maxArg {
				maxArg = n
			}
		}
		return maxArg, variadic
	}
	for _, e := range f.Elems {
		m, v := scanPercentArgs(e)
		if m > maxArg {
			maxArg = m
		}
		variadic = variadic || v
	}
	if f.Kind == KindTag && f.Inner != nil {
		m, v := scanPercentArgs(*f.Inner)
		if m > maxArg {
			maxArg = m
		}
		variadic = variadic || v
	}
	return maxArg, variadic
}

// readReaderConditional reads a #?(feature form feature form ... :default
// form) tail and splices in the first matching branch's form, or produces a
// discard marker if nothing matches. Only one of the branches is ever read
// into a returned Form; the others are still parsed (to stay well-formed)
// but thrown away before reaching the analyzer.
func (r *Reader) readReaderConditional(pos token.Pos) (Form, error) {
	if err := r.enter(pos); err != nil {
		return Form{}, err
	}
	defer r.leave()
	r.s.skipAtmosphere()
	if r.s.cur != '(' {
		return Form{}, &SyntaxError{Pos: pos, Msg: "#? must be followed by a list of feature/form pairs"}
	}
	r.s.advance()
	var chosen *Form
	for {
		r.s.skipAtmosphere()
		if r.s.cur == ')' {
			r.s.advance()
			break
		}
		if r.s.cur < 0 {
			return Form{}, &SyntaxError{Pos: pos, Msg: "unterminated reader conditional"}
		}
		featureForm, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		valueForm, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		if chosen == nil && r.featureMatches(featureForm) {
			v := valueForm
			chosen = &v
		}
	}
	if chosen == nil {
		return discardForm(pos), nil
	}
	return *chosen, nil
}

func (r *Reader) featureMatches(f Form) bool {
	if f.Kind != KindKeyword {
		return false
	}
	if f.Name == "default" {
		return true
	}
	return r.features[f.Name]
}
