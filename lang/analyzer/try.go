package analyzer

import (
	"github.com/cljcore/cljc/lang/reader"
)

// analyzeTry handles (try body* (catch ExceptionType name body*)? (finally
// body*)?): at most one catch clause and at most one finally
// clause, and the catch clause binds an exception value.
func (a *Analyzer) analyzeTry(f reader.Form, sc *scope) *Node {
	n := &Node{Kind: KTry, Pos: f.Pos}

	var bodyForms []reader.Form
	var catchForm, finallyForm *reader.Form
	for _, e := range f.Elems[1:] {
		if e.Kind == reader.KindList && len(e.Elems) > 0 && e.Elems[0].Kind == reader.KindSymbol && e.Elems[0].Ns == "" {
			switch e.Elems[0].Name {
			case "catch":
				if catchForm != nil {
					a.fail(e.Pos, "try accepts at most one catch clause")
					continue
				}
				ec := e
				catchForm = &ec
				continue
			case "finally":
				if finallyForm != nil {
					a.fail(e.Pos, "try accepts at most one finally clause")
					continue
				}
				ef := e
				finallyForm = &ef
				continue
			}
		}
		if catchForm != nil || finallyForm != nil {
			a.fail(e.Pos, "try body forms must precede catch and finally")
			continue
		}
		bodyForms = append(bodyForms, e)
	}

	doBody := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, bodyForms...)}
	n.TryBody = a.analyzeNonTail(doBody, sc)

	if catchForm != nil {
		n.Catch = a.analyzeCatch(*catchForm, sc)
	}
	if finallyForm != nil {
		doFinally := reader.Form{Kind: reader.KindList, Pos: finallyForm.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, finallyForm.Elems[1:]...)}
		n.Finally = a.analyzeNonTail(doFinally, sc)
	}
	return n
}

func (a *Analyzer) analyzeCatch(f reader.Form, sc *scope) *CatchClause {
	rest := f.Elems[1:]
	if len(rest) < 2 {
		a.fail(f.Pos, "catch requires an exception type, a binding symbol and a body")
		return nil
	}
	typeForm, nameForm := rest[0], rest[1]
	excType := ""
	if typeForm.Kind == reader.KindSymbol && typeForm.Ns == "" && typeForm.Name != "_" && typeForm.Name != "Exception" {
		excType = typeForm.Name
	}
	if nameForm.Kind != reader.KindSymbol || nameForm.Ns != "" {
		a.fail(nameForm.Pos, "catch binding must be an unqualified symbol")
		return nil
	}
	b := &Binding{ID: a.newBindingID(), Name: nameForm.Name, Pos: nameForm.Pos, OwnerFn: sc.ownerFn}
	catchScope := newScope(sc, sc.ownerFn)
	catchScope.define(b)
	doBody := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, rest[2:]...)}
	body := a.analyzeNonTail(doBody, catchScope)
	return &CatchClause{ExceptionType: excType, Binding: b, Body: body}
}
