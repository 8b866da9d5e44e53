package treewalk

import "github.com/cljcore/cljc/lang/value"

// exTypeKey and friends mirror lang/vm/exceptions.go's synthetic exception
// shape exactly (:__ex_info true, :message, :data, :cause, :__ex_type), but
// are kept as this package's own unexported keys rather than imported: the
// two backends must build the identical shape independently for compare
// mode to mean anything.
var (
	exTypeKey    = value.NewKeyword("__ex_type")
	exInfoKey    = value.NewKeyword("__ex_info")
	exMessageKey = value.NewKeyword("message")
	exDataKey    = value.NewKeyword("data")
	exCauseKey   = value.NewKeyword("cause")
)

// thrown carries an uncaught exception value up through Go's ordinary error
// return path; KTry unwraps it to test against a catch clause's declared
// type.
type thrown struct {
	Value value.Value
}

func (t *thrown) Error() string { return "uncaught exception: " + value.Print(t.Value) }

// recurSignal carries recur's rebound values up through Go's error return
// path until it reaches the matching KLoop (by LoopID) or, for LoopID == -1,
// the enclosing fn arity's own tail.
type recurSignal struct {
	LoopID int
	Values []value.Value
}

func (r *recurSignal) Error() string { return "recur outside of loop or fn tail" }

func runtimeException(typeTag, message string) value.Value {
	return value.NewArrayMap(
		exInfoKey, value.Bool(true),
		exMessageKey, value.String(message),
		exDataKey, value.Nil,
		exCauseKey, value.Nil,
		exTypeKey, value.NewKeyword(typeTag),
	)
}

func exceptionType(exc value.Value) string {
	m, ok := exc.(*value.ArrayMap)
	if !ok {
		return ""
	}
	t, found := m.Get(exTypeKey)
	if !found {
		return ""
	}
	if kw, ok := t.(value.Keyword); ok {
		return kw.Name
	}
	return ""
}

// wrapError converts a Go error surfaced by evaluation into a raisable
// value: a *thrown's payload passes through unchanged (it already bubbled
// up from a nested throw or a nested runtime failure), anything else is
// wrapped as a runtime-error exception.
func wrapError(err error) value.Value {
	if th, ok := err.(*thrown); ok {
		return th.Value
	}
	if ne, ok := err.(*numericError); ok {
		return runtimeException("arithmetic-error", ne.Error())
	}
	if ue, ok := err.(*value.ErrUnsupportedNumeric); ok {
		return runtimeException("unsupported-numeric", ue.Error())
	}
	return runtimeException("runtime-error", err.Error())
}
