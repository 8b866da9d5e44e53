package vm

import "github.com/cljcore/cljc/lang/value"

// exTypeKey is the map key a thrown ArrayMap carries its type tag under, per
// the synthetic exception shape (:__ex_info true, :message, :data,
// :cause, :__ex_type), so EXCEPTION_TYPE_CHECK can match a catch clause's
// declared type against both user (throw (ex-info ...)) values and internal
// runtime errors uniformly.
var (
	exTypeKey    = value.NewKeyword("__ex_type")
	exInfoKey    = value.NewKeyword("__ex_info")
	exMessageKey = value.NewKeyword("message")
	exDataKey    = value.NewKeyword("data")
	exCauseKey   = value.NewKeyword("cause")
)

// runtimeException builds the synthetic ArrayMap an internal Go error is
// wrapped in before it becomes a raisable value.Value, so arithmetic
// failures, bad arities and the like are catchable the same way a user
// (throw (ex-info ...)) is.
func runtimeException(typeTag, message string) value.Value {
	return value.NewArrayMap(
		exInfoKey, value.Bool(true),
		exMessageKey, value.String(message),
		exDataKey, value.Nil,
		exCauseKey, value.Nil,
		exTypeKey, value.NewKeyword(typeTag),
	)
}

// exceptionType extracts the value an EXCEPTION_TYPE_CHECK clause matches
// against: the __ex_type keyword's name for an ArrayMap exception, or "" for
// any other shape (which only satisfies a catch-all, untyped catch clause).
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

// raise pops the innermost active handler (if any) and rewinds frame to
// that handler's recorded depth before placing exc on top and jumping to
// its catch address, catch-search model. It returns false
// when frame has no active handler, meaning exc must propagate out of this
// frame entirely (as a *thrown error from runFrame) for an enclosing Go
// call frame to retry against its own handler stack.
func raise(frame *Frame, exc value.Value) bool {
	n := len(frame.handlers)
	if n == 0 {
		return false
	}
	h := frame.handlers[n-1]
	frame.handlers = frame.handlers[:n-1]
	frame.sp = h.sp
	frame.push(exc)
	frame.pc = h.catchPC
	return true
}
