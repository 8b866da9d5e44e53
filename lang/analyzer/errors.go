package analyzer

import (
	"fmt"

	"github.com/cljcore/cljc/lang/token"
)

// Error is one analyzer diagnostic. The analyzer collects as many as it can
// (resuming after most errors) so a single pass reports every problem in a
// form rather than stopping at the first.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

func errf(pos token.Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
