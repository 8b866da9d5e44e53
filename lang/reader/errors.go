package reader

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cljcore/cljc/lang/token"
)

// SyntaxError is one reader diagnostic, tied to the Pos where it was raised.
type SyntaxError struct {
	Pos token.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ErrorList collects every SyntaxError raised while reading a source, mirroring
// go/scanner.ErrorList so a whole file's worth of diagnostics can be reported
// at once instead of stopping at the first one.
type ErrorList []*SyntaxError

func (el *ErrorList) Add(pos token.Pos, msg string) {
	*el = append(*el, &SyntaxError{Pos: pos, Msg: msg})
}

func (el ErrorList) Len() int      { return len(el) }
func (el ErrorList) Swap(i, j int) { el[i], el[j] = el[j], el[i] }
func (el ErrorList) Less(i, j int) bool {
	return el[i].Pos < el[j].Pos
}

func (el ErrorList) Sort() { sort.Sort(el) }

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var b strings.Builder
	b.WriteString(el[0].Error())
	fmt.Fprintf(&b, " (and %d more error(s))", len(el)-1)
	return b.String()
}

func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// PrintError writes err to w: every entry on its own line if err is an
// ErrorList, or err's own message otherwise. Mirrors go/scanner.PrintError.
func PrintError(w io.Writer, err error) {
	if el, ok := err.(ErrorList); ok {
		for _, e := range el {
			fmt.Fprintf(w, "%s\n", e)
		}
		return
	}
	fmt.Fprintf(w, "%s\n", err)
}
