package value

import "strings"

// List is a persistent singly-linked sequence. Conjoining onto a List adds
// to the front in O(1) and never mutates the receiver, matching the
// semantics of Clojure's seq/list abstraction. The empty list is a shared
// sentinel (EmptyList), so an empty List carries no backing allocation.
type List struct {
	first Value
	rest  *List
	count int
}

// EmptyList is the canonical empty list value; every empty List value in the
// system should be this pointer so identity checks for emptiness are cheap,
// though equality never relies on identity.
var EmptyList = &List{}

var (
	_ Value      = EmptyList
	_ Sequential = EmptyList
	_ Counted    = EmptyList
	_ Iterable   = EmptyList
)

// NewList builds a list containing elems in order, i.e. NewList(1,2,3).Seq()
// == []Value{1,2,3}.
func NewList(elems ...Value) *List {
	l := EmptyList
	for i := len(elems) - 1; i >= 0; i-- {
		l = l.Cons(elems[i])
	}
	return l
}

// Cons returns a new list with v prepended to the receiver.
func (l *List) Cons(v Value) *List {
	return &List{first: v, rest: l, count: l.count + 1}
}

// IsEmpty reports whether the list has no elements.
func (l *List) IsEmpty() bool { return l.count == 0 }

// First returns the head of the list, or Nil if empty.
func (l *List) First() Value {
	if l.IsEmpty() {
		return Nil
	}
	return l.first
}

// Rest returns the tail of the list; the tail of an empty list is itself.
func (l *List) Rest() *List {
	if l.IsEmpty() {
		return EmptyList
	}
	return l.rest
}

func (l *List) Count() int { return l.count }

func (l *List) Seq() []Value {
	out := make([]Value, 0, l.count)
	for n := l; !n.IsEmpty(); n = n.rest {
		out = append(out, n.first)
	}
	return out
}

func (l *List) Iterator() Iterator { return &listIterator{n: l} }

type listIterator struct{ n *List }

func (it *listIterator) Next(p *Value) bool {
	if it.n.IsEmpty() {
		return false
	}
	*p = it.n.first
	it.n = it.n.rest
	return true
}

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for n, i := l, 0; !n.IsEmpty(); n, i = n.rest, i+1 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Print(n.first))
	}
	sb.WriteByte(')')
	return sb.String()
}

func (l *List) Type() string { return "list" }
func (l *List) Truth() bool  { return true }
func (l *List) Tag() Tag     { return TagList }
