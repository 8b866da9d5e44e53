package value

import "strings"

// Set is a persistent collection of distinct values with order-independent
// equality,.
type Set struct {
	linear []Value
	big    *bucketed
}

var EmptySet = &Set{}

var (
	_ Value    = EmptySet
	_ Counted  = EmptySet
	_ Iterable = EmptySet
)

// NewSet builds a set from elems, discarding duplicates (the last write for
// duplicate "equal" elements is unobservable since sets carry no value
// payload distinct from the element itself).
func NewSet(elems ...Value) *Set {
	s := &Set{}
	for _, e := range elems {
		s.add(e)
	}
	return s
}

func (s *Set) add(v Value) {
	if s.big != nil {
		s.big.put(v)
		return
	}
	for _, e := range s.linear {
		if Equal(e, v) {
			return
		}
	}
	s.linear = append(s.linear, v)
	if len(s.linear) > smallMapThreshold {
		big := newBucketed(len(s.linear) * 2)
		for _, e := range s.linear {
			big.put(e)
		}
		s.big = big
		s.linear = nil
	}
}

func (s *Set) Has(v Value) bool {
	if s.big != nil {
		return s.big.has(v)
	}
	for _, e := range s.linear {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// Get implements a Mapping-shaped lookup so that a Set can be called as a
// function, ((my-set x) returns x if present, else nil).
func (s *Set) Get(v Value) (Value, bool) {
	if s.Has(v) {
		return v, true
	}
	return nil, false
}

func (s *Set) Count() int {
	if s.big != nil {
		return s.big.count()
	}
	return len(s.linear)
}

func (s *Set) Conj(v Value) *Set {
	next := NewSet(s.Seq()...)
	next.add(v)
	return next
}

func (s *Set) Disj(v Value) *Set {
	next := &Set{}
	for _, e := range s.Seq() {
		if !Equal(e, v) {
			next.add(e)
		}
	}
	return next
}

func (s *Set) Seq() []Value {
	if s.big != nil {
		var out []Value
		s.big.each(func(v Value) bool { out = append(out, v); return true })
		return out
	}
	out := make([]Value, len(s.linear))
	copy(out, s.linear)
	return out
}

func (s *Set) Iterator() Iterator { return &sliceIterator{elems: s.Seq()} }

func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteString("#{")
	for i, e := range s.Seq() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Print(e))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (s *Set) Type() string { return "set" }
func (s *Set) Truth() bool  { return true }
func (s *Set) Tag() Tag     { return TagSet }
