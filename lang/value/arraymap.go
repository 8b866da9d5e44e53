package value

import "strings"

// smallMapThreshold is the number of entries below which ArrayMap stays a
// linear-scan slice (cheap to build, cheap to iterate in insertion order,
// and what most literal maps and function argument maps look like).
// Crossing it promotes to the swiss-backed bucketed representation.
const smallMapThreshold = 8

// ArrayMap is the language's single map type: there is no separate
// hash-map. Equality is order-independent over key/value pairs. Every
// mutating operation returns a new
// ArrayMap, except SetKey, which mutates in place and is applied only to a
// map not yet observable by any other code (the fresh copy inside Assoc and
// Without, or a map from NewMapBuilder).
type ArrayMap struct {
	linear []mapEntry
	big    *bucketedMap
}

type mapEntry struct{ k, v Value }

type bucketedMap struct {
	keys *bucketed // stores keys only, for Keys()/iteration order-free listing
	vals map[string]Value
}

var EmptyMap = &ArrayMap{}

var (
	_ Value    = EmptyMap
	_ Mapping  = EmptyMap
	_ Counted  = EmptyMap
	_ Iterable = EmptyMap
)

// NewArrayMap builds a map from a flat key, value, key, value... list. It
// panics if the list has odd length; the reader/compiler must validate this
// earlier so an odd-length map literal is reported as a read or analysis
// error rather than reaching here.
func NewArrayMap(kvs ...Value) *ArrayMap {
	if len(kvs)%2 != 0 {
		panic("value: odd number of map literal arguments")
	}
	m := &ArrayMap{}
	for i := 0; i < len(kvs); i += 2 {
		m = m.Assoc(kvs[i], kvs[i+1]).(*ArrayMap)
	}
	return m
}

// NewMapBuilder returns an empty, not-yet-frozen ArrayMap, presized for
// sizeHint entries, to be filled via SetKey before it becomes observable to
// any other code. Compiled map literals do not use it: MAP_NEW builds them
// through NewArrayMap.
func NewMapBuilder(sizeHint int) *ArrayMap {
	if sizeHint <= smallMapThreshold {
		return &ArrayMap{}
	}
	return &ArrayMap{big: newBucketedMap(sizeHint)}
}

func newBucketedMap(sizeHint int) *bucketedMap {
	return &bucketedMap{keys: newBucketed(sizeHint), vals: make(map[string]Value, sizeHint)}
}

// SetKey mutates the receiver in place, for use only during map-literal
// construction (see NewMapBuilder). Using it on a map already shared with
// other code violates the persistence invariant.
func (m *ArrayMap) SetKey(k, v Value) {
	if m.big != nil {
		key := hashKey(k)
		if m.big.keys.put(k) {
			m.big.vals[key] = v
			return
		}
		m.big.vals[key] = v
		return
	}
	for i := range m.linear {
		if Equal(m.linear[i].k, k) {
			m.linear[i].v = v
			return
		}
	}
	m.linear = append(m.linear, mapEntry{k: k, v: v})
	if len(m.linear) > smallMapThreshold {
		m.promote()
	}
}

func (m *ArrayMap) promote() {
	big := newBucketedMap(len(m.linear) * 2)
	for _, e := range m.linear {
		big.keys.put(e.k)
		big.vals[hashKey(e.k)] = e.v
	}
	m.big = big
	m.linear = nil
}

func (m *ArrayMap) Count() int {
	if m.big != nil {
		return m.big.keys.count()
	}
	return len(m.linear)
}

func (m *ArrayMap) Get(k Value) (Value, bool) {
	if m.big != nil {
		v, ok := m.big.vals[hashKey(k)]
		if !ok || !m.big.keys.has(k) {
			return nil, false
		}
		return v, true
	}
	for _, e := range m.linear {
		if Equal(e.k, k) {
			return e.v, true
		}
	}
	return nil, false
}

func (m *ArrayMap) Keys() []Value {
	if m.big != nil {
		var out []Value
		m.big.keys.each(func(v Value) bool { out = append(out, v); return true })
		return out
	}
	out := make([]Value, len(m.linear))
	for i, e := range m.linear {
		out[i] = e.k
	}
	return out
}

// Items returns the key/value pairs, each as a 2-element slice, in an
// unspecified but stable-for-this-instance order.
func (m *ArrayMap) Items() [][2]Value {
	if m.big != nil {
		out := make([][2]Value, 0, m.Count())
		m.big.keys.each(func(k Value) bool {
			v := m.big.vals[hashKey(k)]
			out = append(out, [2]Value{k, v})
			return true
		})
		return out
	}
	out := make([][2]Value, len(m.linear))
	for i, e := range m.linear {
		out[i] = [2]Value{e.k, e.v}
	}
	return out
}

// Assoc returns a new ArrayMap with k bound to v.
func (m *ArrayMap) Assoc(k, v Value) Mapping {
	next := m.clone()
	next.SetKey(k, v)
	return next
}

// Without returns a new ArrayMap without k.
func (m *ArrayMap) Without(k Value) Mapping {
	next := &ArrayMap{}
	for _, e := range m.Items() {
		if !Equal(e[0], k) {
			next.SetKey(e[0], e[1])
		}
	}
	return next
}

func (m *ArrayMap) clone() *ArrayMap {
	next := &ArrayMap{}
	for _, e := range m.Items() {
		next.SetKey(e[0], e[1])
	}
	return next
}

func (m *ArrayMap) Iterator() Iterator {
	items := m.Items()
	pairs := make([]Value, len(items))
	for i, e := range items {
		pairs[i] = NewVector([]Value{e[0], e[1]})
	}
	return &sliceIterator{elems: pairs}
}

func (m *ArrayMap) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range m.Items() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Print(e[0]))
		sb.WriteByte(' ')
		sb.WriteString(Print(e[1]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (m *ArrayMap) Type() string { return "map" }
func (m *ArrayMap) Truth() bool  { return true }
func (m *ArrayMap) Tag() Tag     { return TagArrayMap }
