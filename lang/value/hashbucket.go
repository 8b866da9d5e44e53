package value

import "github.com/dolthub/swiss"

// bucketed is a small helper shared by ArrayMap and Set once they outgrow
// their linear-scan representation. Value keys are not Go-comparable in the
// general case (e.g. two distinct *Vector pointers with equal elements must
// hash and compare equal), so rather than keying a swiss.Map directly by
// Value (which would fall back to pointer identity for composite keys), we
// bucket by the value's canonical printed form and resolve collisions with
// the real structural Equal. This keeps the common case (keyword, symbol,
// string, number keys, which print injectively) at swiss's O(1) average
// lookup while staying correct for composite keys.
type bucketed struct {
	m *swiss.Map[string, []Value]
}

func newBucketed(sizeHint int) *bucketed {
	if sizeHint < 1 {
		sizeHint = 1
	}
	return &bucketed{m: swiss.NewMap[string, []Value](uint32(sizeHint))}
}

func hashKey(v Value) string { return Print(v) }

// find returns the bucket slice and the index of v within it, or -1 if v is
// not present.
func (b *bucketed) find(v Value) ([]Value, int) {
	bucket, ok := b.m.Get(hashKey(v))
	if !ok {
		return nil, -1
	}
	for i, cand := range bucket {
		if Equal(cand, v) {
			return bucket, i
		}
	}
	return bucket, -1
}

func (b *bucketed) has(v Value) bool {
	_, i := b.find(v)
	return i >= 0
}

// put inserts v (as a set element) or overwrites it if already present,
// reporting whether it was newly added.
func (b *bucketed) put(v Value) bool {
	key := hashKey(v)
	bucket, _ := b.m.Get(key)
	for _, cand := range bucket {
		if Equal(cand, v) {
			return false
		}
	}
	b.m.Put(key, append(bucket, v))
	return true
}

func (b *bucketed) delete(v Value) bool {
	key := hashKey(v)
	bucket, ok := b.m.Get(key)
	if !ok {
		return false
	}
	for i, cand := range bucket {
		if Equal(cand, v) {
			next := append(append([]Value(nil), bucket[:i]...), bucket[i+1:]...)
			if len(next) == 0 {
				b.m.Delete(key)
			} else {
				b.m.Put(key, next)
			}
			return true
		}
	}
	return false
}

func (b *bucketed) count() int {
	n := 0
	b.m.Iter(func(_ string, bucket []Value) bool {
		n += len(bucket)
		return false
	})
	return n
}

func (b *bucketed) each(fn func(v Value) bool) {
	b.m.Iter(func(_ string, bucket []Value) bool {
		for _, v := range bucket {
			if !fn(v) {
				return true
			}
		}
		return false
	})
}
