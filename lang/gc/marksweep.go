package gc

// MarkSweep is a real mark-sweep Collector,. Heap objects
// register themselves as they are allocated; a collection walks Roots,
// marking every object transitively reachable from them, then drops the
// collector's own reference to everything left unmarked. Because the host
// Go runtime owns the underlying memory, "sweeping" here means forgetting
// the collector's strong reference so the object becomes ordinary
// Go-GC-eligible garbage — this package performs liveness bookkeeping, not
// memory reclamation.
type MarkSweep struct {
	threshold int64
	allocated int64
	live      []Markable

	// Collections counts completed collection passes, for tests and
	// diagnostics that want to observe a collection actually ran.
	Collections int
}

// NewMarkSweep returns a Collector that runs a collection once at least
// thresholdBytes have been allocated since the last one.
func NewMarkSweep(thresholdBytes int64) *MarkSweep {
	return &MarkSweep{threshold: thresholdBytes}
}

// Register adds obj to the set a future sweep may collect. The VM calls
// this (through Thread.trackHeap) for the heap kinds it tracks: closures,
// protocol fns, multimethods, lazy-seq thunks.
func (m *MarkSweep) Register(obj Markable) {
	m.live = append(m.live, obj)
}

func (m *MarkSweep) Allocate(bytes int) {
	m.allocated += int64(bytes)
}

func (m *MarkSweep) CollectIfNeeded(roots Roots) {
	if m.allocated < m.threshold {
		return
	}
	for _, obj := range m.live {
		obj.SetMarked(false)
	}
	for _, obj := range roots.Stack {
		markOne(obj)
	}
	for _, frame := range roots.Frames {
		for _, obj := range frame {
			markOne(obj)
		}
	}
	for _, obj := range roots.VarRoots {
		markOne(obj)
	}

	kept := m.live[:0]
	for _, obj := range m.live {
		if obj.Marked() {
			kept = append(kept, obj)
		}
	}
	m.live = kept
	m.allocated = 0
	m.Collections++
}

func markOne(obj Markable) {
	if obj == nil || obj.Marked() {
		return
	}
	obj.SetMarked(true)
	obj.MarkChildren(markOne)
}

// MarkSlice is a hook required by the Collector trait shape; this
// implementation's liveness tracking is entirely object-graph based
// (see Register), so non-Value byte slices need no separate bookkeeping
// here — their owning FnProto is itself a Markable reachable (or not)
// through the ordinary root walk above.
func (m *MarkSweep) MarkSlice([]byte) {}

// Live reports how many objects currently survive, for tests.
func (m *MarkSweep) Live() int { return len(m.live) }
