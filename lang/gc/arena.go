package gc

// Arena is a "never collects" Collector, an acceptable initial
// implementation for short-lived scripts. Allocate only tracks a running
// byte total (surfaced for
// ns-level memory introspection); CollectIfNeeded and MarkSlice are no-ops.
// Memory is reclaimed only when the host Go runtime's own collector reclaims
// the VM's objects after the VM itself goes out of scope.
type Arena struct {
	Allocated int64
}

// NewArena returns a Collector that never runs a collection.
func NewArena() *Arena { return &Arena{} }

func (a *Arena) Allocate(bytes int) { a.Allocated += int64(bytes) }

func (a *Arena) CollectIfNeeded(Roots) {}

func (a *Arena) MarkSlice([]byte) {}
