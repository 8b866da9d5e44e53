package gc_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/gc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cell struct {
	marked bool
	next   *cell
}

func (c *cell) SetMarked(v bool) { c.marked = v }
func (c *cell) Marked() bool     { return c.marked }
func (c *cell) MarkChildren(mark func(gc.Markable)) {
	if c.next != nil {
		mark(c.next)
	}
}

func TestArenaNeverCollects(t *testing.T) {
	a := gc.NewArena()
	a.Allocate(1024)
	a.CollectIfNeeded(gc.Roots{})
	assert.EqualValues(t, 1024, a.Allocated)
}

func TestMarkSweepKeepsOnlyReachable(t *testing.T) {
	ms := gc.NewMarkSweep(10)
	reachable := &cell{}
	garbage := &cell{}
	ms.Register(reachable)
	ms.Register(garbage)
	ms.Allocate(100)

	ms.CollectIfNeeded(gc.Roots{Stack: []gc.Markable{reachable}})

	require.Equal(t, 1, ms.Collections)
	assert.Equal(t, 1, ms.Live())
}

func TestMarkSweepFollowsChildPointers(t *testing.T) {
	ms := gc.NewMarkSweep(10)
	tail := &cell{}
	head := &cell{next: tail}
	ms.Register(head)
	ms.Register(tail)
	ms.Allocate(100)

	ms.CollectIfNeeded(gc.Roots{Stack: []gc.Markable{head}})

	assert.Equal(t, 2, ms.Live())
}

func TestMarkSweepBelowThresholdSkipsCollection(t *testing.T) {
	ms := gc.NewMarkSweep(1000)
	ms.Register(&cell{})
	ms.Allocate(10)

	ms.CollectIfNeeded(gc.Roots{})

	assert.Equal(t, 0, ms.Collections)
	assert.Equal(t, 1, ms.Live())
}

func TestMarkSweepHandlesCycles(t *testing.T) {
	ms := gc.NewMarkSweep(10)
	a := &cell{}
	b := &cell{next: a}
	a.next = b
	ms.Register(a)
	ms.Register(b)
	ms.Allocate(100)

	ms.CollectIfNeeded(gc.Roots{Stack: []gc.Markable{a}})

	assert.Equal(t, 2, ms.Live())
}
