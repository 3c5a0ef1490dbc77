package ir_test

import (
	"testing"

	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/ir/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralEqual(t *testing.T) {
	g := ir.NewGraph("structural-equal")
	x := mustParam(t, g, "x", 2)
	y := mustParam(t, g, "y", 2)

	s1, err := ops.Add(x, y)
	require.NoError(t, err)
	s2, err := ops.Add(x, y)
	require.NoError(t, err)
	flipped, err := ops.Add(y, x)
	require.NoError(t, err)

	assert.True(t, ir.StructuralEqual(s1.Node, s1.Node))
	assert.True(t, ir.StructuralEqual(s1.Node, s2.Node))
	assert.False(t, ir.StructuralEqual(s1.Node, flipped.Node), "operand order is significant")
	assert.False(t, ir.StructuralEqual(s1.Node, x.Node))
	assert.False(t, ir.StructuralEqual(s1.Node, nil))

	// Operands are compared by identity: an equal-looking expression built
	// on different parameter nodes hashes the same but is not the same node.
	twin := ir.NewGraph("twin")
	tx := mustParam(t, twin, "x", 2)
	ty := mustParam(t, twin, "y", 2)
	tSum, err := ops.Add(tx, ty)
	require.NoError(t, err)
	assert.Equal(t, s1.Node.Hash(), tSum.Node.Hash())
	assert.False(t, ir.StructuralEqual(s1.Node, tSum.Node))
}

func TestNodeCache(t *testing.T) {
	g := ir.NewGraph("cse")
	x := mustParam(t, g, "x", 4, 8)
	y := mustParam(t, g, "y", 4, 8)

	cache := ir.NewNodeCache()

	t.Run("FirstRegisteredWins", func(t *testing.T) {
		s1, err := ops.Add(x, y)
		require.NoError(t, err)
		s2, err := ops.Add(x, y)
		require.NoError(t, err)

		assert.Same(t, s1.Node, cache.Lookup(s1.Node), "first occurrence becomes canonical")
		assert.Same(t, s1.Node, cache.Lookup(s2.Node), "duplicate resolves to the canonical node")
		assert.Same(t, s1.Node, cache.Lookup(s1.Node))
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("AttrsDistinguish", func(t *testing.T) {
		before := cache.Len()
		r0, err := ops.ReduceSum(x, []int{0}, false)
		require.NoError(t, err)
		r1, err := ops.ReduceSum(x, []int{1}, false)
		require.NoError(t, err)

		assert.Same(t, r0.Node, cache.Lookup(r0.Node))
		assert.Same(t, r1.Node, cache.Lookup(r1.Node))
		assert.Equal(t, before+2, cache.Len())
	})

	t.Run("OperandsDistinguish", func(t *testing.T) {
		xy, err := ops.Sub(x, y)
		require.NoError(t, err)
		yx, err := ops.Sub(y, x)
		require.NoError(t, err)

		assert.Same(t, xy.Node, cache.Lookup(xy.Node))
		assert.Same(t, yx.Node, cache.Lookup(yx.Node))
	})

	t.Run("MultiOutput", func(t *testing.T) {
		v1, _, err := ops.TopK(x, 3, 1, true)
		require.NoError(t, err)
		v2, _, err := ops.TopK(x, 3, 1, true)
		require.NoError(t, err)
		assert.Same(t, v1.Node, cache.Lookup(v1.Node))
		assert.Same(t, v1.Node, cache.Lookup(v2.Node))
	})

	t.Run("HashCollision", func(t *testing.T) {
		local, err := ops.Add(x, y)
		require.NoError(t, err)
		canonical := cache.Lookup(local.Node)

		// Same expression built on twin parameter nodes: the hashes agree,
		// but the operands differ by identity, so both stay in the bucket.
		twin := ir.NewGraph("cse-twin")
		tx := mustParam(t, twin, "x", 4, 8)
		ty := mustParam(t, twin, "y", 4, 8)
		tSum, err := ops.Add(tx, ty)
		require.NoError(t, err)
		require.Equal(t, canonical.Hash(), tSum.Node.Hash())

		before := cache.Len()
		assert.Same(t, tSum.Node, cache.Lookup(tSum.Node), "hash match alone never substitutes")
		assert.Equal(t, before+1, cache.Len())
	})
}

// Interning duplicates bottom-up deduplicates an entire expression: once the
// shared operands resolve to the same canonical nodes, the consumers become
// structurally equal in turn.
func TestNodeCacheBottomUp(t *testing.T) {
	g := ir.NewGraph("cse-bottom-up")
	x := mustParam(t, g, "x", 2)

	e1, err := ops.Exp(x)
	require.NoError(t, err)
	e2, err := ops.Exp(x)
	require.NoError(t, err)

	cache := ir.NewNodeCache()
	canonical := cache.Lookup(e1.Node)
	require.Same(t, e1.Node, canonical)
	require.Same(t, e1.Node, cache.Lookup(e2.Node))

	// Rebuild e2's consumer on the canonical operand, as a rewriting pass
	// funneling through the cache would.
	c1, err := ops.Add(e1, x)
	require.NoError(t, err)
	c2, err := ops.Add(canonical.First(), x)
	require.NoError(t, err)
	assert.Same(t, c1.Node, cache.Lookup(c1.Node))
	assert.Same(t, c1.Node, cache.Lookup(c2.Node))
}
