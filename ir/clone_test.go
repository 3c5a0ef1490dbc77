package ir_test

import (
	"testing"

	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/ir/ops"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	g := ir.NewGraph("clone")
	x := mustParam(t, g, "x", 4, 8)
	soft, err := ops.LogSoftmax(x, 1)
	require.NoError(t, err)

	t.Run("ShapeReinferred", func(t *testing.T) {
		y := mustParam(t, g, "y", 2, 8)
		clone, err := ir.Clone(soft.Node, []ir.Output{y})
		require.NoError(t, err)
		assert.Equal(t, soft.Node.Kind(), clone.Kind())
		assert.Equal(t, soft.Node.Attrs(), clone.Attrs())
		assert.Equal(t, "(Float32)[2 8]", clone.Shape().String())
		assert.NotEqual(t, soft.Node.Hash(), clone.Hash())
	})

	t.Run("SameOperandsSameHash", func(t *testing.T) {
		clone, err := ir.Clone(soft.Node, []ir.Output{x})
		require.NoError(t, err)
		assert.NotSame(t, soft.Node, clone)
		assert.Equal(t, soft.Node.Hash(), clone.Hash())
		assert.True(t, ir.StructuralEqual(soft.Node, clone))
	})

	t.Run("ArityMismatch", func(t *testing.T) {
		_, err := ir.Clone(soft.Node, nil)
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "arity")
	})

	t.Run("ReinferenceFails", func(t *testing.T) {
		// axis=1 does not exist on a rank-1 operand: the attributes no
		// longer fit and the clone must be rejected, not mis-shaped.
		vec := mustParam(t, g, "vec", 8)
		_, err := ir.Clone(soft.Node, []ir.Output{vec})
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
	})
}

func TestReplaceOperands(t *testing.T) {
	t.Run("DiamondRewrite", func(t *testing.T) {
		x, a, b, c := diamond(t)
		y := mustParam(t, x.Node.Graph(), "y", 2)

		newRoots, err := ir.ReplaceOperands([]ir.Output{c}, map[*ir.Node]*ir.Node{x.Node: y.Node})
		require.NoError(t, err)
		require.Len(t, newRoots, 1)

		newC := newRoots[0].Node
		assert.NotSame(t, c.Node, newC)
		assert.Equal(t, c.Node.Kind(), newC.Kind())
		newA := newC.Operand(0).Node
		newB := newC.Operand(1).Node
		assert.Equal(t, a.Node.Kind(), newA.Kind())
		assert.Equal(t, b.Node.Kind(), newB.Kind())
		assert.Same(t, y.Node, newA.Operand(0).Node)
		assert.Same(t, y.Node, newB.Operand(0).Node)

		// Originals are untouched.
		assert.Same(t, x.Node, a.Node.Operand(0).Node)
		assert.Same(t, x.Node, c.Node.Operand(0).Node.Operand(0).Node)
	})

	t.Run("UntouchedBranchShared", func(t *testing.T) {
		_, a, b, c := diamond(t)
		negA, err := ops.Neg(a)
		require.NoError(t, err)

		// Replace a by Neg(a): b's subgraph is unaffected and must be
		// reused by reference, not cloned.
		newRoots, err := ir.ReplaceOperands([]ir.Output{c}, map[*ir.Node]*ir.Node{a.Node: negA.Node})
		require.NoError(t, err)
		newC := newRoots[0].Node
		assert.Same(t, negA.Node, newC.Operand(0).Node)
		assert.Same(t, b.Node, newC.Operand(1).Node)
	})

	t.Run("RootItselfReplaced", func(t *testing.T) {
		x, a, _, _ := diamond(t)
		newRoots, err := ir.ReplaceOperands([]ir.Output{a}, map[*ir.Node]*ir.Node{a.Node: x.Node})
		require.NoError(t, err)
		assert.Same(t, x.Node, newRoots[0].Node)
	})

	t.Run("NoChangeReturnsSameOutputs", func(t *testing.T) {
		x, _, _, c := diamond(t)
		other := mustParam(t, x.Node.Graph(), "other", 2)
		before := x.Node.Graph().NumNodes()
		newRoots, err := ir.ReplaceOperands([]ir.Output{c}, map[*ir.Node]*ir.Node{other.Node: x.Node})
		require.NoError(t, err)
		assert.Equal(t, c, newRoots[0])
		assert.Equal(t, before, x.Node.Graph().NumNodes(), "nothing cloned")
	})

	t.Run("MissingOutputRejected", func(t *testing.T) {
		g := ir.NewGraph("missing-output")
		x := mustParam(t, g, "x", 4, 8)
		_, indices, err := ops.TopK(x, 3, 1, true)
		require.NoError(t, err)
		neg, err := ops.Neg(indices)
		require.NoError(t, err)

		// The consumer uses output 1 of topk; a single-output replacement
		// cannot satisfy it.
		_, err = ir.ReplaceOperands([]ir.Output{neg}, map[*ir.Node]*ir.Node{indices.Node: x.Node})
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "output 1")
	})
}
