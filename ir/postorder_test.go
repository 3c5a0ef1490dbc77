package ir_test

import (
	"testing"

	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/ir/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds c = Add(Exp(x), Tanh(x)) and returns the four outputs.
func diamond(t *testing.T) (x, a, b, c ir.Output) {
	t.Helper()
	g := ir.NewGraph("diamond")
	x = mustParam(t, g, "x", 2)
	var err error
	a, err = ops.Exp(x)
	require.NoError(t, err)
	b, err = ops.Tanh(x)
	require.NoError(t, err)
	c, err = ops.Add(a, b)
	require.NoError(t, err)
	return
}

func TestPostOrder(t *testing.T) {
	x, a, b, c := diamond(t)

	t.Run("SharedOperandOnce", func(t *testing.T) {
		order := ir.PostOrder(c)
		require.Equal(t, []*ir.Node{x.Node, a.Node, b.Node, c.Node}, order)
	})

	t.Run("OperandsBeforeConsumers", func(t *testing.T) {
		order := ir.PostOrder(c)
		position := make(map[*ir.Node]int, len(order))
		for ii, node := range order {
			_, seen := position[node]
			require.False(t, seen, "node %s visited twice", node)
			position[node] = ii
		}
		for _, node := range order {
			for jj := 0; jj < node.NumOperands(); jj++ {
				assert.Less(t, position[node.Operand(jj).Node], position[node])
			}
		}
	})

	t.Run("MultiRoot", func(t *testing.T) {
		// The second root's subgraph is already covered by the first.
		order := ir.PostOrder(c, a)
		assert.Equal(t, []*ir.Node{x.Node, a.Node, b.Node, c.Node}, order)

		// Roots listed leaf-first: the shared leaf is not revisited.
		order = ir.PostOrder(a, c)
		assert.Equal(t, []*ir.Node{x.Node, a.Node, b.Node, c.Node}, order)
	})

	t.Run("SingleNode", func(t *testing.T) {
		assert.Equal(t, []*ir.Node{x.Node}, ir.PostOrder(x))
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := ir.PostOrder(c)
		for ii := 0; ii < 10; ii++ {
			assert.Equal(t, first, ir.PostOrder(c))
		}
	})
}

func TestPostOrderRepeatedOperand(t *testing.T) {
	g := ir.NewGraph("repeated")
	x := mustParam(t, g, "x", 2)
	sum, err := ops.Add(x, x)
	require.NoError(t, err)
	assert.Equal(t, []*ir.Node{x.Node, sum.Node}, ir.PostOrder(sum))
}
