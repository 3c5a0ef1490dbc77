package ir

import (
	"github.com/Bihan/xla/types/xerrors"
)

// Clone creates a new node with the same kind and attributes as n, bound to
// newOperands. The shape is re-inferred against the new operands, never
// copied: after a rewrite the operands may produce different shapes (a dtype
// cast upstream, say) and the clone must reflect them. The structural hash is
// likewise recomputed.
//
// newOperands must have the same arity as n's operand list, otherwise Clone
// returns an InvalidArgument error. The clone registers into the graph owning
// the new operands; a leaf node (no operands) clones into its own graph.
//
// This is the only graph "mutation" primitive: rewrite passes build new
// operand lists and clone nodes onto them, originals are never edited.
func Clone(n *Node, newOperands []Output) (*Node, error) {
	n.AssertValid()
	if len(newOperands) != len(n.operands) {
		return nil, xerrors.InvalidArgumentf(
			"cloning %s node: got %d operands, the original has %d -- Clone preserves arity",
			n.kind, len(newOperands), len(n.operands))
	}
	graph := n.graph
	if len(newOperands) > 0 && newOperands[0].Node != nil {
		graph = newOperands[0].Node.graph
	}
	return NewNode(graph, n.kind, newOperands, n.attrs)
}

// ReplaceOperands rewrites the graph reachable from roots, replacing every
// use of a key node in replacements by the corresponding value node. Nodes
// whose (transitive) operands changed are cloned onto the new operands;
// untouched subgraphs are preserved by reference. It returns the rewritten
// roots, in order.
//
// A replacement must produce at least as many outputs as its key consumes --
// otherwise an InvalidArgument error is returned and the graph is left with
// whatever clones were already created (clones are pure additions, existing
// nodes are never modified).
func ReplaceOperands(roots []Output, replacements map[*Node]*Node) ([]Output, error) {
	rewritten := make(map[*Node]*Node, len(replacements))
	for original, replacement := range replacements {
		original.AssertValid()
		replacement.AssertValid()
		rewritten[original] = replacement
	}

	mapOutput := func(o Output) (Output, error) {
		target, found := rewritten[o.Node]
		if !found {
			return o, nil
		}
		if o.Index >= target.NumOutputs() {
			return Output{}, xerrors.InvalidArgumentf(
				"replacing %s node by %s node: output %d is consumed but the replacement has only %d output(s)",
				o.Node.kind, target.kind, o.Index, target.NumOutputs())
		}
		return Output{Node: target, Index: o.Index}, nil
	}

	for _, node := range PostOrder(roots...) {
		if _, isReplaced := rewritten[node]; isReplaced {
			continue
		}
		changed := false
		newOperands := make([]Output, node.NumOperands())
		for ii, operand := range node.Operands() {
			mapped, err := mapOutput(operand)
			if err != nil {
				return nil, err
			}
			newOperands[ii] = mapped
			changed = changed || mapped != operand
		}
		if !changed {
			continue
		}
		clone, err := Clone(node, newOperands)
		if err != nil {
			return nil, err
		}
		rewritten[node] = clone
	}

	newRoots := make([]Output, len(roots))
	for ii, root := range roots {
		mapped, err := mapOutput(root)
		if err != nil {
			return nil, err
		}
		newRoots[ii] = mapped
	}
	return newRoots, nil
}
