package ir

import (
	"fmt"
	"strings"

	"github.com/Bihan/xla/types/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// NodeID is a unique identifier of a Node within its Graph, assigned in
// creation order. Since operands must exist before their consumers, creation
// order is also a valid topological order.
type NodeID int

// Output references one of the (possibly several) values produced by a Node.
// Most nodes produce a single value, referenced with Index 0.
//
// Output is the edge type of the graph: operators take and return Outputs.
type Output struct {
	Node  *Node
	Index int
}

// Ok returns whether the Output references a node.
func (o Output) Ok() bool { return o.Node != nil }

var _ shapes.HasShape = Output{}

// Shape of the value this Output references.
func (o Output) Shape() shapes.Shape {
	return o.Node.OutputShape(o.Index)
}

// DType of the value this Output references, a shortcut to Shape().DType.
func (o Output) DType() dtypes.DType {
	return o.Shape().DType
}

// Hash of the Output: the producer's structural hash combined with the output
// index. This is what consumers fold into their own hashes, making node
// hashes transitive over the whole subgraph.
func (o Output) Hash() Hash {
	return HashCombine(o.Node.Hash(), Hash(o.Index))
}

// String returns "#<node id>" for single-output producers and
// "#<node id>.<index>" otherwise.
func (o Output) String() string {
	if o.Node == nil {
		return "#<nil>"
	}
	if o.Node.numOutputs == 1 {
		return fmt.Sprintf("#%d", o.Node.id)
	}
	return fmt.Sprintf("#%d.%d", o.Node.id, o.Index)
}

// Attrs is the kind-specific attributes block of a Node: the operator
// parameters that are not operands, like a dimension index, a target dtype or
// an output-size list.
//
// Implementations must be immutable after construction. AddToHash must cover
// every parameter that affects the operator's semantics, and String must
// display them all: together they stand in for attribute equality.
type Attrs interface {
	// AddToHash folds every attribute into the hasher.
	AddToHash(h *Hasher)

	// String renders the attributes for graph dumps, e.g. "dim=1".
	// It returns "" when there is nothing to display.
	String() string
}

// Node is one vertex of the computation graph: an operator application,
// immutable after construction.
//
// Nodes are created by the operator constructors (see package ir/ops) or
// generically with NewNode, always attached to a Graph. Rewrites never mutate
// a Node, they produce new ones via Clone.
type Node struct {
	graph      *Graph
	id         NodeID
	kind       OpKind
	operands   []Output
	attrs      Attrs
	shape      shapes.Shape
	numOutputs int
	hash       Hash
}

// Graph that owns this node.
func (n *Node) Graph() *Graph { return n.graph }

// ID of the node within its graph.
func (n *Node) ID() NodeID { return n.id }

// Kind identifying the operator.
func (n *Node) Kind() OpKind { return n.kind }

// NumOperands returns the number of operands.
func (n *Node) NumOperands() int { return len(n.operands) }

// Operand returns the ii-th operand.
func (n *Node) Operand(ii int) Output { return n.operands[ii] }

// Operands returns the operand list. Don't modify the returned slice.
func (n *Node) Operands() []Output { return n.operands }

// Attrs returns the kind-specific attributes block, or nil.
func (n *Node) Attrs() Attrs { return n.attrs }

// NumOutputs returns how many values this node produces, at least 1.
func (n *Node) NumOutputs() int { return n.numOutputs }

// Shape of the node's value. Multi-output nodes report a tuple shape, see
// OutputShape for the per-output shapes.
func (n *Node) Shape() shapes.Shape { return n.shape }

// OutputShape returns the shape of the ii-th output.
func (n *Node) OutputShape(ii int) shapes.Shape {
	if ii < 0 || ii >= n.numOutputs {
		exceptions.Panicf("Node.OutputShape(%d) out-of-bounds, node %s has %d output(s)", ii, n, n.numOutputs)
	}
	return n.shape.TupleShape(ii)
}

// Hash returns the structural hash: a deterministic function of the kind, the
// attributes, the operand hashes (transitively) and the output count.
func (n *Node) Hash() Hash { return n.hash }

// Out returns an Output referencing the ii-th value of this node.
func (n *Node) Out(ii int) Output {
	if ii < 0 || ii >= n.numOutputs {
		exceptions.Panicf("Node.Out(%d) out-of-bounds, node %s has %d output(s)", ii, n, n.numOutputs)
	}
	return Output{Node: n, Index: ii}
}

// First returns an Output referencing the node's first value, the whole value
// of a single-output node.
func (n *Node) First() Output { return Output{Node: n, Index: 0} }

// AssertValid panics if the node is nil or not properly constructed.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.graph == nil || !n.kind.Ok() {
		exceptions.Panicf("Node was not created by NewNode -- it has no graph or no kind")
	}
}

// String renders the node for diagnostics: kind, operand references,
// attributes and result shape. Never use it for identity, see Hash.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	parts := make([]string, 0, len(n.operands)+1)
	for _, operand := range n.operands {
		parts = append(parts, operand.String())
	}
	if n.attrs != nil {
		if attrs := n.attrs.String(); attrs != "" {
			parts = append(parts, attrs)
		}
	}
	return fmt.Sprintf("%s(%s) -> %s", n.kind, strings.Join(parts, ", "), n.shape)
}
