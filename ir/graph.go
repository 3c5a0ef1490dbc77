package ir

import (
	"fmt"
	"strings"

	"github.com/Bihan/xla/types/xerrors"
	"github.com/Bihan/xla/types/xslices"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Graph is the arena owning the nodes of one computation graph.
//
// Nodes are appended in creation order and addressed by NodeID; since every
// operand must exist before its consumers, the arena order is also a
// topological order. Nodes are never removed individually: the whole graph is
// released together when no longer referenced.
//
// A Graph is single-goroutine while under construction. Once built, any
// number of goroutines may read it and lower it concurrently, each with its
// own LoweringContext.
type Graph struct {
	name  string
	nodes []*Node
}

// NewGraph creates an empty graph. If name is empty a unique one is generated.
func NewGraph(name string) *Graph {
	if name == "" {
		name = "graph-" + uuid.NewString()
	}
	return &Graph{name: name}
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// NumNodes returns how many nodes the graph holds.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		exceptions.Panicf("Graph(%q).NodeByID(%d) out-of-bounds, graph has %d nodes", g.name, id, len(g.nodes))
	}
	return g.nodes[id]
}

// Nodes returns the graph's nodes in creation (topological) order.
// Don't modify the returned slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// AssertValid panics if the graph is nil.
func (g *Graph) AssertValid() {
	if g == nil {
		exceptions.Panicf("Graph is nil")
	}
}

// NewNode creates a node applying the operator kind to the given operands and
// attributes, infers its shape, computes its structural hash and registers it
// into the graph.
//
// The kind must have been registered (see RegisterOp): the operator
// constructors in package ir/ops are the usual entry points, NewNode is the
// generic one they share.
//
// It returns an InvalidArgument error if the kind is unknown or if shape
// inference rejects the operands/attributes combination; nothing is
// registered in that case. Nil or foreign-graph operands are a programming
// error and panic.
func NewNode(g *Graph, kind OpKind, operands []Output, attrs Attrs) (*Node, error) {
	g.AssertValid()
	if !kind.Ok() {
		exceptions.Panicf("NewNode given an invalid OpKind -- create kinds with ir.Kind")
	}
	for ii, operand := range operands {
		if operand.Node == nil {
			exceptions.Panicf("NewNode(%s): operand %d is nil", kind, ii)
		}
		operand.Node.AssertValid()
		if operand.Node.graph != g {
			exceptions.Panicf("NewNode(%s): operand %d (%s) belongs to graph %q, not to graph %q -- "+
				"mixing nodes from different graphs is not allowed",
				kind, ii, operand, operand.Node.graph.name, g.name)
		}
		if operand.Index < 0 || operand.Index >= operand.Node.numOutputs {
			exceptions.Panicf("NewNode(%s): operand %d references output %d of a node with %d output(s)",
				kind, ii, operand.Index, operand.Node.numOutputs)
		}
	}

	def, found := OpDefFor(kind)
	if !found {
		return nil, xerrors.InvalidArgumentf("operator %s is not registered", kind)
	}
	shape, err := def.Infer(operands, attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s node", kind)
	}
	if def.NumOutputs > 1 {
		if !shape.IsTuple() || shape.TupleSize() != def.NumOutputs {
			return nil, xerrors.Internalf(
				"operator %s declares %d outputs but its shape inference returned %s",
				kind, def.NumOutputs, shape)
		}
	} else if shape.IsTuple() {
		return nil, xerrors.Internalf(
			"operator %s declares a single output but its shape inference returned the tuple %s", kind, shape)
	}

	node := &Node{
		graph:      g,
		id:         NodeID(len(g.nodes)),
		kind:       kind,
		operands:   xslices.Copy(operands),
		attrs:      attrs,
		shape:      shape,
		numOutputs: def.NumOutputs,
	}
	hasher := NewHasher()
	hasher.WriteHash(kind.Hash())
	if attrs != nil {
		attrs.AddToHash(hasher)
	}
	for _, operand := range node.operands {
		hasher.WriteHash(operand.Hash())
	}
	hasher.WriteInt(node.numOutputs)
	node.hash = hasher.Sum()

	g.nodes = append(g.nodes, node)
	return node, nil
}

// Stats summarizes a graph: node counts per operator kind and the total
// memory the node outputs would occupy if materialized.
type Stats struct {
	NumNodes     int
	NodesPerKind map[string]int
	OutputMemory uintptr
}

// Stats computes the graph's summary.
func (g *Graph) Stats() Stats {
	stats := Stats{
		NumNodes:     len(g.nodes),
		NodesPerKind: make(map[string]int),
	}
	for _, node := range g.nodes {
		stats.NodesPerKind[node.kind.String()]++
		stats.OutputMemory += node.shape.Memory()
	}
	return stats
}

// String renders the stats in one line, e.g.
// "5 nodes (aten::add: 2, xla::device_data: 3), outputs 1.3 kB".
func (s Stats) String() string {
	perKind := make([]string, 0, len(s.NodesPerKind))
	for _, kind := range xslices.SortedKeys(s.NodesPerKind) {
		perKind = append(perKind, fmt.Sprintf("%s: %s", kind, humanize.Comma(int64(s.NodesPerKind[kind]))))
	}
	return fmt.Sprintf("%s nodes (%s), outputs %s",
		humanize.Comma(int64(s.NumNodes)), strings.Join(perKind, ", "), humanize.Bytes(uint64(s.OutputMemory)))
}

// String converts the Graph to a multi-line string, one line per node in
// creation order. It is a diagnostics format, not a persisted one.
func (g *Graph) String() string {
	parts := []string{fmt.Sprintf("Graph %q: %s", g.name, g.Stats())}
	for ii, node := range g.nodes {
		parts = append(parts, fmt.Sprintf("#%d\t%s", ii, node))
	}
	return strings.Join(parts, "\n")
}
