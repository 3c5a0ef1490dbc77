package ir

import (
	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// LoweringContext is one lowering session: it drives a graph into a target
// compiler's builder, memoizing the backend handle of every node output it
// has already lowered.
//
// A context is single-owner and single-goroutine. Independent contexts are
// fully independent -- the same graph may be lowered concurrently into
// different contexts, and the handle sets they produce are unrelated.
//
// Any error fails the whole session: the context keeps returning that first
// error (see Err) and no further lowering is possible with it. The partially
// populated handle table is never usable for a Build.
type LoweringContext struct {
	name    string
	builder backends.Builder

	handles map[Output]backends.Op
	lowered map[*Node]bool
	err     error
}

// NewLoweringContext creates a lowering session targeting the given builder.
// If name is empty a unique one is generated.
func NewLoweringContext(name string, builder backends.Builder) *LoweringContext {
	if name == "" {
		name = "lowering-" + uuid.NewString()
	}
	return &LoweringContext{
		name:    name,
		builder: builder,
		handles: make(map[Output]backends.Op),
		lowered: make(map[*Node]bool),
	}
}

// Name of the lowering session.
func (ctx *LoweringContext) Name() string { return ctx.name }

// Builder returns the target builder this session lowers into.
func (ctx *LoweringContext) Builder() backends.Builder { return ctx.builder }

// Err returns the error that failed the session, or nil while it is healthy.
func (ctx *LoweringContext) Err() error { return ctx.err }

// NumLowered returns how many nodes were lowered so far.
func (ctx *LoweringContext) NumLowered() int { return len(ctx.lowered) }

func (ctx *LoweringContext) fail(err error) error {
	ctx.err = err
	return err
}

// GetOutputOp returns the backend handle the given node output was lowered
// to. It never lowers anything: asking for an output that was not lowered in
// this context returns a FailedPrecondition error.
func (ctx *LoweringContext) GetOutputOp(o Output) (backends.Op, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}
	o.Node.AssertValid()
	handle, found := ctx.handles[o]
	if !found {
		return nil, xerrors.FailedPreconditionf(
			"%s: node output %s (%s) was not lowered in this context", ctx.name, o, o.Node)
	}
	return handle, nil
}

// LowerNode lowers one node, assuming every operand was already lowered in
// this context -- the usual driver is LowerGraph, which guarantees that by
// traversing in post-order.
//
// Lowering is idempotent per context: a second call for the same node is a
// cheap no-op, the memoized handles stay.
//
// Errors: a missing operand handle is a topological-order violation and fails
// with FailedPrecondition naming both nodes. A rejection by the builder
// means shape inference let something through that the target refuses, a bug
// reported as Internal, identifying the node. Either way the session is dead
// afterwards.
func (ctx *LoweringContext) LowerNode(n *Node) error {
	if ctx.err != nil {
		return ctx.err
	}
	n.AssertValid()
	if ctx.lowered[n] {
		return nil
	}

	inputs := make([]backends.Op, n.NumOperands())
	for ii, operand := range n.Operands() {
		handle, found := ctx.handles[operand]
		if !found {
			return ctx.fail(xerrors.FailedPreconditionf(
				"%s: lowering %s before its operand %d (%s) -- nodes must be lowered in topological order",
				ctx.name, n, ii, operand.Node))
		}
		inputs[ii] = handle
	}

	def, found := OpDefFor(n.Kind())
	if !found {
		// A constructed node always had a registered kind; losing it is a bug.
		return ctx.fail(xerrors.Internalf("%s: no operator definition for %s while lowering %s",
			ctx.name, n.Kind(), n))
	}
	outputs, err := def.Lower(ctx.builder, n, inputs)
	if err != nil {
		return ctx.fail(xerrors.Internalf("%s: backend rejected node %s: %v", ctx.name, n, err))
	}
	if len(outputs) != n.NumOutputs() {
		return ctx.fail(xerrors.Internalf(
			"%s: lowering %s emitted %d handles, the node produces %d output(s)",
			ctx.name, n, len(outputs), n.NumOutputs()))
	}
	for ii, handle := range outputs {
		ctx.handles[Output{Node: n, Index: ii}] = handle
	}
	ctx.lowered[n] = true
	klog.V(2).Infof("%s: lowered %s", ctx.name, n)
	return nil
}

// LowerGraph lowers everything reachable from the given outputs, in
// post-order, each node at most once.
func (ctx *LoweringContext) LowerGraph(outputs ...Output) error {
	if ctx.err != nil {
		return ctx.err
	}
	for _, node := range PostOrder(outputs...) {
		if err := ctx.LowerNode(node); err != nil {
			return err
		}
	}
	klog.V(1).Infof("%s: lowered %d node(s) for %d output(s)", ctx.name, len(ctx.lowered), len(outputs))
	return nil
}

// Build lowers everything reachable from outputs and finalizes the builder
// with their handles, returning the target compiler's computation.
//
// The context is spent afterwards, whether Build succeeded or not.
func (ctx *LoweringContext) Build(outputs ...Output) (backends.Computation, error) {
	if err := ctx.LowerGraph(outputs...); err != nil {
		return nil, err
	}
	handles := make([]backends.Op, len(outputs))
	for ii, output := range outputs {
		handle, err := ctx.GetOutputOp(output)
		if err != nil {
			return nil, err
		}
		handles[ii] = handle
	}
	computation, err := ctx.builder.Build(handles...)
	if err != nil {
		return nil, ctx.fail(xerrors.Internalf("%s: backend failed to build the computation: %v", ctx.name, err))
	}
	ctx.fail(xerrors.FailedPreconditionf("%s: context already finalized by Build", ctx.name))
	return computation, nil
}
