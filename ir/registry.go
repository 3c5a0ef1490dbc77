package ir

import (
	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xsync"
	"github.com/gomlx/exceptions"
)

// InferFn computes the output shape of an operator application from its
// operand references and attributes. It must be pure: same inputs, same
// shape. Multi-output operators return a tuple shape with one element per
// output.
//
// Violations of the operator's contract (an axis out of range, mismatched
// operand dtypes) are reported as InvalidArgument errors.
type InferFn func(operands []Output, attrs Attrs) (shapes.Shape, error)

// LowerFn emits the target-compiler operations for a node. It receives the
// already-lowered operand handles, in operand order, and returns exactly
// node.NumOutputs() handles.
//
// The builder's errors are passed through; the lowering pass classifies them.
type LowerFn func(builder backends.Builder, node *Node, inputs []backends.Op) ([]backends.Op, error)

// OpDef is the capability record of an operator kind: how to infer its shape,
// how to lower it, and how many outputs it produces. The operator catalogue
// (package ir/ops) registers one per OpKind it defines.
type OpDef struct {
	// Infer is required.
	Infer InferFn

	// Lower is required.
	Lower LowerFn

	// NumOutputs defaults to 1 when left 0.
	NumOutputs int
}

// opDefs is write-once per kind: lowering reads it concurrently, operators
// register from init functions.
var opDefs xsync.SyncMap[OpKind, OpDef]

// RegisterOp registers the OpDef for an operator kind. Operators are expected
// to register from an init function; registering the same kind twice, or an
// OpDef with a missing Infer or Lower, panics.
func RegisterOp(kind OpKind, def OpDef) {
	if !kind.Ok() {
		exceptions.Panicf("RegisterOp given an invalid OpKind")
	}
	if def.Infer == nil || def.Lower == nil {
		exceptions.Panicf("RegisterOp(%s): OpDef requires both Infer and Lower", kind)
	}
	if def.NumOutputs == 0 {
		def.NumOutputs = 1
	}
	if def.NumOutputs < 1 {
		exceptions.Panicf("RegisterOp(%s): NumOutputs must be >= 1, got %d", kind, def.NumOutputs)
	}
	if _, loaded := opDefs.LoadOrStore(kind, def); loaded {
		exceptions.Panicf("RegisterOp(%s): kind already registered", kind)
	}
}

// OpDefFor returns the registered OpDef of a kind.
func OpDefFor(kind OpKind) (OpDef, bool) {
	return opDefs.Load(kind)
}
