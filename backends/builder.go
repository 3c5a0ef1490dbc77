package backends

import (
	"github.com/Bihan/xla/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// Op represents the output of an operation during computation building time.
//
// It is opaque from the graph layer's perspective: it only passes Op values as
// inputs to other Builder methods. Handles are only meaningful within the
// Builder that created them.
type Op any

// Computation is the artifact returned by Builder.Build: the target compiler's
// compile-ready representation of the computation. Concrete backends return
// richer types behind this interface.
type Computation interface {
	// Name of the computation, as given to Backend.Builder.
	Name() string

	// NumOutputs returns the number of outputs given to Builder.Build.
	NumOutputs() int
}

// Builder defines the set of operations supported when building a computation.
// It is the sub-interface of Backend.
//
// All methods return an error for invalid inputs or unsupported operations;
// a returned Op is only valid if the error is nil. Handles from a different
// builder are a programming error and may panic.
type Builder interface {
	// Name of the computation being built.
	Name() string

	// Build finalizes the computation with the given outputs. It invalidates
	// the Builder: no further operations can be created afterwards.
	Build(outputs ...Op) (Computation, error)

	// OpShape returns the shape of a computation Op.
	// Notice this is not an operation and doesn't change the computation being built.
	OpShape(op Op) (shapes.Shape, error)

	// Parameter creates an input parameter for the computation.
	// During execution of the compiled computation this value will need to be fed
	// in the same order it is created.
	Parameter(name string, shape shapes.Shape) (Op, error)

	// Constant creates a constant in the computation with the given flat values,
	// and the shape defined by dims.
	//
	// flat must be a slice of a basic type supported -- that can be converted to a DType --
	// or a scalar value if dims is empty.
	Constant(flat any, dims ...int) (Op, error)

	// Abs returns the Op that represents the output of the corresponding operation.
	Abs(x Op) (Op, error)

	// Neg returns the Op that represents the output of the corresponding operation.
	Neg(x Op) (Op, error)

	// Exp returns the Op that represents the output of the corresponding operation.
	Exp(x Op) (Op, error)

	// Log returns the Op that represents the output of the corresponding operation.
	Log(x Op) (Op, error)

	// Sqrt returns the Op that represents the output of the corresponding operation.
	Sqrt(x Op) (Op, error)

	// Tanh returns the Op that represents the output of the corresponding operation.
	Tanh(x Op) (Op, error)

	// Add returns the element-wise sum of the two values.
	// Operands must have the same shape.
	Add(lhs, rhs Op) (Op, error)

	// Sub returns the element-wise subtraction of the two values.
	// Operands must have the same shape.
	Sub(lhs, rhs Op) (Op, error)

	// Mul returns the element-wise multiplication of the two values.
	// Operands must have the same shape.
	Mul(lhs, rhs Op) (Op, error)

	// Div returns the element-wise division of the two values.
	// Operands must have the same shape.
	Div(lhs, rhs Op) (Op, error)

	// Max returns the element-wise highest value between the two.
	Max(lhs, rhs Op) (Op, error)

	// Min returns the element-wise smallest value between the two.
	Min(lhs, rhs Op) (Op, error)

	// ConvertDType of x to dtype.
	ConvertDType(x Op, dtype dtypes.DType) (Op, error)

	// BroadcastInDim broadcasts x to an output with the given shape.
	// broadcastAxes has an output axis value for each axis of x, and they must
	// be in increasing order. The other axes of the output shape are broadcast
	// (the x values repeated).
	BroadcastInDim(x Op, outputShape shapes.Shape, broadcastAxes []int) (Op, error)

	// ReduceMax reduces x over the axes selected, taking the max value of the slices reduced.
	// The reduced axes are removed from the output shape.
	ReduceMax(x Op, axes ...int) (Op, error)

	// ReduceSum reduces x over the axes selected, taking the sum of the slices reduced.
	// The reduced axes are removed from the output shape.
	ReduceSum(x Op, axes ...int) (Op, error)

	// Reshape reshapes x to the new dimensions.
	// Total size cannot change. The dtype remains the same, see ConvertDType to
	// actually convert the values.
	Reshape(x Op, dimensions ...int) (Op, error)

	// Transpose axes by the given permutation.
	// permutation should have one value per axis of x, and each output axis takes
	// the corresponding value of the input axis permutation[axis].
	Transpose(x Op, permutation ...int) (Op, error)

	// Concatenate operands on the given axis.
	// All operands must have the same dtype, the same rank and the same
	// dimensions, except on the concatenating axis.
	Concatenate(axis int, operands ...Op) (Op, error)

	// TopK returns the k largest (or smallest, if largest is false) elements of
	// x along the given axis, and the corresponding indices (Int64) into the axis.
	TopK(x Op, k int, axis int, largest bool) (values, indices Op, err error)

	// CustomCall creates an operation handled opaquely by the target compiler,
	// identified by callTarget. The output shape must be given, since the target
	// operation is not visible to shape inference. opaque is an arbitrary payload
	// forwarded verbatim to the target.
	CustomCall(callTarget string, outputShape shapes.Shape, opaque []byte, operands ...Op) (Op, error)
}
