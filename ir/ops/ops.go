// Package ops is the operator catalogue: the concrete operators that can
// appear in a computation graph, each contributing its constructor, its shape
// inference and its lowering recipe (see ir.OpDef).
//
// Constructors take and return ir.Output values and fail with InvalidArgument
// when attributes are inconsistent with the operand shapes -- errors surface
// at construction, not at lowering. Operand dtypes and dimensions must match
// exactly where sameness is required: this catalogue has no implicit
// broadcasting or dtype promotion, conversions are explicit nodes.
package ops

import (
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// Operator kinds defined by this catalogue.
var (
	KindDeviceData      = ir.Kind("xla::device_data")
	KindConstant        = ir.Kind("prim::Constant")
	KindNeg             = ir.Kind("aten::neg")
	KindAbs             = ir.Kind("aten::abs")
	KindExp             = ir.Kind("aten::exp")
	KindLog             = ir.Kind("aten::log")
	KindSqrt            = ir.Kind("aten::sqrt")
	KindTanh            = ir.Kind("aten::tanh")
	KindAdd             = ir.Kind("aten::add")
	KindSub             = ir.Kind("aten::sub")
	KindMul             = ir.Kind("aten::mul")
	KindDiv             = ir.Kind("aten::div")
	KindMaximum         = ir.Kind("aten::maximum")
	KindMinimum         = ir.Kind("aten::minimum")
	KindCast            = ir.Kind("xla::cast")
	KindLogSoftmax      = ir.Kind("aten::log_softmax")
	KindSoftmax         = ir.Kind("aten::softmax")
	KindUpsampleNearest = ir.Kind("aten::upsample_nearest2d")
	KindReduceSum       = ir.Kind("aten::sum")
	KindReduceMax       = ir.Kind("aten::amax")
	KindReshape         = ir.Kind("aten::view")
	KindTranspose       = ir.Kind("aten::permute")
	KindConcat          = ir.Kind("aten::cat")
	KindTopK            = ir.Kind("aten::topk")
	KindCustomCall      = ir.Kind("xla::custom_call")
)

// canonicalAxis resolves a possibly negative axis against a rank, following
// the usual convention that -1 means the last axis. It returns an
// InvalidArgument error when the axis falls outside [-rank, rank).
func canonicalAxis(axis, rank int) (int, error) {
	if axis < -rank || axis >= rank {
		return 0, xerrors.InvalidArgumentf("axis %d out-of-range for rank %d", axis, rank)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}

// axesWithout returns 0, 1, ..., rank-1 with the given axis removed, the
// broadcast-axes mapping of a reduce-then-broadcast round trip.
func axesWithout(rank, axis int) []int {
	axes := make([]int, 0, rank-1)
	for ii := 0; ii < rank; ii++ {
		if ii != axis {
			axes = append(axes, ii)
		}
	}
	return axes
}

// hashShape folds a shape into a hasher: the dtype, the dimensions, and
// recursively any tuple elements.
func hashShape(h *ir.Hasher, shape shapes.Shape) {
	h.WriteInt(int(shape.DType))
	h.WriteInts(shape.Dimensions)
	h.WriteInt(shape.TupleSize())
	for _, element := range shape.TupleShapes {
		hashShape(h, element)
	}
}

// checkNumOperands validates the operand count of an InferFn.
func checkNumOperands(kind ir.OpKind, operands []ir.Output, want int) error {
	if len(operands) != want {
		return xerrors.InvalidArgumentf("%s takes %d operand(s), got %d", kind, want, len(operands))
	}
	return nil
}
