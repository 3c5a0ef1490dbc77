package ops

import (
	"fmt"
	"strings"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// LogSoftmax computes log(softmax(x)) along the given axis, in a numerically
// stable fashion. The axis may be negative, counting from the end. The
// operand must be a float, and the output has the operand's shape.
func LogSoftmax(x ir.Output, axis int) (ir.Output, error) {
	return softmaxNode(KindLogSoftmax, x, axis, dtypes.InvalidDType)
}

// LogSoftmaxWithDType is LogSoftmax with the output cast to the given float
// dtype, mirroring the dtype argument of the usual framework-level call.
func LogSoftmaxWithDType(x ir.Output, axis int, dtype dtypes.DType) (ir.Output, error) {
	if dtype == dtypes.InvalidDType {
		return ir.Output{}, xerrors.InvalidArgumentf("%s requires a valid output dtype, use LogSoftmax to keep the operand dtype", KindLogSoftmax)
	}
	return softmaxNode(KindLogSoftmax, x, axis, dtype)
}

// Softmax computes softmax(x) along the given axis, in a numerically stable
// fashion. The axis may be negative, counting from the end.
func Softmax(x ir.Output, axis int) (ir.Output, error) {
	return softmaxNode(KindSoftmax, x, axis, dtypes.InvalidDType)
}

func softmaxNode(kind ir.OpKind, x ir.Output, axis int, dtype dtypes.DType) (ir.Output, error) {
	// The axis is canonicalized before it reaches the node, so graphs built
	// with axis=-1 and axis=rank-1 are structurally identical.
	axis, err := canonicalAxis(axis, x.Shape().Rank())
	if err != nil {
		return ir.Output{}, err
	}
	node, err := ir.NewNode(x.Node.Graph(), kind, []ir.Output{x}, &softmaxAttrs{axis: axis, dtype: dtype})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

// softmaxAttrs parameterize aten::log_softmax and aten::softmax nodes.
// dtype == InvalidDType means the output keeps the operand dtype.
type softmaxAttrs struct {
	axis  int
	dtype dtypes.DType
}

func (a *softmaxAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInt(a.axis)
	if a.dtype == dtypes.InvalidDType {
		h.WriteInt(-1)
	} else {
		h.WriteInt(int(a.dtype))
	}
}

func (a *softmaxAttrs) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "dim=%d", a.axis)
	if a.dtype != dtypes.InvalidDType {
		fmt.Fprintf(&sb, ", dtype=%s", a.dtype)
	}
	return sb.String()
}

func inferSoftmax(kind ir.OpKind) ir.InferFn {
	return func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
		if err := checkNumOperands(kind, operands, 1); err != nil {
			return shapes.Invalid(), err
		}
		a := attrs.(*softmaxAttrs)
		shape := operands[0].Shape()
		if shape.IsTuple() || !shape.DType.IsFloat() {
			return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires a float operand, got %s", kind, shape)
		}
		if _, err := canonicalAxis(a.axis, shape.Rank()); err != nil {
			return shapes.Invalid(), err
		}
		if a.dtype == dtypes.InvalidDType {
			return shape, nil
		}
		if !a.dtype.IsFloat() {
			return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires a float output dtype, got %s", kind, a.dtype)
		}
		return shapes.Make(a.dtype, shape.Dimensions...), nil
	}
}

// lowerShiftedExp emits the numerically stable front half shared by softmax
// and log-softmax: shifted = x - max(x, axis) and exp(shifted), plus the sum
// of the exponentials over the axis.
func lowerShiftedExp(builder backends.Builder, x backends.Op, shape shapes.Shape, axis int) (shifted, exps, sum backends.Op, err error) {
	maxval, err := builder.ReduceMax(x, axis)
	if err != nil {
		return nil, nil, nil, err
	}
	bcastAxes := axesWithout(shape.Rank(), axis)
	maxb, err := builder.BroadcastInDim(maxval, shape, bcastAxes)
	if err != nil {
		return nil, nil, nil, err
	}
	shifted, err = builder.Sub(x, maxb)
	if err != nil {
		return nil, nil, nil, err
	}
	exps, err = builder.Exp(shifted)
	if err != nil {
		return nil, nil, nil, err
	}
	sum, err = builder.ReduceSum(exps, axis)
	if err != nil {
		return nil, nil, nil, err
	}
	return shifted, exps, sum, nil
}

func lowerSoftmaxFamily(log bool) ir.LowerFn {
	return func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
		a := node.Attrs().(*softmaxAttrs)
		shape := node.Operand(0).Shape()
		shifted, exps, sum, err := lowerShiftedExp(builder, inputs[0], shape, a.axis)
		if err != nil {
			return nil, err
		}
		bcastAxes := axesWithout(shape.Rank(), a.axis)
		var out backends.Op
		if log {
			logsum, err := builder.Log(sum)
			if err != nil {
				return nil, err
			}
			logsumb, err := builder.BroadcastInDim(logsum, shape, bcastAxes)
			if err != nil {
				return nil, err
			}
			out, err = builder.Sub(shifted, logsumb)
			if err != nil {
				return nil, err
			}
		} else {
			sumb, err := builder.BroadcastInDim(sum, shape, bcastAxes)
			if err != nil {
				return nil, err
			}
			out, err = builder.Div(exps, sumb)
			if err != nil {
				return nil, err
			}
		}
		if a.dtype != dtypes.InvalidDType && a.dtype != shape.DType {
			out, err = builder.ConvertDType(out, a.dtype)
			if err != nil {
				return nil, err
			}
		}
		return []backends.Op{out}, nil
	}
}

func init() {
	ir.RegisterOp(KindLogSoftmax, ir.OpDef{
		Infer: inferSoftmax(KindLogSoftmax),
		Lower: lowerSoftmaxFamily(true),
	})
	ir.RegisterOp(KindSoftmax, ir.OpDef{
		Infer: inferSoftmax(KindSoftmax),
		Lower: lowerSoftmaxFamily(false),
	})
}
