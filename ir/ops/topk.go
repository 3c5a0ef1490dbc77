package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// TopK returns the k largest (or smallest, with largest=false) entries of x
// along the given axis, sorted, along with their Int64 indices into that
// axis. It is the one multi-output operator of the catalogue: the node's
// shape is a tuple and the two results are separate outputs of the same node.
func TopK(x ir.Output, k, axis int, largest bool) (values, indices ir.Output, err error) {
	axis, err = canonicalAxis(axis, x.Shape().Rank())
	if err != nil {
		return
	}
	node, err := ir.NewNode(x.Node.Graph(), KindTopK, []ir.Output{x}, &topKAttrs{k: k, axis: axis, largest: largest})
	if err != nil {
		return
	}
	return node.Out(0), node.Out(1), nil
}

type topKAttrs struct {
	k       int
	axis    int
	largest bool
}

func (a *topKAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInt(a.k)
	h.WriteInt(a.axis)
	h.WriteBool(a.largest)
}

func (a *topKAttrs) String() string {
	return fmt.Sprintf("k=%d, dim=%d, largest=%t", a.k, a.axis, a.largest)
}

func init() {
	ir.RegisterOp(KindTopK, ir.OpDef{
		NumOutputs: 2,
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindTopK, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*topKAttrs)
			shape := operands[0].Shape()
			if shape.IsTuple() || shape.IsScalar() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires an operand of rank >= 1, got %s", KindTopK, shape)
			}
			if shape.DType == dtypes.Bool || shape.DType.IsComplex() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s is not defined for %s operands", KindTopK, shape.DType)
			}
			if a.axis < 0 || a.axis >= shape.Rank() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s: axis %d out-of-range for %s", KindTopK, a.axis, shape)
			}
			if a.k < 1 || a.k > shape.Dim(a.axis) {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s: k=%d out-of-range for axis %d of %s", KindTopK, a.k, a.axis, shape)
			}
			dims := append([]int{}, shape.Dimensions...)
			dims[a.axis] = a.k
			return shapes.MakeTuple([]shapes.Shape{
				shapes.Make(shape.DType, dims...),
				shapes.Make(dtypes.Int64, dims...),
			}), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*topKAttrs)
			values, indices, err := builder.TopK(inputs[0], a.k, a.axis, a.largest)
			if err != nil {
				return nil, err
			}
			return []backends.Op{values, indices}, nil
		},
	})
}
