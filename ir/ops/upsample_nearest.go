package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// ResizeNearestTarget is the backend custom-call target implementing
// nearest-neighbor image resize.
const ResizeNearestTarget = "ResizeNearest"

// UpsampleNearest resizes a rank-4 NCHW operand to the given spatial output
// size using nearest-neighbor interpolation. It lowers to the backend's
// "ResizeNearest" custom-call target.
func UpsampleNearest(x ir.Output, height, width int) (ir.Output, error) {
	node, err := ir.NewNode(x.Node.Graph(), KindUpsampleNearest, []ir.Output{x},
		&upsampleNearestAttrs{outputSize: [2]int{height, width}})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type upsampleNearestAttrs struct {
	outputSize [2]int // Height, width.
}

func (a *upsampleNearestAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInts(a.outputSize[:])
}

func (a *upsampleNearestAttrs) String() string {
	return fmt.Sprintf("output_size=(%d, %d)", a.outputSize[0], a.outputSize[1])
}

func init() {
	ir.RegisterOp(KindUpsampleNearest, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindUpsampleNearest, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*upsampleNearestAttrs)
			shape := operands[0].Shape()
			if shape.IsTuple() || shape.Rank() != 4 {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s requires a rank-4 NCHW operand, got %s", KindUpsampleNearest, shape)
			}
			if a.outputSize[0] <= 0 || a.outputSize[1] <= 0 {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s requires a positive output size, got (%d, %d)",
					KindUpsampleNearest, a.outputSize[0], a.outputSize[1])
			}
			return shapes.Make(shape.DType, shape.Dim(0), shape.Dim(1), a.outputSize[0], a.outputSize[1]), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			op, err := builder.CustomCall(ResizeNearestTarget, node.Shape(), nil, inputs[0])
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
