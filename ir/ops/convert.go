package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// ConvertDType casts x element-wise to the given dtype. The dimensions are
// preserved. Converting to the operand's own dtype still creates a node.
func ConvertDType(x ir.Output, dtype dtypes.DType) (ir.Output, error) {
	node, err := ir.NewNode(x.Node.Graph(), KindCast, []ir.Output{x}, &castAttrs{dtype: dtype})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type castAttrs struct {
	dtype dtypes.DType
}

func (a *castAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInt(int(a.dtype))
}

func (a *castAttrs) String() string {
	return fmt.Sprintf("dtype=%s", a.dtype)
}

func init() {
	ir.RegisterOp(KindCast, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindCast, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*castAttrs)
			if a.dtype == dtypes.InvalidDType {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires a valid target dtype", KindCast)
			}
			shape := operands[0].Shape()
			if shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", KindCast, shape)
			}
			return shapes.Make(a.dtype, shape.Dimensions...), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*castAttrs)
			op, err := builder.ConvertDType(inputs[0], a.dtype)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
