package ops

import (
	"fmt"
	"math"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// Scalar creates a constant scalar node of the given dtype. The value is
// taken as a float64 and cast to the dtype when the node is lowered, so
// integer dtypes only represent values that survive the round trip through
// float64 exactly.
func Scalar(g *ir.Graph, dtype dtypes.DType, value float64) (ir.Output, error) {
	node, err := ir.NewNode(g, KindConstant, nil, &scalarAttrs{dtype: dtype, value: value})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type scalarAttrs struct {
	dtype dtypes.DType
	value float64
}

func (a *scalarAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInt(int(a.dtype))
	h.WriteUint64(math.Float64bits(a.value))
}

func (a *scalarAttrs) String() string {
	return fmt.Sprintf("value=%v, dtype=%s", a.value, a.dtype)
}

func init() {
	ir.RegisterOp(KindConstant, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindConstant, operands, 0); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*scalarAttrs)
			// Reject dtypes the value cannot be materialized as.
			if _, err := shapes.CastScalar(a.dtype, a.value); err != nil {
				return shapes.Invalid(), err
			}
			return shapes.Shape{DType: a.dtype}, nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, _ []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*scalarAttrs)
			flat, err := shapes.CastScalar(a.dtype, a.value)
			if err != nil {
				return nil, err
			}
			op, err := builder.Constant(flat)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
