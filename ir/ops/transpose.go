package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// Transpose permutes the axes of x: output axis ii takes the operand axis
// permutation[ii]. The permutation must mention every operand axis exactly
// once, and entries may be negative, counting from the end.
func Transpose(x ir.Output, permutation ...int) (ir.Output, error) {
	rank := x.Shape().Rank()
	canonical := make([]int, len(permutation))
	for ii, axis := range permutation {
		resolved, err := canonicalAxis(axis, rank)
		if err != nil {
			return ir.Output{}, err
		}
		canonical[ii] = resolved
	}
	node, err := ir.NewNode(x.Node.Graph(), KindTranspose, []ir.Output{x}, &transposeAttrs{permutation: canonical})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type transposeAttrs struct {
	permutation []int
}

func (a *transposeAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInts(a.permutation)
}

func (a *transposeAttrs) String() string {
	return fmt.Sprintf("permutation=%v", a.permutation)
}

func init() {
	ir.RegisterOp(KindTranspose, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindTranspose, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*transposeAttrs)
			shape := operands[0].Shape()
			if shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", KindTranspose, shape)
			}
			if len(a.permutation) != shape.Rank() {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s: permutation %v does not match rank of %s", KindTranspose, a.permutation, shape)
			}
			seen := make([]bool, shape.Rank())
			dims := make([]int, shape.Rank())
			for ii, axis := range a.permutation {
				if axis < 0 || axis >= shape.Rank() || seen[axis] {
					return shapes.Invalid(), xerrors.InvalidArgumentf(
						"%s: %v is not a permutation of the axes of %s", KindTranspose, a.permutation, shape)
				}
				seen[axis] = true
				dims[ii] = shape.Dimensions[axis]
			}
			return shapes.Make(shape.DType, dims...), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*transposeAttrs)
			op, err := builder.Transpose(inputs[0], a.permutation...)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
