package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// Concat concatenates the operands along the given axis, which may be
// negative, counting from the end. Operands must share dtype, rank and all
// dimensions other than the concatenation axis. At least one operand is
// required, and a single operand is returned unchanged in value.
func Concat(axis int, operands ...ir.Output) (ir.Output, error) {
	if len(operands) == 0 {
		return ir.Output{}, xerrors.InvalidArgumentf("%s requires at least one operand", KindConcat)
	}
	axis, err := canonicalAxis(axis, operands[0].Shape().Rank())
	if err != nil {
		return ir.Output{}, err
	}
	node, err := ir.NewNode(operands[0].Node.Graph(), KindConcat, operands, &concatAttrs{axis: axis})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type concatAttrs struct {
	axis int
}

func (a *concatAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInt(a.axis)
}

func (a *concatAttrs) String() string {
	return fmt.Sprintf("dim=%d", a.axis)
}

func init() {
	ir.RegisterOp(KindConcat, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if len(operands) == 0 {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires at least one operand", KindConcat)
			}
			a := attrs.(*concatAttrs)
			first := operands[0].Shape()
			if first.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", KindConcat, first)
			}
			if a.axis < 0 || a.axis >= first.Rank() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s: axis %d out-of-range for %s", KindConcat, a.axis, first)
			}
			dims := append([]int{}, first.Dimensions...)
			for _, operand := range operands[1:] {
				shape := operand.Shape()
				if shape.IsTuple() || shape.DType != first.DType || shape.Rank() != first.Rank() {
					return shapes.Invalid(), xerrors.InvalidArgumentf(
						"%s requires operands of the same dtype and rank, got %s and %s", KindConcat, first, shape)
				}
				for axis, dim := range shape.Dimensions {
					if axis == a.axis {
						dims[axis] += dim
						continue
					}
					if dim != first.Dimensions[axis] {
						return shapes.Invalid(), xerrors.InvalidArgumentf(
							"%s: dimensions of %s and %s only may differ on axis %d", KindConcat, first, shape, a.axis)
					}
				}
			}
			return shapes.Make(first.DType, dims...), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*concatAttrs)
			op, err := builder.Concatenate(a.axis, inputs...)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
