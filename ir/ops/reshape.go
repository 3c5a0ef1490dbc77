package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// Reshape reinterprets x with the given dimensions, which must hold the same
// total number of elements. At most one dimension may be -1, in which case it
// is inferred from the operand size. No dimensions means reshaping to a
// scalar.
func Reshape(x ir.Output, dimensions ...int) (ir.Output, error) {
	complete, err := completeDimensions(x.Shape(), dimensions)
	if err != nil {
		return ir.Output{}, err
	}
	node, err := ir.NewNode(x.Node.Graph(), KindReshape, []ir.Output{x}, &reshapeAttrs{dimensions: complete})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

// completeDimensions resolves an optional -1 wildcard dimension against the
// operand size. The returned slice is fully specified.
func completeDimensions(operand shapes.Shape, dimensions []int) ([]int, error) {
	complete := make([]int, len(dimensions))
	wildcard := -1
	known := 1
	for axis, dim := range dimensions {
		switch {
		case dim == -1:
			if wildcard >= 0 {
				return nil, xerrors.InvalidArgumentf("%s allows only one -1 dimension, got %v", KindReshape, dimensions)
			}
			wildcard = axis
		case dim <= 0:
			return nil, xerrors.InvalidArgumentf("%s: invalid dimension %d in %v", KindReshape, dim, dimensions)
		default:
			known *= dim
		}
		complete[axis] = dim
	}
	if wildcard >= 0 {
		size := operand.Size()
		if size%known != 0 {
			return nil, xerrors.InvalidArgumentf(
				"%s: cannot infer -1 dimension, %s size %d is not divisible by %d", KindReshape, operand, size, known)
		}
		complete[wildcard] = size / known
	}
	return complete, nil
}

type reshapeAttrs struct {
	dimensions []int
}

func (a *reshapeAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInts(a.dimensions)
}

func (a *reshapeAttrs) String() string {
	return fmt.Sprintf("dims=%v", a.dimensions)
}

func init() {
	ir.RegisterOp(KindReshape, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindReshape, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*reshapeAttrs)
			shape := operands[0].Shape()
			if shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", KindReshape, shape)
			}
			out, err := shapes.MakeOrError(shape.DType, a.dimensions...)
			if err != nil {
				return shapes.Invalid(), err
			}
			if out.Size() != shape.Size() {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s: cannot reshape %s (%d elements) to %v (%d elements)",
					KindReshape, shape, shape.Size(), a.dimensions, out.Size())
			}
			return out, nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*reshapeAttrs)
			op, err := builder.Reshape(inputs[0], a.dimensions...)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
