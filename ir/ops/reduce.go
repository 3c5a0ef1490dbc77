package ops

import (
	"fmt"
	"slices"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// ReduceSum sums x over the given axes. Axes may be negative, counting from
// the end, and no axes means reduce over all of them. With keepDims the
// reduced axes are kept with dimension 1, otherwise they are removed.
func ReduceSum(x ir.Output, axes []int, keepDims bool) (ir.Output, error) {
	return reduce(KindReduceSum, x, axes, keepDims)
}

// ReduceMax takes the maximum of x over the given axes. Axes may be negative,
// counting from the end, and no axes means reduce over all of them. With
// keepDims the reduced axes are kept with dimension 1, otherwise they are
// removed. Not defined for complex dtypes.
func ReduceMax(x ir.Output, axes []int, keepDims bool) (ir.Output, error) {
	return reduce(KindReduceMax, x, axes, keepDims)
}

func reduce(kind ir.OpKind, x ir.Output, axes []int, keepDims bool) (ir.Output, error) {
	// Canonicalize before the node is created: negatives resolved, sorted and
	// deduplicated, and "no axes" expanded to all axes. Reductions that differ
	// only in the spelling of their axes hash identically.
	rank := x.Shape().Rank()
	var canonical []int
	if len(axes) == 0 {
		for axis := 0; axis < rank; axis++ {
			canonical = append(canonical, axis)
		}
	} else {
		canonical = make([]int, 0, len(axes))
		for _, axis := range axes {
			resolved, err := canonicalAxis(axis, rank)
			if err != nil {
				return ir.Output{}, err
			}
			canonical = append(canonical, resolved)
		}
		slices.Sort(canonical)
		canonical = slices.Compact(canonical)
	}
	node, err := ir.NewNode(x.Node.Graph(), kind, []ir.Output{x}, &reduceAttrs{axes: canonical, keepDims: keepDims})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type reduceAttrs struct {
	axes     []int
	keepDims bool
}

func (a *reduceAttrs) AddToHash(h *ir.Hasher) {
	h.WriteInts(a.axes)
	h.WriteBool(a.keepDims)
}

func (a *reduceAttrs) String() string {
	return fmt.Sprintf("axes=%v, keepDims=%t", a.axes, a.keepDims)
}

// reducedShape returns the output shape of reducing over the (canonical)
// axes, keeping them as 1s when keepDims is set.
func reducedShape(operand shapes.Shape, axes []int, keepDims bool) shapes.Shape {
	dims := make([]int, 0, operand.Rank())
	for axis, dim := range operand.Dimensions {
		if slices.Contains(axes, axis) {
			if keepDims {
				dims = append(dims, 1)
			}
			continue
		}
		dims = append(dims, dim)
	}
	return shapes.Make(operand.DType, dims...)
}

type reduceLowerFn func(builder backends.Builder, x backends.Op, axes ...int) (backends.Op, error)

func registerReduce(kind ir.OpKind, allowComplex bool, lower reduceLowerFn) {
	ir.RegisterOp(kind, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(kind, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*reduceAttrs)
			shape := operands[0].Shape()
			if shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", kind, shape)
			}
			if shape.DType == dtypes.Bool || (!allowComplex && shape.DType.IsComplex()) {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s is not defined for %s operands", kind, shape.DType)
			}
			for _, axis := range a.axes {
				if axis < 0 || axis >= shape.Rank() {
					return shapes.Invalid(), xerrors.InvalidArgumentf("%s: axis %d out-of-range for %s", kind, axis, shape)
				}
			}
			return reducedShape(shape, a.axes, a.keepDims), nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*reduceAttrs)
			if len(a.axes) == 0 {
				// Scalar operand, nothing to reduce.
				return []backends.Op{inputs[0]}, nil
			}
			op, err := lower(builder, inputs[0], a.axes...)
			if err != nil {
				return nil, err
			}
			if a.keepDims {
				op, err = builder.Reshape(op, node.Shape().Dimensions...)
				if err != nil {
					return nil, err
				}
			}
			return []backends.Op{op}, nil
		},
	})
}

func init() {
	registerReduce(KindReduceSum, true, backends.Builder.ReduceSum)
	registerReduce(KindReduceMax, false, backends.Builder.ReduceMax)
}
