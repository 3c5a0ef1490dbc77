package ops

import (
	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Add returns the element-wise sum of two operands of identical shape.
func Add(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindAdd, lhs, rhs) }

// Sub returns the element-wise difference of two operands of identical shape.
func Sub(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindSub, lhs, rhs) }

// Mul returns the element-wise product of two operands of identical shape.
func Mul(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindMul, lhs, rhs) }

// Div returns the element-wise quotient of two operands of identical shape.
func Div(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindDiv, lhs, rhs) }

// Max returns the element-wise maximum of two operands of identical shape.
// Not defined for complex dtypes.
func Max(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindMaximum, lhs, rhs) }

// Min returns the element-wise minimum of two operands of identical shape.
// Not defined for complex dtypes.
func Min(lhs, rhs ir.Output) (ir.Output, error) { return binary(KindMinimum, lhs, rhs) }

func binary(kind ir.OpKind, lhs, rhs ir.Output) (ir.Output, error) {
	node, err := ir.NewNode(lhs.Node.Graph(), kind, []ir.Output{lhs, rhs}, nil)
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type binaryLowerFn func(builder backends.Builder, lhs, rhs backends.Op) (backends.Op, error)

// registerBinary installs an element-wise binary operator. Operands must
// have the same dtype and the same dimensions: there is no implicit
// broadcasting, use BroadcastInDim-style rewrites explicitly instead.
func registerBinary(kind ir.OpKind, allowComplex bool, lower binaryLowerFn) {
	ir.RegisterOp(kind, ir.OpDef{
		Infer: func(operands []ir.Output, _ ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(kind, operands, 2); err != nil {
				return shapes.Invalid(), err
			}
			lhs, rhs := operands[0].Shape(), operands[1].Shape()
			if lhs.IsTuple() || rhs.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s and %s", kind, lhs, rhs)
			}
			if lhs.DType == dtypes.Bool {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s is not defined for %s operands", kind, lhs.DType)
			}
			if !allowComplex && lhs.DType.IsComplex() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s is not defined for %s operands", kind, lhs.DType)
			}
			if !lhs.Equal(rhs) {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires operands of identical shape, got %s and %s", kind, lhs, rhs)
			}
			return lhs, nil
		},
		Lower: func(builder backends.Builder, _ *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			op, err := lower(builder, inputs[0], inputs[1])
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}

func init() {
	registerBinary(KindAdd, true, backends.Builder.Add)
	registerBinary(KindSub, true, backends.Builder.Sub)
	registerBinary(KindMul, true, backends.Builder.Mul)
	registerBinary(KindDiv, true, backends.Builder.Div)
	registerBinary(KindMaximum, false, backends.Builder.Max)
	registerBinary(KindMinimum, false, backends.Builder.Min)
}
