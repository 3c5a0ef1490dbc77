package ops

import (
	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Neg returns element-wise negation.
func Neg(x ir.Output) (ir.Output, error) { return unary(KindNeg, x) }

// Abs returns the element-wise absolute value.
func Abs(x ir.Output) (ir.Output, error) { return unary(KindAbs, x) }

// Exp returns the element-wise exponential. The operand must be a float.
func Exp(x ir.Output) (ir.Output, error) { return unary(KindExp, x) }

// Log returns the element-wise natural logarithm. The operand must be a float.
func Log(x ir.Output) (ir.Output, error) { return unary(KindLog, x) }

// Sqrt returns the element-wise square root. The operand must be a float.
func Sqrt(x ir.Output) (ir.Output, error) { return unary(KindSqrt, x) }

// Tanh returns the element-wise hyperbolic tangent. The operand must be a float.
func Tanh(x ir.Output) (ir.Output, error) { return unary(KindTanh, x) }

func unary(kind ir.OpKind, x ir.Output) (ir.Output, error) {
	node, err := ir.NewNode(x.Node.Graph(), kind, []ir.Output{x}, nil)
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type unaryLowerFn func(builder backends.Builder, x backends.Op) (backends.Op, error)

// registerUnary installs an element-wise unary operator. With floatOnly set
// the operand must have a float dtype, otherwise any non-boolean numeric
// dtype is accepted. The output shape is the operand shape.
func registerUnary(kind ir.OpKind, floatOnly bool, lower unaryLowerFn) {
	ir.RegisterOp(kind, ir.OpDef{
		Infer: func(operands []ir.Output, _ ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(kind, operands, 1); err != nil {
				return shapes.Invalid(), err
			}
			shape := operands[0].Shape()
			if shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s does not take tuple operands, got %s", kind, shape)
			}
			if floatOnly && !shape.DType.IsFloat() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires a float operand, got %s", kind, shape)
			}
			if !floatOnly && shape.DType == dtypes.Bool {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s is not defined for %s operands", kind, shape.DType)
			}
			return shape, nil
		},
		Lower: func(builder backends.Builder, _ *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			op, err := lower(builder, inputs[0])
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}

func init() {
	registerUnary(KindNeg, false, backends.Builder.Neg)
	registerUnary(KindAbs, false, backends.Builder.Abs)
	registerUnary(KindExp, true, backends.Builder.Exp)
	registerUnary(KindLog, true, backends.Builder.Log)
	registerUnary(KindSqrt, true, backends.Builder.Sqrt)
	registerUnary(KindTanh, true, backends.Builder.Tanh)
}
