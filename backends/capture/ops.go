package capture

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Parameter implements backends.Builder.
func (b *Builder) Parameter(name string, shape shapes.Shape) (backends.Op, error) {
	if _, err := b.checkOps("Parameter"); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, xerrors.InvalidArgumentf("Parameter: name must not be empty")
	}
	if !shape.Ok() || shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("Parameter %q: invalid shape %s", name, shape)
	}
	if _, found := b.paramByName[name]; found {
		return nil, xerrors.InvalidArgumentf("Parameter %q: name already taken in builder %q", name, b.name)
	}
	inst := b.newInstruction("Parameter", shape, fmt.Sprintf("name=%q", name))
	b.parameters = append(b.parameters, inst)
	b.paramByName[name] = inst
	return inst, nil
}

// Constant implements backends.Builder. flat is a slice of a supported Go
// type with the product of dims elements, or a single scalar value when dims
// is empty.
func (b *Builder) Constant(flat any, dims ...int) (backends.Op, error) {
	if _, err := b.checkOps("Constant"); err != nil {
		return nil, err
	}
	flatType := reflect.TypeOf(flat)
	if flatType == nil {
		return nil, xerrors.InvalidArgumentf("Constant: flat is nil")
	}
	if flatType.Kind() != reflect.Slice {
		if len(dims) > 0 {
			return nil, xerrors.InvalidArgumentf("Constant: flat is a scalar %T but dims %v were given", flat, dims)
		}
		_, dtype, err := shapes.ScalarFromAny(flat)
		if err != nil {
			return nil, err
		}
		return b.newInstruction("Constant", shapes.Shape{DType: dtype}, fmt.Sprintf("value=%v", flat)), nil
	}
	dtype := dtypes.FromGoType(flatType.Elem())
	if dtype == dtypes.InvalidDType {
		return nil, xerrors.InvalidArgumentf("Constant: flat is a slice of %s, not a supported data type", flatType.Elem())
	}
	shape, err := shapes.MakeOrError(dtype, dims...)
	if err != nil {
		return nil, err
	}
	if got := reflect.ValueOf(flat).Len(); got != shape.Size() {
		return nil, xerrors.InvalidArgumentf("Constant: flat has %d elements, dims %v require %d", got, dims, shape.Size())
	}
	return b.newInstruction("Constant", shape, fmt.Sprintf("len=%d", shape.Size())), nil
}

func (b *Builder) unaryOp(op string, x backends.Op, floatOnly bool) (backends.Op, error) {
	inputs, err := b.checkOps(op, x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("%s: tuple operand %s not supported", op, shape)
	}
	if floatOnly && !shape.DType.IsFloat() {
		return nil, xerrors.InvalidArgumentf("%s: requires a float operand, got %s", op, shape)
	}
	if !floatOnly && shape.DType == dtypes.Bool {
		return nil, xerrors.InvalidArgumentf("%s: not defined for %s operands", op, shape.DType)
	}
	return b.newInstruction(op, shape, "", inputs[0]), nil
}

// Abs implements backends.Builder.
func (b *Builder) Abs(x backends.Op) (backends.Op, error) { return b.unaryOp("Abs", x, false) }

// Neg implements backends.Builder.
func (b *Builder) Neg(x backends.Op) (backends.Op, error) { return b.unaryOp("Neg", x, false) }

// Exp implements backends.Builder.
func (b *Builder) Exp(x backends.Op) (backends.Op, error) { return b.unaryOp("Exp", x, true) }

// Log implements backends.Builder.
func (b *Builder) Log(x backends.Op) (backends.Op, error) { return b.unaryOp("Log", x, true) }

// Sqrt implements backends.Builder.
func (b *Builder) Sqrt(x backends.Op) (backends.Op, error) { return b.unaryOp("Sqrt", x, true) }

// Tanh implements backends.Builder.
func (b *Builder) Tanh(x backends.Op) (backends.Op, error) { return b.unaryOp("Tanh", x, true) }

func (b *Builder) binaryOp(op string, lhsOp, rhsOp backends.Op, allowComplex bool) (backends.Op, error) {
	inputs, err := b.checkOps(op, lhsOp, rhsOp)
	if err != nil {
		return nil, err
	}
	lhs, rhs := inputs[0].shape, inputs[1].shape
	if lhs.IsTuple() || rhs.IsTuple() {
		return nil, xerrors.InvalidArgumentf("%s: tuple operands not supported, got %s and %s", op, lhs, rhs)
	}
	if lhs.DType == dtypes.Bool || (!allowComplex && lhs.DType.IsComplex()) {
		return nil, xerrors.InvalidArgumentf("%s: not defined for %s operands", op, lhs.DType)
	}
	if !lhs.Equal(rhs) {
		return nil, xerrors.InvalidArgumentf("%s: operands must have identical shapes, got %s and %s", op, lhs, rhs)
	}
	return b.newInstruction(op, lhs, "", inputs[0], inputs[1]), nil
}

// Add implements backends.Builder.
func (b *Builder) Add(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Add", lhs, rhs, true) }

// Sub implements backends.Builder.
func (b *Builder) Sub(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Sub", lhs, rhs, true) }

// Mul implements backends.Builder.
func (b *Builder) Mul(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Mul", lhs, rhs, true) }

// Div implements backends.Builder.
func (b *Builder) Div(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Div", lhs, rhs, true) }

// Max implements backends.Builder.
func (b *Builder) Max(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Max", lhs, rhs, false) }

// Min implements backends.Builder.
func (b *Builder) Min(lhs, rhs backends.Op) (backends.Op, error) { return b.binaryOp("Min", lhs, rhs, false) }

// ConvertDType implements backends.Builder.
func (b *Builder) ConvertDType(x backends.Op, dtype dtypes.DType) (backends.Op, error) {
	inputs, err := b.checkOps("ConvertDType", x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("ConvertDType: tuple operand %s not supported", shape)
	}
	if dtype == dtypes.InvalidDType {
		return nil, xerrors.InvalidArgumentf("ConvertDType: invalid target dtype")
	}
	out := shapes.Make(dtype, shape.Dimensions...)
	return b.newInstruction("ConvertDType", out, fmt.Sprintf("dtype=%s", dtype), inputs[0]), nil
}

// BroadcastInDim implements backends.Builder.
func (b *Builder) BroadcastInDim(x backends.Op, outputShape shapes.Shape, broadcastAxes []int) (backends.Op, error) {
	inputs, err := b.checkOps("BroadcastInDim", x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() || outputShape.IsTuple() || !outputShape.Ok() {
		return nil, xerrors.InvalidArgumentf("BroadcastInDim: tuple or invalid shapes not supported, got %s -> %s", shape, outputShape)
	}
	if outputShape.DType != shape.DType {
		return nil, xerrors.InvalidArgumentf("BroadcastInDim: cannot change dtype, operand is %s, output %s", shape, outputShape)
	}
	if len(broadcastAxes) != shape.Rank() {
		return nil, xerrors.InvalidArgumentf(
			"BroadcastInDim: broadcastAxes %v must have one entry per operand axis (operand %s)", broadcastAxes, shape)
	}
	for ii, axis := range broadcastAxes {
		if axis < 0 || axis >= outputShape.Rank() {
			return nil, xerrors.InvalidArgumentf(
				"BroadcastInDim: broadcastAxes[%d]=%d out-of-range for output %s", ii, axis, outputShape)
		}
		if ii > 0 && axis <= broadcastAxes[ii-1] {
			return nil, xerrors.InvalidArgumentf("BroadcastInDim: broadcastAxes %v must be strictly increasing", broadcastAxes)
		}
		operandDim := shape.Dimensions[ii]
		if operandDim != outputShape.Dimensions[axis] && operandDim != 1 {
			return nil, xerrors.InvalidArgumentf(
				"BroadcastInDim: operand axis %d (dimension %d) does not match output axis %d of %s",
				ii, operandDim, axis, outputShape)
		}
	}
	return b.newInstruction("BroadcastInDim", outputShape.Clone(), fmt.Sprintf("axes=%v", broadcastAxes), inputs[0]), nil
}

func (b *Builder) reduceOp(op string, x backends.Op, allowComplex bool, axes ...int) (backends.Op, error) {
	inputs, err := b.checkOps(op, x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("%s: tuple operand %s not supported", op, shape)
	}
	if shape.DType == dtypes.Bool || (!allowComplex && shape.DType.IsComplex()) {
		return nil, xerrors.InvalidArgumentf("%s: not defined for %s operands", op, shape.DType)
	}
	if len(axes) == 0 {
		axes = make([]int, shape.Rank())
		for axis := range axes {
			axes[axis] = axis
		}
	}
	sorted := slices.Clone(axes)
	slices.Sort(sorted)
	for ii, axis := range sorted {
		if axis < 0 || axis >= shape.Rank() {
			return nil, xerrors.InvalidArgumentf("%s: axis %d out-of-range for %s", op, axis, shape)
		}
		if ii > 0 && axis == sorted[ii-1] {
			return nil, xerrors.InvalidArgumentf("%s: axis %d given more than once", op, axis)
		}
	}
	dims := make([]int, 0, shape.Rank()-len(sorted))
	for axis, dim := range shape.Dimensions {
		if !slices.Contains(sorted, axis) {
			dims = append(dims, dim)
		}
	}
	out := shapes.Make(shape.DType, dims...)
	return b.newInstruction(op, out, fmt.Sprintf("axes=%v", sorted), inputs[0]), nil
}

// ReduceMax implements backends.Builder.
func (b *Builder) ReduceMax(x backends.Op, axes ...int) (backends.Op, error) {
	return b.reduceOp("ReduceMax", x, false, axes...)
}

// ReduceSum implements backends.Builder.
func (b *Builder) ReduceSum(x backends.Op, axes ...int) (backends.Op, error) {
	return b.reduceOp("ReduceSum", x, true, axes...)
}

// Reshape implements backends.Builder.
func (b *Builder) Reshape(x backends.Op, dimensions ...int) (backends.Op, error) {
	inputs, err := b.checkOps("Reshape", x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("Reshape: tuple operand %s not supported", shape)
	}
	out, err := shapes.MakeOrError(shape.DType, dimensions...)
	if err != nil {
		return nil, err
	}
	if out.Size() != shape.Size() {
		return nil, xerrors.InvalidArgumentf(
			"Reshape: cannot reshape %s (%d elements) to %v (%d elements)", shape, shape.Size(), dimensions, out.Size())
	}
	return b.newInstruction("Reshape", out, fmt.Sprintf("dims=%v", dimensions), inputs[0]), nil
}

// Transpose implements backends.Builder.
func (b *Builder) Transpose(x backends.Op, permutation ...int) (backends.Op, error) {
	inputs, err := b.checkOps("Transpose", x)
	if err != nil {
		return nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("Transpose: tuple operand %s not supported", shape)
	}
	if len(permutation) != shape.Rank() {
		return nil, xerrors.InvalidArgumentf("Transpose: permutation %v does not match rank of %s", permutation, shape)
	}
	seen := make([]bool, shape.Rank())
	dims := make([]int, shape.Rank())
	for ii, axis := range permutation {
		if axis < 0 || axis >= shape.Rank() || seen[axis] {
			return nil, xerrors.InvalidArgumentf("Transpose: %v is not a permutation of the axes of %s", permutation, shape)
		}
		seen[axis] = true
		dims[ii] = shape.Dimensions[axis]
	}
	out := shapes.Make(shape.DType, dims...)
	return b.newInstruction("Transpose", out, fmt.Sprintf("permutation=%v", permutation), inputs[0]), nil
}

// Concatenate implements backends.Builder.
func (b *Builder) Concatenate(axis int, operands ...backends.Op) (backends.Op, error) {
	inputs, err := b.checkOps("Concatenate", operands...)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, xerrors.InvalidArgumentf("Concatenate: at least one operand is required")
	}
	first := inputs[0].shape
	if first.IsTuple() {
		return nil, xerrors.InvalidArgumentf("Concatenate: tuple operand %s not supported", first)
	}
	if axis < 0 || axis >= first.Rank() {
		return nil, xerrors.InvalidArgumentf("Concatenate: axis %d out-of-range for %s", axis, first)
	}
	dims := slices.Clone(first.Dimensions)
	for _, input := range inputs[1:] {
		shape := input.shape
		if shape.IsTuple() || shape.DType != first.DType || shape.Rank() != first.Rank() {
			return nil, xerrors.InvalidArgumentf(
				"Concatenate: operands must share dtype and rank, got %s and %s", first, shape)
		}
		for ii, dim := range shape.Dimensions {
			if ii == axis {
				dims[ii] += dim
			} else if dim != first.Dimensions[ii] {
				return nil, xerrors.InvalidArgumentf(
					"Concatenate: dimensions of %s and %s only may differ on axis %d", first, shape, axis)
			}
		}
	}
	out := shapes.Make(first.DType, dims...)
	return b.newInstruction("Concatenate", out, fmt.Sprintf("axis=%d", axis), inputs...), nil
}

// TopK implements backends.Builder. It records a multi-output instruction
// with a tuple shape plus one SelectOutput instruction per result, and
// returns the selects.
func (b *Builder) TopK(x backends.Op, k int, axis int, largest bool) (values, indices backends.Op, err error) {
	inputs, err := b.checkOps("TopK", x)
	if err != nil {
		return nil, nil, err
	}
	shape := inputs[0].shape
	if shape.IsTuple() || shape.Rank() == 0 {
		return nil, nil, xerrors.InvalidArgumentf("TopK: requires an operand of rank >= 1, got %s", shape)
	}
	if shape.DType == dtypes.Bool || shape.DType.IsComplex() {
		return nil, nil, xerrors.InvalidArgumentf("TopK: not defined for %s operands", shape.DType)
	}
	if axis < 0 || axis >= shape.Rank() {
		return nil, nil, xerrors.InvalidArgumentf("TopK: axis %d out-of-range for %s", axis, shape)
	}
	if k < 1 || k > shape.Dimensions[axis] {
		return nil, nil, xerrors.InvalidArgumentf("TopK: k=%d out-of-range for axis %d of %s", k, axis, shape)
	}
	dims := slices.Clone(shape.Dimensions)
	dims[axis] = k
	valuesShape := shapes.Make(shape.DType, dims...)
	indicesShape := shapes.Make(dtypes.Int64, dims...)
	tuple := b.newInstruction("TopK", shapes.MakeTuple([]shapes.Shape{valuesShape, indicesShape}),
		fmt.Sprintf("k=%d, axis=%d, largest=%t", k, axis, largest), inputs[0])
	return b.selectOutput(tuple, 0, valuesShape), b.selectOutput(tuple, 1, indicesShape), nil
}

func (b *Builder) selectOutput(tuple *Instruction, index int, shape shapes.Shape) *Instruction {
	inst := b.newInstruction("SelectOutput", shape, fmt.Sprintf("index=%d", index), tuple)
	inst.selectIndex = index
	return inst
}

// CustomCall implements backends.Builder.
func (b *Builder) CustomCall(callTarget string, outputShape shapes.Shape, opaque []byte, operands ...backends.Op) (backends.Op, error) {
	inputs, err := b.checkOps("CustomCall", operands...)
	if err != nil {
		return nil, err
	}
	if callTarget == "" {
		return nil, xerrors.InvalidArgumentf("CustomCall: callTarget must not be empty")
	}
	if !outputShape.Ok() || outputShape.IsTuple() {
		return nil, xerrors.InvalidArgumentf("CustomCall %q: invalid output shape %s", callTarget, outputShape)
	}
	details := fmt.Sprintf("target=%q", callTarget)
	if len(opaque) > 0 {
		details += fmt.Sprintf(", opaque=<%d bytes>", len(opaque))
	}
	return b.newInstruction("CustomCall", outputShape.Clone(), details, inputs...), nil
}
