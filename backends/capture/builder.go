package capture

import (
	"fmt"
	"strings"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// Builder records one computation as a sequence of Instructions.
//
// Instructions are only created after their inputs, so the recording order is
// a topological order of the captured program.
type Builder struct {
	backend *Backend
	name    string
	built   bool

	instructions []*Instruction
	parameters   []*Instruction
	paramByName  map[string]*Instruction
}

var _ backends.Builder = (*Builder)(nil)

func newBuilder(backend *Backend, name string) *Builder {
	return &Builder{
		backend:     backend,
		name:        name,
		paramByName: make(map[string]*Instruction),
	}
}

// Name implements backends.Builder.
func (b *Builder) Name() string { return b.name }

// Instruction is one recorded operation, the concrete type behind the
// backends.Op handles this backend returns.
type Instruction struct {
	builder *Builder
	id      int
	op      string
	inputs  []*Instruction
	details string
	shape   shapes.Shape

	// selectIndex is >= 0 on instructions extracting one output of a
	// multi-output instruction (their single input).
	selectIndex int
}

// Op name of the instruction, e.g. "ReduceMax".
func (inst *Instruction) Op() string { return inst.op }

// Shape of the instruction's value.
func (inst *Instruction) Shape() shapes.Shape { return inst.shape }

// Inputs returns the instructions feeding this one. Don't modify the
// returned slice.
func (inst *Instruction) Inputs() []*Instruction { return inst.inputs }

// Details returns the rendered attributes, e.g. `axes=[1]`. It returns ""
// when the operation has none.
func (inst *Instruction) Details() string { return inst.details }

// String renders the instruction as one program line, e.g.
// "%4 = ReduceMax(%3, axes=[1]) : (Float32)[4]".
func (inst *Instruction) String() string {
	parts := make([]string, 0, len(inst.inputs)+1)
	for _, input := range inst.inputs {
		parts = append(parts, fmt.Sprintf("%%%d", input.id))
	}
	if inst.details != "" {
		parts = append(parts, inst.details)
	}
	return fmt.Sprintf("%%%d = %s(%s) : %s", inst.id, inst.op, strings.Join(parts, ", "), inst.shape)
}

func (b *Builder) newInstruction(op string, shape shapes.Shape, details string, inputs ...*Instruction) *Instruction {
	inst := &Instruction{
		builder:     b,
		id:          len(b.instructions),
		op:          op,
		inputs:      inputs,
		details:     details,
		shape:       shape,
		selectIndex: -1,
	}
	b.instructions = append(b.instructions, inst)
	if klog.V(2).Enabled() {
		klog.Infof("capture %q: %s", b.name, inst)
	}
	return inst
}

// checkOps resolves backends.Op handles into this builder's Instructions.
// Handles from another builder (or nil, or a foreign type) are a programming
// error and panic; using the builder after Build is reported as a
// FailedPrecondition error.
func (b *Builder) checkOps(op string, ops ...backends.Op) ([]*Instruction, error) {
	if b.built {
		return nil, xerrors.FailedPreconditionf("%s: builder %q has already been built", op, b.name)
	}
	instructions := make([]*Instruction, len(ops))
	for ii, handle := range ops {
		if handle == nil {
			exceptions.Panicf("%s: input op #%d is nil", op, ii)
		}
		inst, ok := handle.(*Instruction)
		if !ok {
			exceptions.Panicf("%s: input op #%d (%T) was not created by the %q backend", op, ii, handle, BackendName)
		}
		if inst.builder != b {
			exceptions.Panicf("%s: input op #%d was created by builder %q, not by builder %q",
				op, ii, inst.builder.name, b.name)
		}
		instructions[ii] = inst
	}
	return instructions, nil
}

// OpShape implements backends.Builder.
func (b *Builder) OpShape(op backends.Op) (shapes.Shape, error) {
	inputs, err := b.checkOps("OpShape", op)
	if err != nil {
		return shapes.Invalid(), err
	}
	return inputs[0].shape, nil
}

// Build implements backends.Builder: it closes the recording and returns the
// captured Program. The builder is invalidated, further operations fail with
// FailedPrecondition.
func (b *Builder) Build(outputs ...backends.Op) (backends.Computation, error) {
	if len(outputs) == 0 {
		return nil, xerrors.InvalidArgumentf("Build: at least one output is required")
	}
	instructions, err := b.checkOps("Build", outputs...)
	if err != nil {
		return nil, err
	}
	for ii, inst := range instructions {
		if inst.shape.IsTuple() {
			return nil, xerrors.InvalidArgumentf(
				"Build: output #%d (%s) is a multi-output instruction, select one of its outputs instead", ii, inst.op)
		}
	}
	b.built = true
	program := &Program{
		name:         b.name,
		instructions: b.instructions,
		parameters:   b.parameters,
		outputs:      instructions,
	}
	klog.V(1).Infof("capture: built program %q, %d instruction(s), %d parameter(s), %d output(s)",
		b.name, len(program.instructions), len(program.parameters), len(program.outputs))
	return program, nil
}
