package capture

import (
	"fmt"
	"strings"

	"github.com/Bihan/xla/backends"
	"github.com/dustin/go-humanize"
)

// Program is the captured computation, the backends.Computation this backend
// produces. It is immutable.
type Program struct {
	name         string
	instructions []*Instruction
	parameters   []*Instruction
	outputs      []*Instruction
}

var _ backends.Computation = (*Program)(nil)

// Name implements backends.Computation.
func (p *Program) Name() string { return p.name }

// NumOutputs implements backends.Computation.
func (p *Program) NumOutputs() int { return len(p.outputs) }

// NumInstructions returns how many instructions were recorded.
func (p *Program) NumInstructions() int { return len(p.instructions) }

// Instructions returns the recorded instructions in recording (topological)
// order. Don't modify the returned slice.
func (p *Program) Instructions() []*Instruction { return p.instructions }

// Parameters returns the parameter instructions in creation order, which is
// also the order execution would feed them. Don't modify the returned slice.
func (p *Program) Parameters() []*Instruction { return p.parameters }

// Outputs returns the output instructions. Don't modify the returned slice.
func (p *Program) Outputs() []*Instruction { return p.outputs }

// OutputMemory returns the memory the program outputs would occupy if
// materialized.
func (p *Program) OutputMemory() uintptr {
	var total uintptr
	for _, output := range p.outputs {
		total += output.shape.Memory()
	}
	return total
}

// String renders the whole program, one instruction per line, e.g.
//
//	Program "softmax": 4 instructions, 1 parameter(s), outputs 128 B
//	%0 = Parameter(name="x") : (Float32)[4 8]
//	...
//	outputs: %3
func (p *Program) String() string {
	parts := make([]string, 0, len(p.instructions)+2)
	parts = append(parts, fmt.Sprintf("Program %q: %s instructions, %s parameter(s), outputs %s",
		p.name, humanize.Comma(int64(len(p.instructions))), humanize.Comma(int64(len(p.parameters))),
		humanize.Bytes(uint64(p.OutputMemory()))))
	for _, inst := range p.instructions {
		parts = append(parts, inst.String())
	}
	refs := make([]string, 0, len(p.outputs))
	for _, output := range p.outputs {
		refs = append(refs, fmt.Sprintf("%%%d", output.id))
	}
	parts = append(parts, "outputs: "+strings.Join(refs, ", "))
	return strings.Join(parts, "\n")
}
