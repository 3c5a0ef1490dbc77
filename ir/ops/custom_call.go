package ops

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// CustomCall creates a call to a named target the backend knows how to
// execute, an escape hatch for operations outside the catalogue, like
// hand-written accelerator kernels. The result shape cannot be inferred and
// must be given; it must be a single (non-tuple) value. The opaque payload
// is passed to the backend verbatim and is copied on construction, the
// caller keeps ownership of its buffer.
func CustomCall(g *ir.Graph, target string, result shapes.Shape, opaque []byte, operands ...ir.Output) (ir.Output, error) {
	attrs := &customCallAttrs{target: target, result: result, opaque: slices.Clone(opaque)}
	node, err := ir.NewNode(g, KindCustomCall, operands, attrs)
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type customCallAttrs struct {
	target string
	result shapes.Shape
	opaque []byte
}

func (a *customCallAttrs) AddToHash(h *ir.Hasher) {
	h.WriteString(a.target)
	hashShape(h, a.result)
	h.WriteBytes(a.opaque)
}

// String elides the payload, which is binary and can be large.
func (a *customCallAttrs) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "target=%q", a.target)
	if len(a.opaque) > 0 {
		fmt.Fprintf(&sb, ", opaque=<%d bytes>", len(a.opaque))
	}
	return sb.String()
}

func init() {
	ir.RegisterOp(KindCustomCall, ir.OpDef{
		Infer: func(_ []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			a := attrs.(*customCallAttrs)
			if a.target == "" {
				return shapes.Invalid(), xerrors.InvalidArgumentf("%s requires a non-empty target", KindCustomCall)
			}
			if !a.result.Ok() || a.result.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf(
					"%s %q requires a valid non-tuple result shape, got %s", KindCustomCall, a.target, a.result)
			}
			return a.result, nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, inputs []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*customCallAttrs)
			op, err := builder.CustomCall(a.target, a.result, a.opaque, inputs...)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
