package ops

import (
	"fmt"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
)

// Parameter creates a graph input holding device data with the given shape.
// The name identifies the input when the graph is built into a computation,
// and must be unique within the graph for the build to succeed.
func Parameter(g *ir.Graph, name string, shape shapes.Shape) (ir.Output, error) {
	node, err := ir.NewNode(g, KindDeviceData, nil, &parameterAttrs{name: name, shape: shape})
	if err != nil {
		return ir.Output{}, err
	}
	return node.First(), nil
}

type parameterAttrs struct {
	name  string
	shape shapes.Shape
}

func (a *parameterAttrs) AddToHash(h *ir.Hasher) {
	h.WriteString(a.name)
	hashShape(h, a.shape)
}

func (a *parameterAttrs) String() string {
	return fmt.Sprintf("name=%q", a.name)
}

func init() {
	ir.RegisterOp(KindDeviceData, ir.OpDef{
		Infer: func(operands []ir.Output, attrs ir.Attrs) (shapes.Shape, error) {
			if err := checkNumOperands(KindDeviceData, operands, 0); err != nil {
				return shapes.Invalid(), err
			}
			a := attrs.(*parameterAttrs)
			if a.name == "" {
				return shapes.Invalid(), xerrors.InvalidArgumentf("parameter requires a non-empty name")
			}
			if !a.shape.Ok() || a.shape.IsTuple() {
				return shapes.Invalid(), xerrors.InvalidArgumentf("parameter %q requires a valid non-tuple shape, got %s", a.name, a.shape)
			}
			return a.shape, nil
		},
		Lower: func(builder backends.Builder, node *ir.Node, _ []backends.Op) ([]backends.Op, error) {
			a := node.Attrs().(*parameterAttrs)
			op, err := builder.Parameter(a.name, a.shape)
			if err != nil {
				return nil, err
			}
			return []backends.Op{op}, nil
		},
	})
}
