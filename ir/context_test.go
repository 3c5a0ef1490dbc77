package ir_test

import (
	"strings"
	"testing"

	"github.com/Bihan/xla/backends/capture"
	"github.com/Bihan/xla/backends/notimplemented"
	"github.com/Bihan/xla/ir"
	"github.com/Bihan/xla/ir/ops"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptureContext(name string) *ir.LoweringContext {
	return ir.NewLoweringContext(name, capture.New("").Builder(name))
}

func TestLoweringContextName(t *testing.T) {
	ctx := newCaptureContext("forward")
	assert.Equal(t, "forward", ctx.Name())

	anon1 := ir.NewLoweringContext("", notimplemented.Builder{})
	anon2 := ir.NewLoweringContext("", notimplemented.Builder{})
	assert.True(t, strings.HasPrefix(anon1.Name(), "lowering-"))
	assert.NotEqual(t, anon1.Name(), anon2.Name())
}

// TestLowerNodeTopologicalOrder lowers a consumer before its operand and
// checks the violation is detected and kills the session for good.
func TestLowerNodeTopologicalOrder(t *testing.T) {
	x, a, _, _ := diamond(t)
	ctx := newCaptureContext("out-of-order")

	err := ctx.LowerNode(a.Node)
	require.Error(t, err)
	assert.True(t, xerrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "topological order")

	// The first error sticks: the context refuses everything afterwards.
	assert.Equal(t, err, ctx.Err())
	assert.Equal(t, err, ctx.LowerNode(x.Node))
	assert.Equal(t, 0, ctx.NumLowered())
}

// TestLowerBackendRejection drives a graph into a builder that rejects every
// operation and checks the rejection surfaces as an Internal error.
func TestLowerBackendRejection(t *testing.T) {
	g := ir.NewGraph("rejected")
	x := mustParam(t, g, "x", 2)
	out, err := ops.Exp(x)
	require.NoError(t, err)

	ctx := ir.NewLoweringContext("reject", notimplemented.Builder{})
	err = ctx.LowerGraph(out)
	require.Error(t, err)
	assert.True(t, xerrors.IsInternal(err))
	assert.Contains(t, err.Error(), "backend rejected node")

	_, buildErr := ctx.Build(out)
	assert.Equal(t, err, buildErr)
}

func TestGetOutputOp(t *testing.T) {
	g := ir.NewGraph("handles")
	x := mustParam(t, g, "x", 3)
	out, err := ops.Tanh(x)
	require.NoError(t, err)
	ctx := newCaptureContext("handles")

	// Asking for a handle never lowers: before LowerGraph there is none. The
	// miss does not poison the session.
	_, err = ctx.GetOutputOp(out)
	require.Error(t, err)
	assert.True(t, xerrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "not lowered in this context")
	require.NoError(t, ctx.Err())

	require.NoError(t, ctx.LowerGraph(out))
	assert.Equal(t, 2, ctx.NumLowered())
	handle, err := ctx.GetOutputOp(out)
	require.NoError(t, err)
	assert.NotNil(t, handle)
}

// TestBuildFinalizes checks Build produces the backend's computation and
// spends the context.
func TestBuildFinalizes(t *testing.T) {
	g := ir.NewGraph("finalize")
	x := mustParam(t, g, "x", 4)
	out, err := ops.Neg(x)
	require.NoError(t, err)
	ctx := newCaptureContext("finalize")

	computation, err := ctx.Build(out)
	require.NoError(t, err)
	require.NotNil(t, computation)
	assert.Equal(t, "finalize", computation.Name())
	assert.Equal(t, 1, computation.NumOutputs())

	_, err = ctx.Build(out)
	require.Error(t, err)
	assert.True(t, xerrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "finalized by Build")
	assert.Equal(t, err, ctx.LowerNode(out.Node))
}
