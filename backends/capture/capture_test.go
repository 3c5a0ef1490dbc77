package capture_test

import (
	"testing"

	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/backends/capture"
	"github.com/Bihan/xla/types/shapes"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolution(t *testing.T) {
	backend := backends.NewWithConfig(capture.BackendName)
	assert.Equal(t, capture.BackendName, backend.Name())

	// An empty configuration falls back to the first registered backend.
	assert.Equal(t, capture.BackendName, backends.NewWithConfig("").Name())

	t.Setenv(backends.XLA_BACKEND, capture.BackendName+":options-are-ignored")
	assert.Equal(t, capture.BackendName, backends.New().Name())

	require.Panics(t, func() { backends.NewWithConfig("no-such-backend") })
}

func TestFinalize(t *testing.T) {
	backend := capture.New("")
	backend.Finalize()
	require.Panics(t, func() { backend.Builder("after-finalize") })
}

func TestBuilderValidation(t *testing.T) {
	builder := capture.New("").Builder("validation")
	shape := shapes.Make(dtypes.F32, 2, 3)
	x, err := builder.Parameter("x", shape)
	require.NoError(t, err)

	_, err = builder.Parameter("x", shape)
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "already taken")

	ints, err := builder.Parameter("ints", shapes.Make(dtypes.Int64, 2, 3))
	require.NoError(t, err)
	_, err = builder.Exp(ints)
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "float operand")

	y, err := builder.Parameter("y", shapes.Make(dtypes.F32, 3, 2))
	require.NoError(t, err)
	_, err = builder.Add(x, y)
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "identical shapes")

	// Handles are only meaningful within the builder that created them.
	foreign, err := capture.New("").Builder("other").Parameter("x", shape)
	require.NoError(t, err)
	require.Panics(t, func() { _, _ = builder.Neg(foreign) })

	out, err := builder.Neg(x)
	require.NoError(t, err)
	_, err = builder.Build()
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))

	// Build closes the recording, then every operation fails.
	computation, err := builder.Build(out)
	require.NoError(t, err)
	assert.Equal(t, "validation", computation.Name())
	assert.Equal(t, 1, computation.NumOutputs())
	_, err = builder.Tanh(x)
	require.Error(t, err)
	assert.True(t, xerrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "already been built")
}

func TestConstant(t *testing.T) {
	builder := capture.New("").Builder("constants")

	scalar, err := builder.Constant(float32(1.5))
	require.NoError(t, err)
	shape, err := builder.OpShape(scalar)
	require.NoError(t, err)
	assert.Equal(t, "(Float32)", shape.String())

	matrix, err := builder.Constant([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	shape, err = builder.OpShape(matrix)
	require.NoError(t, err)
	assert.Equal(t, "(Float64)[2 3]", shape.String())

	_, err = builder.Constant([]float64{1, 2, 3}, 2, 3)
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))

	_, err = builder.Constant(float32(1.5), 2)
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))
}
