/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package shapes

import (
	"testing"

	"github.com/Bihan/xla/types/xerrors"
	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.False(t, shape0.IsTuple())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.False(t, shape1.IsTuple())
	require.Equal(t, 3, shape1.Rank())
	require.Len(t, shape1.Dimensions, 3)
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))
	require.Equal(t, "(Float32)[4 3 2]", shape1.String())

	require.Equal(t, 2, shape1.Dim(-1))
	require.Equal(t, 4, shape1.Dim(0))
	require.Panics(t, func() { shape1.Dim(3) })
	require.Panics(t, func() { Make(Float32, 4, 0) })

	shape2, err := MakeOrError(Float32, 4, -1)
	require.Error(t, err)
	require.True(t, xerrors.IsInvalidArgument(err))
	require.False(t, shape2.Ok())

	shape3, err := MakeOrError(Float32, 4, 3, 2)
	require.NoError(t, err)
	require.True(t, shape3.Equal(shape1))
}

func TestShapeEqual(t *testing.T) {
	s1 := Make(Float32, 4, 8)
	s2 := Make(Float32, 4, 8)
	require.True(t, s1.Equal(s2))
	require.True(t, s1.EqualDimensions(Make(Int32, 4, 8)))
	require.False(t, s1.Equal(Make(Int32, 4, 8)))
	require.False(t, s1.Equal(Make(Float32, 8, 4)))
	require.False(t, s1.Equal(Make(Float32, 4)))
	require.True(t, Scalar[float32]().Equal(Make(Float32)))

	clone := s1.Clone()
	require.True(t, clone.Equal(s1))
	clone.Dimensions[0] = 7
	require.Equal(t, 4, s1.Dimensions[0])
}

func TestTuple(t *testing.T) {
	values := Make(Float32, 4, 3)
	indices := Make(Int64, 4, 3)
	tuple := MakeTuple([]Shape{values, indices})
	require.True(t, tuple.Ok())
	require.True(t, tuple.IsTuple())
	require.False(t, tuple.IsScalar())
	require.Equal(t, 2, tuple.TupleSize())
	require.True(t, tuple.TupleShape(0).Equal(values))
	require.True(t, tuple.TupleShape(1).Equal(indices))
	require.Panics(t, func() { tuple.TupleShape(2) })
	require.Equal(t, "Tuple<(Float32)[4 3], (Int64)[4 3]>", tuple.String())
	require.Equal(t, values.Memory()+indices.Memory(), tuple.Memory())

	require.True(t, tuple.Equal(MakeTuple([]Shape{values, indices})))
	require.False(t, tuple.Equal(MakeTuple([]Shape{indices, values})))
	require.False(t, tuple.Equal(values))

	// Non-tuples answer TupleShape(0) with themselves.
	require.True(t, values.TupleShape(0).Equal(values))
	require.Panics(t, func() { values.TupleShape(1) })
}

func TestCheckAndAssert(t *testing.T) {
	s := Make(Float32, 4, 8)
	require.NoError(t, s.CheckDims(4, 8))
	require.NoError(t, s.CheckDims(4, UncheckedAxis))
	require.Error(t, s.CheckDims(4))
	require.Error(t, s.CheckDims(4, 7))
	require.True(t, xerrors.IsInvalidArgument(s.CheckDims(4, 7)))
	require.NoError(t, s.Check(Float32, 4, 8))
	require.Error(t, s.Check(Int32, 4, 8))
	require.NoError(t, s.CheckRank(2))
	require.Error(t, s.CheckRank(3))
	require.NoError(t, Make(Float32).CheckScalar())
	require.Error(t, s.CheckScalar())

	require.NotPanics(t, func() { AssertDims(s, 4, -1) })
	require.Panics(t, func() { AssertDims(s, 4, 7) })
	require.NotPanics(t, func() { AssertRank(s, 2) })
	require.Panics(t, func() { AssertRank(s, 1) })
	require.Panics(t, func() { AssertScalar(s) })
	require.NotPanics(t, func() { Assert(s, Float32, 4, 8) })
}

func TestCastScalar(t *testing.T) {
	v, err := CastScalar(Float32, 1.5)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v)

	v, err = CastScalar(Int64, -3)
	require.NoError(t, err)
	require.Equal(t, int64(-3), v)

	v, err = CastScalar(Bool, 1)
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = CastScalar(Float16, 2)
	require.NoError(t, err)
	require.Equal(t, float16.Fromfloat32(2), v)

	v, err = CastScalar(BFloat16, 2)
	require.NoError(t, err)
	require.Equal(t, bfloat16.FromFloat32(2), v)

	v, err = CastScalar(Complex64, 0.5)
	require.NoError(t, err)
	require.Equal(t, complex(float32(0.5), 0), v)

	_, err = CastScalar(InvalidDType, 1)
	require.Error(t, err)
	require.True(t, xerrors.IsInvalidArgument(err))
}

func TestScalarFromAny(t *testing.T) {
	for _, test := range []struct {
		value     any
		wantValue float64
		wantDType DType
	}{
		{float32(1.5), 1.5, Float32},
		{2.5, 2.5, Float64},
		{int(7), 7, Int64},
		{int32(7), 7, Int32},
		{uint16(9), 9, Uint16},
		{true, 1, Bool},
		{float16.Fromfloat32(4), 4, Float16},
		{bfloat16.FromFloat32(4), 4, BFloat16},
	} {
		value, dtype, err := ScalarFromAny(test.value)
		require.NoErrorf(t, err, "value=%v", test.value)
		require.Equalf(t, test.wantDType, dtype, "value=%v", test.value)
		require.InDeltaf(t, test.wantValue, value, 1e-3, "value=%v", test.value)
	}

	_, _, err := ScalarFromAny("not a scalar")
	require.Error(t, err)
	require.True(t, xerrors.IsInvalidArgument(err))
}
