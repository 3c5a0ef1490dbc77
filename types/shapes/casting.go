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
	"github.com/Bihan/xla/types/xerrors"
	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// CastScalar converts value to the Go type corresponding to dtype, returned
// as an `any`. This is how scalar constants for arbitrary dtypes are
// materialized, including the non-native Float16 and BFloat16.
//
// It returns an InvalidArgument error for dtypes without a Go representation.
func CastScalar(dtype DType, value float64) (any, error) {
	switch dtype {
	case Bool:
		return value != 0, nil
	case Int8:
		return int8(value), nil
	case Int16:
		return int16(value), nil
	case Int32:
		return int32(value), nil
	case Int64:
		return int64(value), nil
	case Uint8:
		return uint8(value), nil
	case Uint16:
		return uint16(value), nil
	case Uint32:
		return uint32(value), nil
	case Uint64:
		return uint64(value), nil
	case Float16:
		return float16.Fromfloat32(float32(value)), nil
	case BFloat16:
		return bfloat16.FromFloat32(float32(value)), nil
	case Float32:
		return float32(value), nil
	case Float64:
		return value, nil
	case Complex64:
		return complex(float32(value), 0), nil
	case Complex128:
		return complex(value, 0), nil
	}
	return nil, xerrors.InvalidArgumentf("CastScalar: dtype %s has no Go scalar representation", dtype)
}

// ScalarFromAny takes a Go scalar value of any supported type and returns its
// float64 representation and inferred dtype.
//
// The float64 round trip is lossy for Uint64/Int64 values above 2^53 and for
// Complex types (imaginary part dropped); callers that care keep the original.
func ScalarFromAny(value any) (float64, DType, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, Bool, nil
		}
		return 0, Bool, nil
	case int:
		return float64(v), Int64, nil
	case int8:
		return float64(v), Int8, nil
	case int16:
		return float64(v), Int16, nil
	case int32:
		return float64(v), Int32, nil
	case int64:
		return float64(v), Int64, nil
	case uint8:
		return float64(v), Uint8, nil
	case uint16:
		return float64(v), Uint16, nil
	case uint32:
		return float64(v), Uint32, nil
	case uint64:
		return float64(v), Uint64, nil
	case float16.Float16:
		return float64(v.Float32()), Float16, nil
	case bfloat16.BFloat16:
		return float64(v.Float32()), BFloat16, nil
	case float32:
		return float64(v), Float32, nil
	case float64:
		return v, Float64, nil
	case complex64:
		return float64(real(v)), Complex64, nil
	case complex128:
		return real(v), Complex128, nil
	}
	return 0, InvalidDType, xerrors.InvalidArgumentf("ScalarFromAny: unsupported Go type %T", value)
}
