// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package notimplemented implements a backends.Builder that returns a "not
// implemented" error for every operation.
//
// This can help bootstrap any backend implementation: embed Builder and
// override the operations actually supported. It is also handy in tests that
// need a builder guaranteed to reject everything.
package notimplemented

import (
	"github.com/Bihan/xla/backends"
	"github.com/Bihan/xla/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// NotImplementedError is returned by every method.
//
// It doesn't contain a stack, attach one with errors.Wrapf(NotImplementedError, "...") when using it.
var NotImplementedError = backends.ErrNotImplemented

// Backend is a dummy backend that can be imported to create mock backends.
type Backend struct{}

var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string {
	return "notimplemented"
}

// String returns the same as Name.
func (b *Backend) String() string {
	return b.Name()
}

// Description is a longer description of the Backend.
func (b *Backend) Description() string {
	return "Not Implemented Backend (mock backend for testing)"
}

// Builder creates a new builder.
func (b *Backend) Builder(name string) backends.Builder {
	return Builder{}
}

// Finalize does nothing for this dummy backend.
func (b *Backend) Finalize() {}

// Builder implements backends.Builder and returns NotImplementedError wrapped
// with a stack-trace and the operation name for every operation.
type Builder struct{}

var _ backends.Builder = Builder{}

func (b Builder) Name() string {
	return "notimplemented"
}

func (b Builder) Build(outputs ...backends.Op) (backends.Computation, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Build()")
}

func (b Builder) OpShape(op backends.Op) (shapes.Shape, error) {
	return shapes.Invalid(), errors.Wrapf(NotImplementedError, "in OpShape()")
}

func (b Builder) Parameter(name string, shape shapes.Shape) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Parameter()")
}

func (b Builder) Constant(flat any, dims ...int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Constant()")
}

func (b Builder) Abs(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Abs()")
}

func (b Builder) Neg(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Neg()")
}

func (b Builder) Exp(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Exp()")
}

func (b Builder) Log(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Log()")
}

func (b Builder) Sqrt(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Sqrt()")
}

func (b Builder) Tanh(x backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Tanh()")
}

func (b Builder) Add(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Add()")
}

func (b Builder) Sub(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Sub()")
}

func (b Builder) Mul(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Mul()")
}

func (b Builder) Div(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Div()")
}

func (b Builder) Max(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Max()")
}

func (b Builder) Min(lhs, rhs backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Min()")
}

func (b Builder) ConvertDType(x backends.Op, dtype dtypes.DType) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in ConvertDType()")
}

func (b Builder) BroadcastInDim(x backends.Op, outputShape shapes.Shape, broadcastAxes []int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in BroadcastInDim()")
}

func (b Builder) ReduceMax(x backends.Op, axes ...int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in ReduceMax()")
}

func (b Builder) ReduceSum(x backends.Op, axes ...int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in ReduceSum()")
}

func (b Builder) Reshape(x backends.Op, dimensions ...int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Reshape()")
}

func (b Builder) Transpose(x backends.Op, permutation ...int) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Transpose()")
}

func (b Builder) Concatenate(axis int, operands ...backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Concatenate()")
}

func (b Builder) TopK(x backends.Op, k int, axis int, largest bool) (values, indices backends.Op, err error) {
	return nil, nil, errors.Wrapf(NotImplementedError, "in TopK()")
}

func (b Builder) CustomCall(callTarget string, outputShape shapes.Shape, opaque []byte, operands ...backends.Op) (backends.Op, error) {
	return nil, errors.Wrapf(NotImplementedError, "in CustomCall()")
}
