// Package capture implements a backend that records computations instead of
// executing them.
//
// Every Builder operation appends an Instruction to the program being built,
// after validating shapes the way a real target compiler would. The resulting
// Program can be dumped, inspected and asserted on, which makes this backend
// the reference target for tests and for debugging lowering passes.
//
// To make it the default backend, import it for its registration side effect:
//
//	import _ "github.com/Bihan/xla/backends/capture"
package capture

import (
	"github.com/Bihan/xla/backends"
	"github.com/gomlx/exceptions"
)

// BackendName to use in the XLA_BACKEND environment variable or in
// backends.NewWithConfig.
const BackendName = "capture"

func init() {
	backends.Register(BackendName, New)
}

// New creates a capture Backend. The configuration string is accepted for
// interface compatibility and ignored, the backend has no options.
func New(_ string) backends.Backend {
	return &Backend{}
}

// Backend records computations as Programs. See package documentation.
type Backend struct {
	finalized bool
}

var _ backends.Backend = (*Backend)(nil)

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Description implements backends.Backend.
func (b *Backend) Description() string {
	return "Recording backend: captures computations as inspectable programs, does not execute them"
}

// Builder implements backends.Backend.
func (b *Backend) Builder(name string) backends.Builder {
	if b.finalized {
		exceptions.Panicf("backend %q has been finalized and cannot create builders", BackendName)
	}
	return newBuilder(b, name)
}

// Finalize implements backends.Backend. The capture backend holds no external
// resources, it only marks itself invalid.
func (b *Backend) Finalize() {
	b.finalized = true
}
