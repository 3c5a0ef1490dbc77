// Package backends defines the interface the underlying tensor compiler needs
// to implement to serve as a lowering target.
//
// The graph building layer (package ir) talks exclusively to the Builder
// interface: it never inspects the Op handles it gets back, only routes them
// into later operations and finally into Builder.Build.
//
// A backend that doesn't implement every operation can simply return a "not
// implemented" error for it (see package
// github.com/Bihan/xla/backends/notimplemented), and it still works for
// graphs that don't use those operations.
package backends

import (
	"os"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// ErrNotImplemented indicates an operation is not implemented by the backend.
//
// Backends should return this (wrapped with the operation name) from every
// Builder method they don't support.
var ErrNotImplemented = errors.New("operation not implemented")

// Backend is the API a lowering target needs to implement.
type Backend interface {
	// Name returns the short name of the backend. E.g.: "capture" for the recording backend.
	Name() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// Builder creates a new builder used to define a new named computation.
	Builder(name string) Builder

	// Finalize releases all the associated resources immediately, and makes the backend invalid.
	Finalize()
}

// Constructor takes a config string (optionally empty) and returns a Backend.
type Constructor func(config string) Backend

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes as input a configuration string that is
// passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the name of the default backend configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// XLA_BACKEND is the environment variable with the default backend configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "capture") and
// "<backend_configuration>" is backend specific.
const XLA_BACKEND = "XLA_BACKEND"

// New returns a new default Backend.
//
// The default is:
//
// 1. The environment XLA_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered backend is used with an empty configuration.
//
// It panics if no backend was registered.
func New() Backend {
	config, found := os.LookupEnv(XLA_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig takes a configuration string formatted as
// "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "capture") and
// "<backend_configuration>" is backend specific.
func NewWithConfig(config string) Backend {
	if len(registeredConstructors) == 0 {
		exceptions.Panicf(`no registered backends -- maybe import the capture one with import _ "github.com/Bihan/xla/backends/capture"?`)
	}
	backendName := config
	backendConfig := ""
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	}
	if backendName == "" {
		backendName = firstRegistered
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		exceptions.Panicf("can't find backend %q for configuration %q given", backendName, config)
	}
	return constructor(backendConfig)
}
