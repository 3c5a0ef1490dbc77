package ir

import (
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
)

// OpKind is an interned operator identifier, a (namespace, name) pair like
// "aten::log_softmax" or "xla::device_data".
//
// OpKind values are cheap to compare (integer equality) and carry a
// precomputed hash. The zero OpKind is invalid. Use Kind or NamespacedKind to
// create or look one up; repeated lookups of the same identifier return the
// identical value.
type OpKind int32

type kindEntry struct {
	namespace, name string
	full            string
	hash            Hash
}

var kindTable = struct {
	mu      sync.Mutex
	byFull  map[string]OpKind
	entries []kindEntry
}{
	byFull: make(map[string]OpKind),
}

// Kind interns the operator identifier given in "namespace::name" form and
// returns its OpKind. An identifier without "::" gets an empty namespace.
func Kind(full string) OpKind {
	if full == "" {
		exceptions.Panicf("ir.Kind given an empty operator identifier")
	}
	kindTable.mu.Lock()
	defer kindTable.mu.Unlock()
	if kind, found := kindTable.byFull[full]; found {
		return kind
	}
	namespace, name, found := strings.Cut(full, "::")
	if !found {
		namespace, name = "", full
	}
	kindTable.entries = append(kindTable.entries, kindEntry{
		namespace: namespace,
		name:      name,
		full:      full,
		hash:      HashString(full),
	})
	kind := OpKind(len(kindTable.entries)) // Entry ii is OpKind ii+1, so the zero OpKind stays invalid.
	kindTable.byFull[full] = kind
	return kind
}

// NamespacedKind interns the operator identifier given as a separate
// namespace and name. NamespacedKind("aten", "add") == Kind("aten::add").
func NamespacedKind(namespace, name string) OpKind {
	if namespace == "" {
		return Kind(name)
	}
	return Kind(namespace + "::" + name)
}

// Ok returns whether this is a valid (interned) OpKind. The zero value is not.
func (k OpKind) Ok() bool {
	return k > 0 && int(k) <= numKinds()
}

func numKinds() int {
	kindTable.mu.Lock()
	defer kindTable.mu.Unlock()
	return len(kindTable.entries)
}

func (k OpKind) entry() kindEntry {
	kindTable.mu.Lock()
	defer kindTable.mu.Unlock()
	if k <= 0 || int(k) > len(kindTable.entries) {
		exceptions.Panicf("invalid OpKind(%d) -- OpKind values must be created with ir.Kind", int(k))
	}
	return kindTable.entries[k-1]
}

// String returns the full "namespace::name" identifier.
func (k OpKind) String() string {
	if k == 0 {
		return "<invalid OpKind>"
	}
	return k.entry().full
}

// Namespace returns the namespace part of the identifier, possibly empty.
func (k OpKind) Namespace() string {
	return k.entry().namespace
}

// Name returns the name part of the identifier, without the namespace.
func (k OpKind) Name() string {
	return k.entry().name
}

// Hash returns the hash of the identifier, precomputed at intern time.
func (k OpKind) Hash() Hash {
	return k.entry().hash
}
