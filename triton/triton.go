// Package triton decodes the kernel-call metadata blobs that GPU custom
// calls carry as their opaque payload: a zlib-compressed, protobuf-encoded
// record naming the kernel and wrapping its serialized launch metadata.
//
// The channel is a pure byte transform with no relationship to the graph
// model: higher layers hand the opaque payload in and get the record out.
// All failures are InvalidArgument errors, the payload is caller-supplied
// data.
package triton

import (
	"slices"

	"github.com/Bihan/xla/types/xerrors"
	"google.golang.org/protobuf/encoding/protowire"
)

// KernelCall is the decoded kernel-call record: the kernel's registered name
// and its serialized launch metadata, opaque at this layer.
type KernelCall struct {
	Name     string
	Metadata []byte
}

// Field numbers of the kernel-call record. Unknown fields are skipped on
// parsing, so the record can grow without breaking old readers.
const (
	kernelCallNameField     protowire.Number = 1
	kernelCallMetadataField protowire.Number = 2
)

// ParseKernelCall uncompresses and decodes an opaque kernel-call payload.
// It returns an InvalidArgument error if the payload is not a zlib stream or
// the uncompressed record is malformed.
func ParseKernelCall(opaque []byte) (*KernelCall, error) {
	serialized, err := Uncompress(opaque)
	if err != nil {
		return nil, err
	}
	call := &KernelCall{}
	for len(serialized) > 0 {
		num, typ, n := protowire.ConsumeTag(serialized)
		if n < 0 {
			return nil, xerrors.WrapInvalidArgument(protowire.ParseError(n), "parsing kernel-call record")
		}
		serialized = serialized[n:]
		switch num {
		case kernelCallNameField:
			if typ != protowire.BytesType {
				return nil, xerrors.InvalidArgumentf(
					"parsing kernel-call record: name field has wire type %d, expected %d", typ, protowire.BytesType)
			}
			name, n := protowire.ConsumeString(serialized)
			if n < 0 {
				return nil, xerrors.WrapInvalidArgument(protowire.ParseError(n), "parsing kernel-call name")
			}
			call.Name = name
			serialized = serialized[n:]
		case kernelCallMetadataField:
			if typ != protowire.BytesType {
				return nil, xerrors.InvalidArgumentf(
					"parsing kernel-call record: metadata field has wire type %d, expected %d", typ, protowire.BytesType)
			}
			metadata, n := protowire.ConsumeBytes(serialized)
			if n < 0 {
				return nil, xerrors.WrapInvalidArgument(protowire.ParseError(n), "parsing kernel-call metadata")
			}
			call.Metadata = metadata
			serialized = serialized[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, serialized)
			if n < 0 {
				return nil, xerrors.WrapInvalidArgument(protowire.ParseError(n), "skipping kernel-call field %d", num)
			}
			serialized = serialized[n:]
		}
	}
	return call, nil
}

// KernelCallName uncompresses an opaque kernel-call payload and returns the
// kernel name it carries.
func KernelCallName(opaque []byte) (string, error) {
	call, err := ParseKernelCall(opaque)
	if err != nil {
		return "", err
	}
	return call.Name, nil
}

// KernelCallMetadata uncompresses an opaque kernel-call payload and returns
// the serialized metadata it carries.
func KernelCallMetadata(opaque []byte) ([]byte, error) {
	call, err := ParseKernelCall(opaque)
	if err != nil {
		return nil, err
	}
	return call.Metadata, nil
}

// EncodeKernelCall serializes the record to its wire form, without the
// compression layer -- pair it with Compress to produce an opaque payload.
// Empty fields are omitted, as protobuf encoders do.
func EncodeKernelCall(call *KernelCall) []byte {
	var encoded []byte
	if call.Name != "" {
		encoded = protowire.AppendTag(encoded, kernelCallNameField, protowire.BytesType)
		encoded = protowire.AppendString(encoded, call.Name)
	}
	if len(call.Metadata) > 0 {
		encoded = protowire.AppendTag(encoded, kernelCallMetadataField, protowire.BytesType)
		encoded = protowire.AppendBytes(encoded, call.Metadata)
	}
	return encoded
}

// Clone returns a deep copy of the record.
func (c *KernelCall) Clone() *KernelCall {
	return &KernelCall{Name: c.Name, Metadata: slices.Clone(c.Metadata)}
}
