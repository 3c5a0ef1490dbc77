package triton_test

import (
	"bytes"
	"testing"

	. "github.com/Bihan/xla/triton"
	"github.com/Bihan/xla/types/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestKernelCallRoundtrip(t *testing.T) {
	call := &KernelCall{
		Name:     "add_vectors_kernel",
		Metadata: []byte{0x08, 0x96, 0x01, 0xff, 0x00, 0x42},
	}
	opaque := Compress(EncodeKernelCall(call))

	decoded, err := ParseKernelCall(opaque)
	require.NoError(t, err)
	assert.Equal(t, call.Name, decoded.Name)
	assert.Equal(t, call.Metadata, decoded.Metadata)

	name, err := KernelCallName(opaque)
	require.NoError(t, err)
	assert.Equal(t, "add_vectors_kernel", name)

	metadata, err := KernelCallMetadata(opaque)
	require.NoError(t, err)
	assert.Equal(t, call.Metadata, metadata)
}

func TestKernelCallEmptyRecord(t *testing.T) {
	assert.Empty(t, EncodeKernelCall(&KernelCall{}), "empty fields are omitted")

	decoded, err := ParseKernelCall(Compress(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded.Name)
	assert.Empty(t, decoded.Metadata)
}

func TestKernelCallUnknownFieldsSkipped(t *testing.T) {
	var encoded []byte
	encoded = protowire.AppendTag(encoded, 3, protowire.VarintType)
	encoded = protowire.AppendVarint(encoded, 128)
	encoded = protowire.AppendTag(encoded, 1, protowire.BytesType)
	encoded = protowire.AppendString(encoded, "matmul_kernel")
	encoded = protowire.AppendTag(encoded, 7, protowire.BytesType)
	encoded = protowire.AppendBytes(encoded, []byte("future extension"))
	encoded = protowire.AppendTag(encoded, 2, protowire.BytesType)
	encoded = protowire.AppendBytes(encoded, []byte{1, 2, 3})
	encoded = protowire.AppendTag(encoded, 9, protowire.Fixed64Type)
	encoded = protowire.AppendFixed64(encoded, 42)

	decoded, err := ParseKernelCall(Compress(encoded))
	require.NoError(t, err)
	assert.Equal(t, "matmul_kernel", decoded.Name)
	assert.Equal(t, []byte{1, 2, 3}, decoded.Metadata)
}

func TestKernelCallRejectsWrongWireType(t *testing.T) {
	var encoded []byte
	encoded = protowire.AppendTag(encoded, 1, protowire.VarintType)
	encoded = protowire.AppendVarint(encoded, 7)

	_, err := ParseKernelCall(Compress(encoded))
	require.Error(t, err)
	assert.True(t, xerrors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "wire type")
}

func TestKernelCallRejectsTruncatedRecord(t *testing.T) {
	encoded := EncodeKernelCall(&KernelCall{Name: "reduce_kernel"})
	for _, cut := range []int{1, len(encoded) - 1} {
		_, err := ParseKernelCall(Compress(encoded[:cut]))
		require.Error(t, err, "record cut at %d bytes", cut)
		assert.True(t, xerrors.IsInvalidArgument(err))
	}
}

func TestUncompress(t *testing.T) {
	t.Run("Roundtrip", func(t *testing.T) {
		data := []byte("the quick brown fox jumps over the lazy dog")
		got, err := Uncompress(Compress(data))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Empty", func(t *testing.T) {
		got, err := Uncompress(Compress(nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("GrowsPastInitialGuess", func(t *testing.T) {
		// Highly compressible data: the compressed form is a few hundred
		// bytes, so the initial guess is far below the real size and the
		// buffer must double several times.
		data := bytes.Repeat([]byte{0}, 1<<20)
		compressed := Compress(data)
		require.Less(t, 5*len(compressed), len(data), "input must defeat the initial guess")

		got, err := Uncompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("NotZlib", func(t *testing.T) {
		_, err := Uncompress([]byte("definitely not a zlib stream"))
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := Uncompress(nil)
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
	})

	t.Run("CorruptHeader", func(t *testing.T) {
		compressed := Compress([]byte("payload"))
		compressed[0] ^= 0xff
		_, err := Uncompress(compressed)
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
	})

	t.Run("TruncatedStream", func(t *testing.T) {
		compressed := Compress(bytes.Repeat([]byte("abc"), 100))
		_, err := Uncompress(compressed[:len(compressed)-4])
		require.Error(t, err)
		assert.True(t, xerrors.IsInvalidArgument(err))
	})
}

func TestKernelCallClone(t *testing.T) {
	call := &KernelCall{Name: "softmax_kernel", Metadata: []byte{1, 2, 3}}
	clone := call.Clone()
	call.Metadata[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, clone.Metadata)
	assert.Equal(t, call.Name, clone.Name)
}
