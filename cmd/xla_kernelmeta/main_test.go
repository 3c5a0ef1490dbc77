package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Bihan/xla/triton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, data, 0o644))
	return file
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	call := &triton.KernelCall{Name: "fused_attention_kernel", Metadata: []byte{1, 2, 3, 4}}
	opaque := triton.Compress(triton.EncodeKernelCall(call))
	good := writeBlob(t, dir, "good.bin", opaque)
	bad := writeBlob(t, dir, "bad.bin", []byte("not a blob"))

	report := inspect(good)
	require.NoError(t, report.err)
	assert.Equal(t, "fused_attention_kernel", report.call.Name)
	assert.Equal(t, len(opaque), report.compressed)
	assert.Equal(t, len(triton.EncodeKernelCall(call)), report.uncompressed)

	report = inspect(bad)
	assert.Error(t, report.err)

	report = inspect(filepath.Join(dir, "missing.bin"))
	assert.Error(t, report.err)
}
