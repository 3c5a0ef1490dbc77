package triton

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/Bihan/xla/types/xerrors"
	"github.com/dustin/go-humanize"
)

const (
	// uncompressInitialFactor sizes the first output buffer as a multiple of
	// the compressed length; kernel metadata rarely compresses better.
	uncompressInitialFactor = 5

	// uncompressGuessFloor keeps the first buffer useful for tiny payloads.
	uncompressGuessFloor = 64

	// maxUncompressedSize bounds the grow-and-retry loop. A payload claiming
	// to uncompress beyond it is rejected, not served.
	maxUncompressedSize = 1 << 30
)

// Uncompress inflates a zlib stream whose output size is not known up front:
// it guesses uncompressInitialFactor times the compressed size and retries
// with a doubled buffer whenever the buffer fills before the stream ends,
// up to maxUncompressedSize.
//
// Corrupt or truncated input returns an InvalidArgument error, never a
// fault, regardless of how wrong the initial guess was.
func Uncompress(compressed []byte) ([]byte, error) {
	guess := uncompressInitialFactor * len(compressed)
	if guess < uncompressGuessFloor {
		guess = uncompressGuessFloor
	}
	if guess > maxUncompressedSize {
		guess = maxUncompressedSize
	}
	for {
		data, done, err := uncompressInto(compressed, guess)
		if err != nil {
			return nil, err
		}
		if done {
			return data, nil
		}
		if guess == maxUncompressedSize {
			return nil, xerrors.InvalidArgumentf(
				"kernel-call payload uncompresses to more than %s", humanize.IBytes(maxUncompressedSize))
		}
		guess *= 2
		if guess > maxUncompressedSize {
			guess = maxUncompressedSize
		}
	}
}

// uncompressInto inflates into a buffer of the given size. done is false
// when the buffer filled with the stream still going, the caller's cue to
// retry larger.
func uncompressInto(compressed []byte, size int) (data []byte, done bool, err error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, false, xerrors.WrapInvalidArgument(err, "uncompressing kernel-call payload")
	}
	defer reader.Close()

	// One spare byte distinguishes "stream ended exactly at size" from
	// "stream continues past size".
	buffer := make([]byte, size+1)
	filled := 0
	for filled < len(buffer) {
		n, err := reader.Read(buffer[filled:])
		filled += n
		if err == io.EOF {
			return buffer[:filled], true, nil
		}
		if err != nil {
			// Truncated streams surface as io.ErrUnexpectedEOF here, corrupt
			// ones as zlib/flate errors; either way the payload is at fault.
			return nil, false, xerrors.WrapInvalidArgument(err, "uncompressing kernel-call payload")
		}
	}
	return nil, false, nil
}

// Compress deflates data into a zlib stream, the writer side of Uncompress.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	_, _ = writer.Write(data) // writes to a bytes.Buffer cannot fail
	_ = writer.Close()
	return buf.Bytes()
}
