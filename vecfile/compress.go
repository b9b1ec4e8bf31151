package vecfile

import (
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the stream wrapper applied around the frozen format.
type Compression uint8

const (
	// CompressionNone stores the format as-is.
	CompressionNone Compression = iota
	// CompressionZstd wraps the stream in a zstd frame (.zst).
	CompressionZstd
	// CompressionLZ4 wraps the stream in an LZ4 frame (.lz4).
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionFor picks the compression from the path suffix.
func CompressionFor(path string) Compression {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".zst"), strings.HasSuffix(p, ".zstd"):
		return CompressionZstd
	case strings.HasSuffix(p, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w. Closing the result flushes the frame but does not
// close w.
func compressWriter(c Compression, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// decompressReader wraps r. Closing the result releases decoder state but
// does not close r.
func decompressReader(c Compression, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
