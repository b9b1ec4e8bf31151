package vecfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
)

func encodeRaw(t *testing.T, rows, cols uint32, payload []uint32) []byte {
	t.Helper()
	b := binary.LittleEndian.AppendUint32(nil, rows)
	b = binary.LittleEndian.AppendUint32(b, cols)
	for _, v := range payload {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func TestWriteFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.fbin")
	m, err := FromRows([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, m))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, b, 8+4*4)

	want := encodeRaw(t, 2, 2, []uint32{
		math.Float32bits(1), math.Float32bits(2), math.Float32bits(3), math.Float32bits(4),
	})
	assert.Equal(t, want, b)
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fbin")
	require.NoError(t, WriteFile(path, Matrix[float32]{}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), b)

	m, err := ReadFile[float32](path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Rows)
	assert.Equal(t, 0, m.Cols)
	assert.Empty(t, m.Data)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	t.Run("float32", func(t *testing.T) {
		m, err := FromRows([][]float32{{0.5, -1, float32(math.Inf(1))}, {3, 1e-30, 7}})
		require.NoError(t, err)
		path := filepath.Join(dir, "f.fbin")
		require.NoError(t, WriteFile(path, m))

		got, err := ReadFile[float32](path)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	})

	t.Run("uint32", func(t *testing.T) {
		m, err := FromRows([][]uint32{{0, 1}, {math.MaxUint32, 42}, {7, 8}})
		require.NoError(t, err)
		path := filepath.Join(dir, "u.ibin")
		require.NoError(t, WriteFile(path, m))

		got, err := ReadFile[uint32](path)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	})

	t.Run("zero width", func(t *testing.T) {
		m := NewMatrix[float32](3, 0)
		path := filepath.Join(dir, "z.fbin")
		require.NoError(t, WriteFile(path, m))

		got, err := ReadFile[float32](path)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Rows)
		assert.Equal(t, 0, got.Cols)
	})
}

func TestCompressedRoundTrip(t *testing.T) {
	m := NewMatrix[float32](64, 16)
	for i := range m.Data {
		m.Data[i] = float32(i%7) * 0.25
	}

	for _, name := range []string{"v.fbin.zst", "v.fbin.zstd", "v.fbin.lz4", "v.FBIN.LZ4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, m))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Less(t, len(raw), int(mustHeader(t, m).FileBytes()))

			got, err := ReadFile[float32](path)
			require.NoError(t, err)
			assert.Equal(t, m, got)

			h, err := ReadHeader(path)
			require.NoError(t, err)
			assert.Equal(t, Header{Rows: 64, Cols: 16}, h)
		})
	}
}

func mustHeader[T Element](t *testing.T, m Matrix[T]) Header {
	t.Helper()
	h, err := m.Header()
	require.NoError(t, err)
	return h
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionNone, CompressionFor("a.fbin"))
	assert.Equal(t, CompressionZstd, CompressionFor("a.fbin.zst"))
	assert.Equal(t, CompressionZstd, CompressionFor("a.zstd"))
	assert.Equal(t, CompressionLZ4, CompressionFor("/x/y.ibin.lz4"))
	assert.Equal(t, "zstd", CompressionZstd.String())
}

func TestTruncatedPayload(t *testing.T) {
	payload := make([]uint32, 500*4)
	raw := encodeRaw(t, 1000, 4, payload)

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.fbin")
		require.NoError(t, os.WriteFile(path, raw, 0o644))

		_, err := ReadFile[float32](path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrFormat)
		assert.Contains(t, err.Error(), "1000")
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), path)
	})

	t.Run("stream", func(t *testing.T) {
		r, err := NewReader[float32](bytes.NewReader(raw))
		require.NoError(t, err)
		_, err = r.ReadAll()
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrFormat)
		assert.Contains(t, err.Error(), "only 500 present")
	})

	t.Run("compressed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.fbin.zst")
		var buf bytes.Buffer
		w, err := compressWriter(CompressionZstd, &buf)
		require.NoError(t, err)
		_, err = w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

		_, err = ReadFile[float32](path)
		assert.ErrorIs(t, err, errs.ErrFormat)
	})
}

func TestShortHeader(t *testing.T) {
	_, err := NewReader[uint32](bytes.NewReader([]byte{1, 0, 0}))
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestTrailingBytes(t *testing.T) {
	raw := append(encodeRaw(t, 1, 2, []uint32{1, 2}), 0xff)

	path := filepath.Join(t.TempDir(), "long.ibin")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	_, err := ReadFile[uint32](path)
	assert.ErrorIs(t, err, errs.ErrFormat)

	r, err := NewReader[uint32](bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = r.ReadAll()
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestStreamingReader(t *testing.T) {
	raw := encodeRaw(t, 3, 2, []uint32{1, 2, 3, 4, 5, 6})
	r, err := NewReader[uint32](bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, Header{Rows: 3, Cols: 2}, r.Header())

	row := make([]uint32, 2)
	var got [][]uint32
	for {
		err := r.ReadRow(row)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, append([]uint32(nil), row...))
	}
	assert.Equal(t, [][]uint32{{1, 2}, {3, 4}, {5, 6}}, got)
	assert.Zero(t, r.Remaining())
	require.NoError(t, r.Finish())

	err = r.ReadRow(make([]uint32, 3))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestWriterRowChecks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter[float32](&buf, Header{Rows: 2, Cols: 3})
	require.NoError(t, err)

	assert.ErrorIs(t, w.WriteRow([]float32{1, 2}), errs.ErrValidation)
	require.NoError(t, w.WriteRow([]float32{1, 2, 3}))
	assert.ErrorIs(t, w.Finish(), errs.ErrValidation)
	require.NoError(t, w.WriteRow([]float32{4, 5, 6}))
	require.NoError(t, w.Finish())
	assert.ErrorIs(t, w.WriteRow([]float32{7, 8, 9}), errs.ErrValidation)
	assert.Equal(t, uint32(2), w.Written())
	assert.Equal(t, 8+2*3*4, buf.Len())
}

func TestCreateCommitAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.fbin")

	fw, err := Create[float32](path, Header{Rows: 1, Cols: 2})
	require.NoError(t, err)
	require.NoError(t, fw.WriteRow([]float32{1, 2}))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file must not appear before commit")
	require.NoError(t, fw.Commit())

	got, err := ReadFile[float32](path)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Data)

	fw, err = Create[float32](filepath.Join(dir, "aborted.fbin"), Header{Rows: 1, Cols: 2})
	require.NoError(t, err)
	fw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.fbin", entries[0].Name())
}

func TestCreateFSFaults(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		fault fs.Fault
	}{
		{"Write", "out.fbin", fs.Fault{FailAfterBytes: 8}},
		{"Sync", "out.fbin", fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"Rename", "out.fbin", fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
		{"RenameCompressed", "out.fbin.zst", fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("out.fbin", tt.fault)

			fw, err := CreateFS[float32](ffs, filepath.Join(dir, tt.path), Header{Rows: 2, Cols: 2})
			require.NoError(t, err)
			require.NoError(t, fw.WriteRow([]float32{1, 2}))
			require.NoError(t, fw.WriteRow([]float32{3, 4}))

			err = fw.Commit()
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrIO)
			assert.ErrorIs(t, err, fs.ErrInjected)
			fw.Abort()

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestCommitRequiresAllRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.fbin")

	fw, err := Create[float32](path, Header{Rows: 2, Cols: 1})
	require.NoError(t, err)
	require.NoError(t, fw.WriteRow([]float32{1}))
	assert.ErrorIs(t, fw.Commit(), errs.ErrValidation)
	fw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateUnwritableDir(t *testing.T) {
	_, err := Create[float32](filepath.Join(t.TempDir(), "missing", "x.fbin"), Header{})
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadFile[float32](filepath.Join(t.TempDir(), "nope.fbin"))
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappedMatchesDecoded(t *testing.T) {
	m := NewMatrix[float32](100, 8)
	for i := range m.Data {
		m.Data[i] = float32(i) / 3
	}
	path := filepath.Join(t.TempDir(), "base.fbin")
	require.NoError(t, WriteFile(path, m))

	v, err := OpenMapped[float32](path)
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, Header{Rows: 100, Cols: 8}, v.Header())
	assert.Equal(t, m, v.Matrix())
}

func TestMappedRejects(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.fbin")
	require.NoError(t, os.WriteFile(short, encodeRaw(t, 10, 2, []uint32{1, 2}), 0o644))
	_, err := OpenMapped[float32](short)
	assert.ErrorIs(t, err, errs.ErrFormat)

	long := filepath.Join(dir, "long.fbin")
	require.NoError(t, os.WriteFile(long, append(encodeRaw(t, 1, 1, []uint32{1}), 0), 0o644))
	_, err = OpenMapped[float32](long)
	assert.ErrorIs(t, err, errs.ErrFormat)

	_, err = OpenMapped[float32](filepath.Join(dir, "x.fbin.zst"))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestConversions(t *testing.T) {
	f, err := FromFloat64Rows([][]float64{{0.1, 1e40}, {-2, 3}})
	require.NoError(t, err)
	assert.Equal(t, float32(0.1), f.Data[0])
	assert.True(t, math.IsInf(float64(f.Data[1]), 1))

	u, err := FromInt64Rows([][]int64{{-5, 7}, {math.MaxUint32 + 10, 0}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 7, math.MaxUint32, 0}, u.Data)

	_, err = FromInt64Rows([][]int64{{1}, {1, 2}})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRaggedRows(t *testing.T) {
	_, err := FromRows([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestNewHeaderOverflow(t *testing.T) {
	if math.MaxInt == math.MaxInt32 {
		t.Skip("int cannot exceed uint32 on this platform")
	}
	var big64 int64 = math.MaxUint32 + 1
	big := int(big64)
	_, err := NewHeader(big, 1)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = NewHeader(1, -1)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
