package labels

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
)

func TestReadFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Set
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", Set{"a", "b"}},
		{"no trailing newline", "a\nb", Set{"a", "b"}},
		{"crlf", "cat\r\ndog\r\n", Set{"cat", "dog"}},
		{"blank label", "a\n\nc\n", Set{"a", "", "c"}},
		{"spaces kept", " x \n", Set{" x "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFrom(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	in := Set{"3", "airplane", "", "7"}
	require.NoError(t, Write(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3\nairplane\n\n7\n", string(raw))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteRejectsLineBreak(t *testing.T) {
	dir := t.TempDir()
	err := Write(filepath.Join(dir, "bad.txt"), Set{"ok", "a\nb"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateFSRenameFault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train_labels.txt")

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("train_labels.txt", fs.Fault{FailAfterBytes: -1, FailOnRename: true})

	fw, err := CreateFS(ffs, path)
	require.NoError(t, err)
	require.NoError(t, fw.Write("cat"))

	err = fw.Commit()
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.ErrorIs(t, err, fs.ErrInjected)
	fw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The same writer path works once the fault is gone.
	fw, err = CreateFS(fs.NewFaultyFS(nil), path)
	require.NoError(t, err)
	require.NoError(t, fw.Write("dog"))
	require.NoError(t, fw.Commit())

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Set{"dog"}, got)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), DefaultFile))
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestFromInts(t *testing.T) {
	assert.Equal(t, Set{"0", "9", "-1"}, FromInts([]int32{0, 9, -1}))
	assert.Equal(t, Set{"255"}, FromInts([]uint8{255}))
}

func TestIndex(t *testing.T) {
	idx, err := NewIndex(Set{"a", "b", "a", "c", "a"})
	require.NoError(t, err)

	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, []string{"a", "b", "c"}, idx.Labels())
	assert.Equal(t, 3, idx.Count("a"))
	assert.Equal(t, 0, idx.Count("z"))
	assert.Nil(t, idx.Bitmap("z"))
	assert.Equal(t, []uint32{0, 2, 4}, slices.Collect(idx.Rows("a")))
	assert.Empty(t, slices.Collect(idx.Rows("z")))
	assert.True(t, idx.Bitmap("c").Contains(3))
}
