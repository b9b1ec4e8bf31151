package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"Format", Format("decode", "short payload"), ErrFormat, KindFormat},
		{"Validation", Validation("split", "bad fraction %v", 1.5), ErrValidation, KindValidation},
		{"IO", IO("create", "/x", os.ErrPermission), ErrIO, KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(tt.err))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	err := Format("decode", "x")
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrIO)
}

func TestIOUnwrap(t *testing.T) {
	err := IO("open", "/missing", os.ErrNotExist)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "/missing")
	assert.Contains(t, err.Error(), "[io] open")
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestWithPath(t *testing.T) {
	err := Format("decode", "truncated").WithPath("a.fbin")
	assert.Equal(t, "[format] decode a.fbin: truncated", err.Error())
}
