package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteAndSkip(t *testing.T) {
	b := NewBuffer(8)

	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, 5, b.Write([]byte("hello")))
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 3, b.Free())

	b.Skip(2)
	assert.Equal(t, 3, b.Len())

	dst := make([]byte, 3)
	require.Equal(t, 3, b.Peek(dst))
	assert.Equal(t, "llo", string(dst))
}

func TestBufferWriteClampsToFree(t *testing.T) {
	b := NewBuffer(4)

	assert.Equal(t, 4, b.Write([]byte("abcdef")))
	assert.Equal(t, 0, b.Free())
	assert.Equal(t, 0, b.Write([]byte("x")))
}

func TestBufferWrapAround(t *testing.T) {
	b := NewBuffer(8)
	b.Write([]byte("abcdefgh"))
	b.Skip(5)
	require.Equal(t, 3, b.Write([]byte("ijk")))

	// logical content spans the physical end
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, 3, b.ContigData())

	dst := make([]byte, 6)
	b.Peek(dst)
	assert.Equal(t, "fghijk", string(dst))
}

func TestBufferSkipPastContentResets(t *testing.T) {
	b := NewBuffer(8)
	b.Write([]byte("abc"))
	b.Skip(100)

	assert.Equal(t, 0, b.Len())
	// an empty buffer rewinds so the next write is contiguous
	b.Write([]byte("defgh"))
	assert.Equal(t, 5, b.ContigData())
}

func TestBufferHeadAndOrigSegments(t *testing.T) {
	b := NewBuffer(8)
	b.Write([]byte("abcdefgh"))
	b.Skip(6)
	b.Write([]byte("wxyz"))

	require.Equal(t, 2, b.ContigData())
	assert.Equal(t, "gh", string(b.Head()[:2]))
	assert.Equal(t, "wxyz", string(b.Orig()[:4]))
}
