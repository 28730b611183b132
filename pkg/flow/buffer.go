package flow

// Buffer is a fixed-capacity ring of bytes backing one channel. Logical
// content may wrap past the physical end, so contiguous reads are limited to
// ContigData bytes before continuing from the physical origin.
type Buffer struct {
	data []byte
	head int
	size int
}

// NewBuffer creates an empty ring buffer with the given physical capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the physical capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the logical amount of readable data.
func (b *Buffer) Len() int { return b.size }

// Free returns the remaining writable space.
func (b *Buffer) Free() int { return len(b.data) - b.size }

// ContigData returns how many bytes can be read contiguously from the head
// before the read position wraps to the physical origin.
func (b *Buffer) ContigData() int {
	c := len(b.data) - b.head
	if c > b.size {
		c = b.size
	}
	return c
}

// Head returns the slice starting at the current read position and ending at
// the physical end of the buffer. Only the first ContigData bytes hold data.
func (b *Buffer) Head() []byte { return b.data[b.head:] }

// Orig returns the backing slice from the physical origin. Wrapped content
// continues there once the contiguous part is exhausted.
func (b *Buffer) Orig() []byte { return b.data }

// Write appends up to len(p) bytes at the tail and returns the amount stored.
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		n = free
	}
	tail := (b.head + b.size) % len(b.data)
	c := copy(b.data[tail:], p[:n])
	if c < n {
		copy(b.data, p[c:n])
	}
	b.size += n
	return n
}

// Skip releases n bytes from the head, advancing the read position.
func (b *Buffer) Skip(n int) {
	if n > b.size {
		n = b.size
	}
	b.head = (b.head + n) % len(b.data)
	b.size -= n
	if b.size == 0 {
		b.head = 0
	}
}

// Peek copies up to len(dst) readable bytes into dst without consuming them,
// joining the two physical segments, and returns the amount copied.
func (b *Buffer) Peek(dst []byte) int {
	n := len(dst)
	if n > b.size {
		n = b.size
	}
	block1 := n
	if c := b.ContigData(); block1 > c {
		block1 = c
	}
	copy(dst, b.data[b.head:b.head+block1])
	copy(dst[block1:], b.data[:n-block1])
	return n
}
