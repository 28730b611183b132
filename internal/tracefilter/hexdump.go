package tracefilter

import (
	"bytes"
	"fmt"

	"firestige.xyz/flowtrace/pkg/flow"
)

// appendHexdump renders p as 16-byte rows: cumulative offset, hex bytes with
// an extra space after every 8th, blank padding past the end, and an ASCII
// column with '.' for non-printables.
func appendHexdump(b *bytes.Buffer, p []byte) {
	padding := 0
	if len(p)%16 != 0 {
		padding = 16 - len(p)%16
	}
	for i := 0; i < len(p)+padding; i++ {
		if i%16 == 0 {
			fmt.Fprintf(b, "\t0x%06x: ", i)
		} else if i%8 == 0 {
			b.WriteString("  ")
		}

		if i < len(p) {
			fmt.Fprintf(b, "%02x ", p[i])
		} else {
			b.WriteString("   ")
		}

		if i%16 == 15 {
			b.WriteString("  |")
			for j := i - 15; j <= i && j < len(p); j++ {
				c := p[j]
				if c < 0x20 || c > 0x7e {
					c = '.'
				}
				b.WriteByte(c)
			}
			b.WriteString("|\n")
		}
	}
}

// ringHexdump renders n bytes from the buffer's current read position,
// joining the contiguous head segment with the wrapped remainder from the
// physical origin. The buffer is not mutated.
func ringHexdump(buf *flow.Buffer, n int) []byte {
	if n > buf.Len() {
		n = buf.Len()
	}
	p := make([]byte, n)
	block1 := n
	if c := buf.ContigData(); block1 > c {
		block1 = c
	}
	copy(p, buf.Head()[:block1])
	copy(p[block1:], buf.Orig()[:n-block1])

	var b bytes.Buffer
	appendHexdump(&b, p)
	return b.Bytes()
}

// blockHexdump renders up to n bytes of data-block content starting at
// offset into the message. Blocks wholly before offset are skipped; non-data
// blocks inside the window contribute nothing but still advance the walk.
func blockHexdump(msg *flow.Message, offset, n int) []byte {
	var b bytes.Buffer
	for _, blk := range msg.Blocks() {
		if n == 0 {
			break
		}
		sz := blk.Size()
		if offset >= sz {
			offset -= sz
			continue
		}

		v := blk.Value[offset:]
		offset = 0
		if len(v) > n {
			v = v[:n]
		}
		n -= len(v)
		if blk.Type == flow.BlockData {
			appendHexdump(&b, v)
		}
	}
	return b.Bytes()
}
