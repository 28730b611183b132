package tracefilter

import "firestige.xyz/flowtrace/pkg/flow"

// consumeAmount decides how much of the not-yet-inspected window the filter
// accepts. Passthrough unless random-parsing is enabled; an empty window
// never consumes entropy.
func consumeAmount(conf *Config, avail int) int {
	if avail <= 0 {
		return 0
	}
	if !conf.randParsing {
		return avail
	}
	return conf.rnd.Intn(avail + 1)
}

// forwardAmount decides how much of the next n bytes the filter releases
// downstream. With random-forwarding enabled it draws uniformly in [0, n].
//
// Over a block-structured message the draw is checked against the committed
// window: the contiguous leading data-block bytes past offset, capped at n. A
// draw above that ceiling forwards everything rather than clamping down. The
// raw path has no committed-vs-pending framing, so msg == nil skips the
// ceiling entirely.
func forwardAmount(conf *Config, msg *flow.Message, offset, n int) int {
	if n <= 0 {
		return 0
	}
	if !conf.randForwarding {
		return n
	}
	if msg == nil {
		return conf.rnd.Intn(n + 1)
	}

	ceiling := committedData(msg, offset, n)
	ret := conf.rnd.Intn(n + 1)
	if ret > ceiling {
		return n
	}
	return ret
}

// committedData accumulates the size of the contiguous leading data blocks,
// skipping bytes before offset, capped at budget. The walk stops at the first
// non-data block.
func committedData(msg *flow.Message, offset, budget int) int {
	data := 0
	for _, blk := range msg.Blocks() {
		if blk.Type != flow.BlockData {
			break
		}
		sz := blk.Size()
		if offset >= sz {
			offset -= sz
			continue
		}
		data += sz - offset
		offset = 0
		if data > budget {
			data = budget
			break
		}
	}
	return data
}
