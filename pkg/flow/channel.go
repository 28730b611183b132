package flow

// Channel is one direction of a stream's byte flow. It owns the ring buffer
// holding raw bytes and, when the pipeline runs in message mode, the decoded
// block-structured message produced by the host decoder.
type Channel struct {
	Buf *Buffer
	Msg *Message

	// Analysers is the bitmask of stages still pending on this channel.
	Analysers AnalyzerMask

	resp bool
}

// NewChannel creates a channel with a ring buffer of the given capacity.
func NewChannel(resp bool, capacity int) *Channel {
	return &Channel{Buf: NewBuffer(capacity), resp: resp}
}

// IsResponse reports whether this is the response (outbound) direction.
func (c *Channel) IsResponse() bool { return c.resp }

// Label returns the direction name used in diagnostics.
func (c *Channel) Label() string {
	if c.resp {
		return "RESPONSE"
	}
	return "REQUEST"
}

// Visible returns the length of the window a filter may inspect: the decoded
// message span in message mode, the buffered byte count otherwise.
func (c *Channel) Visible() int {
	if c.Msg != nil {
		return c.Msg.Len()
	}
	return c.Buf.Len()
}
