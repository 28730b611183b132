package flow

// Hooks is the full callback surface the host invokes on an attached filter.
// All hooks for a given stream run synchronously on the goroutine that owns
// the stream, never concurrently with each other.
//
// Data hooks return byte amounts. A returned amount lower than the offered
// window means the filter withheld bytes; the filter must then call
// Stream.Wake or the withheld window is never re-presented.
type Hooks interface {
	// Lifecycle, called once per pipeline declaration.
	Init(px *Pipeline, fc *FilterConfig) error
	Deinit(px *Pipeline, fc *FilterConfig)
	Check(px *Pipeline, fc *FilterConfig) error
	InitPerThread(px *Pipeline, fc *FilterConfig) error
	DeinitPerThread(px *Pipeline, fc *FilterConfig)

	// Stream lifetime. Attach returning false opts the filter out of the
	// stream.
	Attach(s *Stream, f *Filter) bool
	Detach(s *Stream, f *Filter)
	StreamStart(s *Stream, f *Filter) error
	StreamSetBackend(s *Stream, f *Filter, be *Pipeline) error
	StreamStop(s *Stream, f *Filter)
	CheckTimeouts(s *Stream, f *Filter)

	// Channel analysis. The boolean result is the continue flag.
	ChannelStartAnalyze(s *Stream, f *Filter, chn *Channel) bool
	ChannelPreAnalyze(s *Stream, f *Filter, chn *Channel, stage AnalyzerMask) bool
	ChannelPostAnalyze(s *Stream, f *Filter, chn *Channel, stage AnalyzerMask) bool
	ChannelEndAnalyze(s *Stream, f *Filter, chn *Channel) bool

	// Decoded message hooks, invoked in message mode only.
	MessageHeaders(s *Stream, f *Filter, msg *Message, chn *Channel) bool
	MessagePayload(s *Stream, f *Filter, msg *Message, chn *Channel, offset, n int) int
	MessageData(s *Stream, f *Filter, msg *Message, chn *Channel) int
	MessageTrailers(s *Stream, f *Filter, msg *Message, chn *Channel) bool
	MessageEnd(s *Stream, f *Filter, msg *Message, chn *Channel) bool
	MessageReset(s *Stream, f *Filter, msg *Message, chn *Channel)
	MessageReply(s *Stream, f *Filter, status int, body []byte)
	MessageForward(s *Stream, f *Filter, msg *Message, chn *Channel, n int) int

	// Raw channel hooks, invoked in TCP mode.
	RawData(s *Stream, f *Filter, chn *Channel) int
	RawForward(s *Stream, f *Filter, chn *Channel, n int) int
}
