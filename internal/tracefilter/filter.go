package tracefilter

import (
	"firestige.xyz/flowtrace/internal/log"
	"firestige.xyz/flowtrace/internal/metrics"
	"firestige.xyz/flowtrace/pkg/flow"
)

// Trace implements flow.Hooks. One instance is shared by every stream of the
// pipeline; it holds nothing beyond the shared Config, so no locking is
// needed anywhere on the hook path.
type Trace struct {
	conf *Config
}

func modeLabel(s *flow.Stream) string {
	return s.Pipeline().Mode.Label()
}

func wake(s *flow.Stream) {
	metrics.WakeupsTotal.Inc()
	s.Wake()
}

/*
 * Hooks that manage the filter lifecycle (init/check/deinit)
 */

// Init composes the display name and declares the need for block-structured
// messages. A name set at parse time means this is a chained instance, which
// gets the pipeline id appended instead of the default prefix.
func (t *Trace) Init(px *flow.Pipeline, fc *flow.FilterConfig) error {
	conf := t.conf
	if conf.name != "" {
		conf.name = conf.name + "/" + px.ID
	} else {
		conf.name = namePrefix + "/" + px.ID
	}
	fc.NeedBlockMessages = true

	conf.trace("filter initialized [read random=%t - fwd random=%t - hexdump=%t]",
		conf.randParsing, conf.randForwarding, conf.hexdump)
	return nil
}

// Deinit releases the configuration. Safe against repeated calls.
func (t *Trace) Deinit(px *flow.Pipeline, fc *flow.FilterConfig) {
	if t.conf != nil {
		t.conf.trace("filter deinitialized")
		t.conf = nil
	}
	fc.Conf = nil
}

// Check validates cross-references after the full configuration parse. The
// trace filter has no inter-option constraints.
func (t *Trace) Check(px *flow.Pipeline, fc *flow.FilterConfig) error {
	return nil
}

func (t *Trace) InitPerThread(px *flow.Pipeline, fc *flow.FilterConfig) error {
	t.conf.trace("filter initialized for worker %s", log.GoroutineID())
	return nil
}

func (t *Trace) DeinitPerThread(px *flow.Pipeline, fc *flow.FilterConfig) {
	if t.conf != nil {
		t.conf.trace("filter deinitialized for worker %s", log.GoroutineID())
	}
}

/*
 * Hooks to handle start/stop of streams
 */

func (t *Trace) Attach(s *flow.Stream, f *flow.Filter) bool {
	metrics.StreamsTotal.Inc()
	t.conf.strmTrace(s, "%-25s: filter-type=%s", "attach", f.Type())
	return true
}

func (t *Trace) Detach(s *flow.Stream, f *flow.Filter) {
	t.conf.strmTrace(s, "%-25s: filter-type=%s", "detach", f.Type())
}

func (t *Trace) StreamStart(s *flow.Stream, f *flow.Filter) error {
	t.conf.strmTrace(s, "%-25s", "stream_start")
	return nil
}

func (t *Trace) StreamSetBackend(s *flow.Stream, f *flow.Filter, be *flow.Pipeline) error {
	t.conf.strmTrace(s, "%-25s: backend=%s", "stream_set_backend", be.ID)
	return nil
}

func (t *Trace) StreamStop(s *flow.Stream, f *flow.Filter) {
	t.conf.strmTrace(s, "%-25s", "stream_stop")
}

func (t *Trace) CheckTimeouts(s *flow.Stream, f *flow.Filter) {
	t.conf.strmTrace(s, "%-25s", "check_timeouts")
}

/*
 * Hooks to handle channels activity
 */

func (t *Trace) ChannelStartAnalyze(s *flow.Stream, f *flow.Filter, chn *flow.Channel) bool {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"chn_start_analyze", chn.Label(), modeLabel(s), s.Pos())

	f.PreAnalyzers |= flow.AnReqAll | flow.AnResAll
	f.PostAnalyzers |= flow.AnReqAll | flow.AnResAll
	f.RegisterData(chn)
	return true
}

// analyze serves the pre and post hooks; whether the stage bit is still
// pending on the channel tells the two apart.
func (t *Trace) analyze(name string, s *flow.Stream, chn *flow.Channel, stage flow.AnalyzerMask) bool {
	step := "POST"
	if chn.Analysers&stage != 0 {
		step = "PRE"
	}
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - analyzer=%s - step=%s",
		name, chn.Label(), modeLabel(s), s.Pos(), stage.Label(), step)
	return true
}

func (t *Trace) ChannelPreAnalyze(s *flow.Stream, f *flow.Filter, chn *flow.Channel, stage flow.AnalyzerMask) bool {
	return t.analyze("chn_pre_analyze", s, chn, stage)
}

func (t *Trace) ChannelPostAnalyze(s *flow.Stream, f *flow.Filter, chn *flow.Channel, stage flow.AnalyzerMask) bool {
	return t.analyze("chn_post_analyze", s, chn, stage)
}

func (t *Trace) ChannelEndAnalyze(s *flow.Stream, f *flow.Filter, chn *flow.Channel) bool {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"chn_end_analyze", chn.Label(), modeLabel(s), s.Pos())
	return true
}

/*
 * Hooks to filter decoded messages
 */

func (t *Trace) MessageHeaders(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel) bool {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"msg_headers", chn.Label(), modeLabel(s), s.Pos())

	for _, blk := range msg.Blocks() {
		if blk.Type == flow.BlockEOH {
			break
		}
		if blk.Type != flow.BlockHeader {
			continue
		}
		t.conf.strmTrace(s, "\t%s: %s", blk.Name, blk.Value)
	}
	return true
}

func (t *Trace) MessagePayload(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel, offset, n int) int {
	conf := t.conf
	ret := forwardAmount(conf, msg, offset, n)

	conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - offset=%d - len=%d - forward=%d",
		"msg_payload", chn.Label(), modeLabel(s), s.Pos(), offset, n, ret)

	if conf.hexdump {
		metrics.HexdumpBytesTotal.Add(float64(n))
		conf.em.Dump(blockHexdump(msg, offset, n))
	}

	if ret != n {
		metrics.WithheldBytesTotal.WithLabelValues(metrics.DirectionForward).Add(float64(n - ret))
		wake(s)
	}
	return ret
}

func (t *Trace) MessageData(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel) int {
	conf := t.conf
	cur := f.Cursor(chn)
	avail := chn.Visible() - cur.Next
	if avail < 0 {
		avail = 0
	}
	ret := consumeAmount(conf, avail)

	conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - next=%d - fwd=%d - avail=%d - consume=%d",
		"msg_data", chn.Label(), modeLabel(s), s.Pos(), cur.Next, cur.Fwd, avail, ret)

	if ret != avail {
		metrics.WithheldBytesTotal.WithLabelValues(metrics.DirectionParse).Add(float64(avail - ret))
		wake(s)
	}
	return ret
}

func (t *Trace) MessageTrailers(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel) bool {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"msg_trailers", chn.Label(), modeLabel(s), s.Pos())
	return true
}

func (t *Trace) MessageEnd(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel) bool {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"msg_end", chn.Label(), modeLabel(s), s.Pos())
	return true
}

func (t *Trace) MessageReset(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel) {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"msg_reset", chn.Label(), modeLabel(s), s.Pos())
}

func (t *Trace) MessageReply(s *flow.Stream, f *flow.Filter, status int, body []byte) {
	t.conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s)",
		"msg_reply", "-", modeLabel(s), s.Pos())
}

func (t *Trace) MessageForward(s *flow.Stream, f *flow.Filter, msg *flow.Message, chn *flow.Channel, n int) int {
	conf := t.conf
	cur := f.Cursor(chn)
	ret := forwardAmount(conf, nil, 0, n)

	conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - len=%d - next=%d - fwd=%d - forward=%d",
		"msg_forward", chn.Label(), modeLabel(s), s.Pos(), n, cur.Next, cur.Fwd, ret)

	if conf.hexdump {
		metrics.HexdumpBytesTotal.Add(float64(ret))
		conf.em.Dump(ringHexdump(chn.Buf, ret))
	}

	if ret != n || cur.Next != cur.Fwd+ret {
		if ret < n {
			metrics.WithheldBytesTotal.WithLabelValues(metrics.DirectionForward).Add(float64(n - ret))
		}
		wake(s)
	}
	return ret
}

/*
 * Hooks to filter raw channel data
 */

func (t *Trace) RawData(s *flow.Stream, f *flow.Filter, chn *flow.Channel) int {
	conf := t.conf
	cur := f.Cursor(chn)
	avail := chn.Buf.Len() - cur.Next
	if avail < 0 {
		avail = 0
	}
	ret := consumeAmount(conf, avail)

	conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - next=%d - avail=%d - consume=%d",
		"raw_data", chn.Label(), modeLabel(s), s.Pos(), cur.Next, avail, ret)

	if ret != avail {
		metrics.WithheldBytesTotal.WithLabelValues(metrics.DirectionParse).Add(float64(avail - ret))
		wake(s)
	}
	return ret
}

func (t *Trace) RawForward(s *flow.Stream, f *flow.Filter, chn *flow.Channel, n int) int {
	conf := t.conf
	cur := f.Cursor(chn)
	ret := forwardAmount(conf, nil, 0, n)

	conf.strmTrace(s, "%-25s: channel=%-10s - mode=%-5s (%s) - len=%d - fwd=%d - forward=%d",
		"raw_forward", chn.Label(), modeLabel(s), s.Pos(), n, cur.Fwd, ret)

	if conf.hexdump {
		metrics.HexdumpBytesTotal.Add(float64(ret))
		conf.em.Dump(ringHexdump(chn.Buf, ret))
	}

	if ret != n {
		metrics.WithheldBytesTotal.WithLabelValues(metrics.DirectionForward).Add(float64(n - ret))
		wake(s)
	}
	return ret
}
