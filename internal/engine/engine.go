// Package engine implements a minimal cooperative host: it builds pipelines
// from configuration through the filter registry, owns stream lifetime and
// cursors, and re-presents withheld windows when a filter requests a
// wake-up. One goroutine drives one stream.
package engine

import (
	"fmt"
	"strconv"

	"firestige.xyz/flowtrace/internal/config"
	"firestige.xyz/flowtrace/internal/log"
	"firestige.xyz/flowtrace/pkg/flow"
)

// maxDrainRounds bounds the retry loop so a pathological random source
// cannot stall a stream forever.
const maxDrainRounds = 10000

type Engine struct {
	reg     *flow.Registry
	bufSize int
}

func New(reg *flow.Registry, bufSize int) *Engine {
	return &Engine{reg: reg, bufSize: bufSize}
}

// BuildPipeline parses the pipeline's filter lines and runs the filter
// init/check lifecycle.
func (e *Engine) BuildPipeline(pc config.PipelineConfig) (*flow.Pipeline, error) {
	mode, ok := flow.ParseMode(pc.Mode)
	if !ok {
		return nil, fmt.Errorf("pipeline %s: unknown mode %q", pc.ID, pc.Mode)
	}
	px := &flow.Pipeline{ID: pc.ID, Mode: mode}

	for _, line := range pc.Filters {
		fc, err := e.reg.Parse(config.Tokens(line), px)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", pc.ID, err)
		}
		px.Filters = append(px.Filters, fc)
	}

	for _, fc := range px.Filters {
		if err := fc.Hooks.Init(px, fc); err != nil {
			return nil, fmt.Errorf("pipeline %s: filter init: %w", pc.ID, err)
		}
	}
	for _, fc := range px.Filters {
		if err := fc.Hooks.Check(px, fc); err != nil {
			return nil, fmt.Errorf("pipeline %s: filter check: %w", pc.ID, err)
		}
	}

	log.GetLogger().WithField("pipeline", px.ID).Infof("pipeline built with %d filter(s)", len(px.Filters))
	return px, nil
}

// ClosePipeline runs the deinit lifecycle.
func (e *Engine) ClosePipeline(px *flow.Pipeline) {
	for _, fc := range px.Filters {
		fc.Hooks.Deinit(px, fc)
	}
}

// StreamStats summarizes one stream run.
type StreamStats struct {
	BytesIn        int
	BytesForwarded int
	Wakeups        int
	Rounds         int
}

// wakeFlag records a reschedule request for the drain loop.
type wakeFlag struct {
	woken bool
}

func (w *wakeFlag) Wake() { w.woken = true }

// RunStream pushes chunks through a fresh stream of the pipeline, invoking
// the hook surface in host order and honoring wake-up requests until the
// stream drains.
func (e *Engine) RunStream(px *flow.Pipeline, chunks [][]byte) (*StreamStats, error) {
	s := flow.NewStream(px, e.bufSize)
	w := &wakeFlag{}
	s.SetWaker(w)
	stats := &StreamStats{}

	var filters []*flow.Filter
	for _, fc := range px.Filters {
		f := flow.NewFilter(fc, false)
		if fc.Hooks.Attach(s, f) {
			filters = append(filters, f)
		}
	}
	for _, f := range filters {
		if err := f.FC.Hooks.StreamStart(s, f); err != nil {
			return nil, err
		}
	}

	chn := s.Req
	chn.Analysers = flow.AnReqInspectFE | flow.AnReqWaitMsg
	for _, f := range filters {
		f.FC.Hooks.ChannelStartAnalyze(s, f, chn)
	}
	for _, stage := range []flow.AnalyzerMask{flow.AnReqInspectFE, flow.AnReqWaitMsg} {
		for _, f := range filters {
			if f.PreAnalyzers&stage != 0 {
				f.FC.Hooks.ChannelPreAnalyze(s, f, chn, stage)
			}
		}
		chn.Analysers &^= stage
		for _, f := range filters {
			if f.PostAnalyzers&stage != 0 {
				f.FC.Hooks.ChannelPostAnalyze(s, f, chn, stage)
			}
		}
	}

	if px.Mode == flow.ModeMessage {
		e.runMessage(s, chn, filters, chunks, stats, w)
	} else {
		e.runRaw(s, chn, filters, chunks, stats, w)
	}

	for _, f := range filters {
		f.FC.Hooks.ChannelEndAnalyze(s, f, chn)
	}
	for _, f := range filters {
		f.FC.Hooks.StreamStop(s, f)
	}
	for _, f := range filters {
		f.FC.Hooks.Detach(s, f)
	}

	log.GetLogger().WithField("stream", s.ID).
		Infof("stream done: in=%d forwarded=%d wakeups=%d", stats.BytesIn, stats.BytesForwarded, stats.Wakeups)
	return stats, nil
}

func (e *Engine) runRaw(s *flow.Stream, chn *flow.Channel, filters []*flow.Filter,
	chunks [][]byte, stats *StreamStats, w *wakeFlag) {
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			written := chn.Buf.Write(chunk)
			stats.BytesIn += written
			chunk = chunk[written:]
			e.drainRaw(s, chn, filters, stats, w)
			if written == 0 && chn.Buf.Free() == 0 {
				// filters refused every retry; drop the rest
				return
			}
		}
	}
}

// drainRaw re-invokes the data and forward hooks until the window is
// consumed or the filters stop requesting wake-ups.
func (e *Engine) drainRaw(s *flow.Stream, chn *flow.Channel, filters []*flow.Filter,
	stats *StreamStats, w *wakeFlag) {
	if len(filters) == 0 {
		stats.BytesForwarded += chn.Buf.Len()
		chn.Buf.Skip(chn.Buf.Len())
		return
	}

	for round := 0; round < maxDrainRounds; round++ {
		stats.Rounds++
		w.woken = false

		for _, f := range filters {
			if !f.IsDataFilter(chn) {
				continue
			}
			cur := f.Cursor(chn)
			if chn.Buf.Len()-cur.Next > 0 {
				cur.Next += f.FC.Hooks.RawData(s, f, chn)
			}
		}
		for _, f := range filters {
			cur := f.Cursor(chn)
			if pending := cur.Next - cur.Fwd; pending > 0 {
				cur.Fwd += f.FC.Hooks.RawForward(s, f, chn, pending)
			}
		}

		// release what every filter has forwarded
		release := chn.Buf.Len()
		for _, f := range filters {
			if cur := f.Cursor(chn); cur.Fwd < release {
				release = cur.Fwd
			}
		}
		if release > 0 {
			chn.Buf.Skip(release)
			for _, f := range filters {
				cur := f.Cursor(chn)
				cur.Next -= release
				cur.Fwd -= release
			}
			stats.BytesForwarded += release
		}

		if w.woken {
			stats.Wakeups++
			continue
		}
		break
	}
}

func (e *Engine) runMessage(s *flow.Stream, chn *flow.Channel, filters []*flow.Filter,
	chunks [][]byte, stats *StreamStats, w *wakeFlag) {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}

	hdrs := flow.NewMessage()
	hdrs.Append(flow.BlockHeader, []byte("content-length"), []byte(strconv.Itoa(total)))
	hdrs.Append(flow.BlockEOH, nil, nil)
	chn.Msg = hdrs

	for _, f := range filters {
		f.FC.Hooks.MessageHeaders(s, f, hdrs, chn)
	}

	// the decoder releases the header section before payload shows up, so
	// the payload message starts with data blocks and offsets are
	// payload-relative
	msg := flow.NewMessage()
	chn.Msg = msg
	for _, chunk := range chunks {
		msg.AppendData(chunk)
		chn.Buf.Write(chunk)
		stats.BytesIn += len(chunk)
	}

	for round := 0; round < maxDrainRounds; round++ {
		stats.Rounds++
		w.woken = false

		for _, f := range filters {
			if !f.IsDataFilter(chn) {
				continue
			}
			cur := f.Cursor(chn)
			if chn.Visible()-cur.Next > 0 {
				cur.Next += f.FC.Hooks.MessageData(s, f, msg, chn)
			}
		}
		forwarded := msg.Len()
		for _, f := range filters {
			cur := f.Cursor(chn)
			if pending := cur.Next - cur.Fwd; pending > 0 {
				cur.Fwd += f.FC.Hooks.MessagePayload(s, f, msg, chn, cur.Fwd, pending)
			}
			if cur.Fwd < forwarded {
				forwarded = cur.Fwd
			}
		}
		stats.BytesForwarded = forwarded

		if w.woken {
			stats.Wakeups++
			continue
		}
		break
	}

	msg.Append(flow.BlockTrailer, []byte("x-trace-done"), []byte("1"))
	for _, f := range filters {
		f.FC.Hooks.MessageTrailers(s, f, msg, chn)
	}
	msg.Append(flow.BlockEOM, nil, nil)
	for _, f := range filters {
		f.FC.Hooks.MessageEnd(s, f, msg, chn)
	}
}
