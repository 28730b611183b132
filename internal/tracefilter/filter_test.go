package tracefilter

import (
	"bytes"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/flowtrace/pkg/flow"
)

type testWaker struct {
	woken bool
}

func (w *testWaker) Wake() { w.woken = true }

// newTestFilter parses a trace declaration, silences its output, installs a
// fixed draw sequence and runs Init against a fresh pipeline.
func newTestFilter(t *testing.T, tokens []string, draws []int) (*flow.Pipeline, *flow.FilterConfig, *Config) {
	t.Helper()
	px := &flow.Pipeline{ID: "front", Mode: flow.ModeTCP}
	fc, err := newTestRegistry(t).Parse(tokens, px)
	require.NoError(t, err)

	conf := fc.Conf.(*Config)
	conf.SetEmitter(NewEmitter(io.Discard))
	if draws != nil {
		conf.SetRandSource(&seqSource{draws: draws})
	}
	require.NoError(t, fc.Hooks.Init(px, fc))
	return px, fc, conf
}

func newTestStream(px *flow.Pipeline) (*flow.Stream, *testWaker) {
	s := flow.NewStream(px, 64)
	w := &testWaker{}
	s.SetWaker(w)
	return s, w
}

func TestInitComposesDefaultName(t *testing.T) {
	_, fc, conf := newTestFilter(t, []string{"trace"}, nil)

	assert.Equal(t, "TRACE/front", conf.Name())
	assert.True(t, fc.NeedBlockMessages)
}

func TestInitAppendsPipelineToExplicitName(t *testing.T) {
	_, _, conf := newTestFilter(t, []string{"trace", "name", "edge"}, nil)

	assert.Equal(t, "edge/front", conf.Name())
}

func TestInitRecomposesExistingName(t *testing.T) {
	px, fc, conf := newTestFilter(t, []string{"trace"}, nil)
	require.Equal(t, "TRACE/front", conf.Name())

	// a second init finds the composed name already set and treats it like
	// an explicit one, appending the pipeline id again
	require.NoError(t, fc.Hooks.Init(px, fc))
	assert.Equal(t, "TRACE/front/front", conf.Name())
}

func TestInitNamesChainedInstances(t *testing.T) {
	px := &flow.Pipeline{ID: "front", Mode: flow.ModeTCP}
	reg := newTestRegistry(t)

	first, err := reg.Parse([]string{"trace"}, px)
	require.NoError(t, err)
	second, err := reg.Parse([]string{"trace", "name", "inner"}, px)
	require.NoError(t, err)

	for _, fc := range []*flow.FilterConfig{first, second} {
		fc.Conf.(*Config).SetEmitter(NewEmitter(io.Discard))
		require.NoError(t, fc.Hooks.Init(px, fc))
	}

	assert.Equal(t, "TRACE/front", first.Conf.(*Config).Name())
	assert.Equal(t, "inner/front", second.Conf.(*Config).Name())
}

func TestDeinitIdempotent(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace"}, nil)

	fc.Hooks.Deinit(px, fc)
	assert.Nil(t, fc.Conf)
	// a second deinit must not panic on the released config
	fc.Hooks.Deinit(px, fc)
}

func TestRawDataWakesOnPartialConsume(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace", "random-parsing"}, []int{3})
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)
	s.Req.Buf.Write([]byte("12345678"))

	ret := fc.Hooks.RawData(s, f, s.Req)

	assert.Equal(t, 3, ret)
	assert.True(t, w.woken, "withholding bytes must request a wake-up")
}

func TestRawDataNoWakeOnFullConsume(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace", "random-parsing"}, []int{8})
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)
	s.Req.Buf.Write([]byte("12345678"))

	ret := fc.Hooks.RawData(s, f, s.Req)

	assert.Equal(t, 8, ret)
	assert.False(t, w.woken, "a full consume needs no reschedule")
}

func TestRawForwardWakesOnPartial(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace", "random-forwarding"}, []int{2})
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)
	s.Req.Buf.Write([]byte("12345678"))

	ret := fc.Hooks.RawForward(s, f, s.Req, 8)

	assert.Equal(t, 2, ret)
	assert.True(t, w.woken)
}

func TestMessageForwardWakesWhileParseLagsForward(t *testing.T) {
	// even a full forward must reschedule when inspected bytes still
	// outrun the forwarded window
	px, fc, _ := newTestFilter(t, []string{"trace"}, nil)
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)
	f.Cursor(s.Req).Next = 10

	msg := flow.NewMessage()
	ret := fc.Hooks.MessageForward(s, f, msg, s.Req, 5)

	assert.Equal(t, 5, ret)
	assert.True(t, w.woken)
}

func TestMessageForwardNoWakeWhenCaughtUp(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace"}, nil)
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)
	f.Cursor(s.Req).Next = 5

	msg := flow.NewMessage()
	ret := fc.Hooks.MessageForward(s, f, msg, s.Req, 5)

	assert.Equal(t, 5, ret)
	assert.False(t, w.woken)
}

func TestMessageDataWakesOnPartial(t *testing.T) {
	px, fc, _ := newTestFilter(t, []string{"trace", "random-parsing"}, []int{1})
	px.Mode = flow.ModeMessage
	s, w := newTestStream(px)
	f := flow.NewFilter(fc, false)

	msg := flow.NewMessage()
	msg.AppendData([]byte("abcdef"))
	s.Req.Msg = msg

	ret := fc.Hooks.MessageData(s, f, msg, s.Req)

	assert.Equal(t, 1, ret)
	assert.True(t, w.woken)
}

func TestMessagePayloadDumpsWindow(t *testing.T) {
	px, fc, conf := newTestFilter(t, []string{"trace", "hexdump"}, nil)
	var out bytes.Buffer
	conf.SetEmitter(NewEmitter(&out))
	s, _ := newTestStream(px)
	f := flow.NewFilter(fc, false)

	msg := flow.NewMessage()
	msg.AppendData([]byte("0123456789abcdef"))

	ret := fc.Hooks.MessagePayload(s, f, msg, s.Req, 0, 16)

	assert.Equal(t, 16, ret)
	assert.Contains(t, out.String(),
		"\t0x000000: 30 31 32 33 34 35 36 37   38 39 61 62 63 64 65 66   |0123456789abcdef|\n")
}

func TestEmitterLineFormat(t *testing.T) {
	var out bytes.Buffer
	em := NewEmitter(&out)

	em.Linef("TRACE/front", "filter initialized [read random=%t - fwd random=%t - hexdump=%t]",
		true, false, true)

	assert.Regexp(t,
		regexp.MustCompile(`^\d+\.\d{6} \[TRACE/front         \] filter initialized \[read random=true - fwd random=false - hexdump=true\]\n$`),
		out.String())
}

func TestEmitterStreamPrefix(t *testing.T) {
	px := &flow.Pipeline{ID: "front", Mode: flow.ModeTCP}
	s := flow.NewStream(px, 16)
	var out bytes.Buffer
	em := NewEmitter(&out)

	em.Streamf("TRACE/front", s, "%-25s", "stream_start")

	assert.Regexp(t,
		regexp.MustCompile(`\[strm [0-9a-f]{8}\([0-9a-f]+\) 0x[0-9a-f]{8} 0x[0-9a-f]{8}\] stream_start {13}\n$`),
		out.String())
}

func TestEmitterStreamlessPrefix(t *testing.T) {
	var out bytes.Buffer
	em := NewEmitter(&out)

	em.Streamf("n", nil, "%-25s", "check_timeouts")

	assert.Contains(t, out.String(), "[strm -(ffffffff) 0x00000000 0x00000000] check_timeouts")
}

func TestHeaderIterationStopsAtEOH(t *testing.T) {
	px, fc, conf := newTestFilter(t, []string{"trace"}, nil)
	var out bytes.Buffer
	conf.SetEmitter(NewEmitter(&out))
	s, _ := newTestStream(px)
	f := flow.NewFilter(fc, false)

	msg := flow.NewMessage()
	msg.Append(flow.BlockHeader, []byte("host"), []byte("example.test"))
	msg.Append(flow.BlockEOH, nil, nil)
	msg.Append(flow.BlockTrailer, []byte("hidden"), []byte("no"))

	fc.Hooks.MessageHeaders(s, f, msg, s.Req)

	assert.Contains(t, out.String(), "\thost: example.test")
	assert.NotContains(t, out.String(), "hidden")
}
