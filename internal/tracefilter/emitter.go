package tracefilter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"firestige.xyz/flowtrace/internal/metrics"
	"firestige.xyz/flowtrace/pkg/flow"
)

// fieldFilter carries the Config display name into the line formatter.
const fieldFilter = "filter"

// Emitter writes one diagnostic line per hook invocation to the process
// error stream. Lines go through a dedicated logrus logger whose entry
// serialization guarantees concurrent callers never interleave partial
// lines. Emitting has no effect on control flow.
type Emitter struct {
	log *logrus.Logger
	out io.Writer
	mu  sync.Mutex
}

// NewEmitter creates an emitter writing to out.
func NewEmitter(out io.Writer) *Emitter {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&lineFormatter{})
	return &Emitter{log: l, out: out}
}

var defaultEmitter = NewEmitter(os.Stderr)

// lineFormatter renders `<seconds>.<microseconds> [<name, width 20>] <msg>`.
type lineFormatter struct{}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	name, _ := entry.Data[fieldFilter].(string)
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d.%06d [%-20s] %s\n",
		entry.Time.Unix(), entry.Time.Nanosecond()/1000, name, entry.Message)
	return b.Bytes(), nil
}

// Linef emits one line for a pipeline-scoped event.
func (em *Emitter) Linef(name, format string, args ...any) {
	metrics.TraceLinesTotal.Inc()
	em.log.WithField(fieldFilter, name).Infof(format, args...)
}

// Streamf emits one line for a stream-scoped event, embedding the stream
// identity and the two pending-analyzer masks.
func (em *Emitter) Streamf(name string, s *flow.Stream, format string, args ...any) {
	id := "-"
	uniq := ^uint32(0)
	var reqMask, resMask flow.AnalyzerMask
	if s != nil {
		id = shortID(s.ID)
		uniq = s.Uniq
		reqMask = s.Req.Analysers
		resMask = s.Res.Analysers
	}
	prefix := fmt.Sprintf("[strm %s(%x) 0x%08x 0x%08x] ",
		id, uniq, uint32(reqMask), uint32(resMask))

	metrics.TraceLinesTotal.Inc()
	em.log.WithField(fieldFilter, name).Infof(prefix+format, args...)
}

// Dump writes a pre-rendered hexdump block in a single write so concurrent
// emitters cannot interleave inside it.
func (em *Emitter) Dump(p []byte) {
	if len(p) == 0 {
		return
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	em.out.Write(p)
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
