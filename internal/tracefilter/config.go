// Package tracefilter implements the trace stream filter: it logs every hook
// the pipeline host invokes, optionally returns random partial
// consume/forward amounts to stress the host's retry and backpressure paths,
// and optionally hex-dumps in-flight data.
package tracefilter

import (
	"fmt"

	"firestige.xyz/flowtrace/pkg/flow"
)

const (
	// Keyword is the configuration keyword that selects this filter.
	Keyword = "trace"

	// filterID identifies the filter on its FilterConfig.
	filterID = "trace filter"

	// namePrefix seeds the display name when no explicit name is configured.
	namePrefix = "TRACE"
)

// Config is the per-pipeline trace filter configuration. It is created at
// configuration-parse time, finalized by Init, and shared read-only across
// every stream and worker of the pipeline afterwards.
type Config struct {
	pipeline *flow.Pipeline
	name     string

	randParsing    bool
	randForwarding bool
	hexdump        bool

	rnd RandSource
	em  *Emitter
}

// Name returns the composed display name.
func (c *Config) Name() string { return c.name }

// SetRandSource substitutes the random source. Call before Init; hosts use
// it to make randomized runs reproducible.
func (c *Config) SetRandSource(r RandSource) { c.rnd = r }

// SetEmitter redirects diagnostic output. Call before Init.
func (c *Config) SetEmitter(em *Emitter) { c.em = em }

func (c *Config) trace(format string, args ...any) {
	c.em.Linef(c.name, format, args...)
}

func (c *Config) strmTrace(s *flow.Stream, format string, args ...any) {
	c.em.Streamf(c.name, s, format, args...)
}

// ParseArgs parses a `trace` filter declaration:
//
//	trace [name <label>] [random-parsing] [random-forwarding] [hexdump]
//
// Options are order-independent after the keyword. An unrecognized token ends
// option scanning and is left for the caller. It satisfies flow.ParseFunc.
func ParseArgs(args []string, cur *int, px *flow.Pipeline, fc *flow.FilterConfig) error {
	pos := *cur
	if pos >= len(args) || args[pos] != Keyword {
		return fmt.Errorf("'%s': keyword expected", Keyword)
	}
	pos++

	conf := &Config{
		pipeline: px,
		rnd:      defaultRand,
		em:       defaultEmitter,
	}

scan:
	for pos < len(args) {
		switch args[pos] {
		case "name":
			if pos+1 >= len(args) {
				return fmt.Errorf("'%s' : '%s' option without value", Keyword, args[pos])
			}
			conf.name = args[pos+1]
			pos++
		case "random-parsing":
			conf.randParsing = true
		case "random-forwarding":
			conf.randForwarding = true
		case "hexdump":
			conf.hexdump = true
		default:
			break scan
		}
		pos++
	}

	*cur = pos
	fc.ID = filterID
	fc.Conf = conf
	fc.Hooks = &Trace{conf: conf}
	return nil
}
