// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TraceLinesTotal counts diagnostic lines emitted by trace filters
	TraceLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowtrace_trace_lines_total",
			Help: "Total number of diagnostic lines emitted",
		},
	)

	// WithheldBytesTotal counts bytes deliberately withheld from the host
	WithheldBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowtrace_withheld_bytes_total",
			Help: "Total number of bytes withheld to exercise host retries",
		},
		[]string{"direction"},
	)

	// WakeupsTotal counts reschedule requests issued after partial amounts
	WakeupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowtrace_wakeups_total",
			Help: "Total number of stream wake-up requests issued",
		},
	)

	// HexdumpBytesTotal counts bytes rendered by the buffer inspector
	HexdumpBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowtrace_hexdump_bytes_total",
			Help: "Total number of bytes rendered as hexdumps",
		},
	)

	// StreamsTotal counts streams the filter attached to
	StreamsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowtrace_streams_total",
			Help: "Total number of streams traced",
		},
	)
)

// Withheld direction label values.
const (
	DirectionParse   = "parse"
	DirectionForward = "forward"
)
