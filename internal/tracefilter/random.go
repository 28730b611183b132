package tracefilter

import "math/rand"

// RandSource yields the uniform draws behind random-parsing and
// random-forwarding. Determinism is not guaranteed across runs; tests
// substitute a fixed-sequence source.
type RandSource interface {
	// Intn returns a uniform integer in [0, n). n must be > 0.
	Intn(n int) int
}

// processRand draws from the process-global non-cryptographic source, which
// is safe for concurrent use.
type processRand struct{}

func (processRand) Intn(n int) int { return rand.Intn(n) }

var defaultRand RandSource = processRand{}
