package flow

// Cursor tracks how far one filter has progressed on one channel: Next counts
// bytes already inspected, Fwd bytes already released downstream. The host
// owns both and keeps 0 <= Fwd <= Next <= channel length.
type Cursor struct {
	Next int
	Fwd  int
}

// Filter is the per-stream attach record the host keeps for each filter
// instance. It carries no filter state beyond the FilterConfig reference; all
// variability is recomputed per hook call.
type Filter struct {
	FC      *FilterConfig
	Backend bool

	// PreAnalyzers and PostAnalyzers select the stages for which the filter
	// wants the pre/post analysis hooks invoked.
	PreAnalyzers  AnalyzerMask
	PostAnalyzers AnalyzerMask

	cursors [2]Cursor
	data    [2]bool
}

// NewFilter creates an attach record bound to a filter declaration.
func NewFilter(fc *FilterConfig, backend bool) *Filter {
	return &Filter{FC: fc, Backend: backend}
}

func chnIdx(chn *Channel) int {
	if chn.IsResponse() {
		return 1
	}
	return 0
}

// Cursor returns the filter's cursor pair for the given channel.
func (f *Filter) Cursor(chn *Channel) *Cursor {
	return &f.cursors[chnIdx(chn)]
}

// RegisterData marks the filter as a data filter on the given channel, so the
// host routes data and forward hooks to it.
func (f *Filter) RegisterData(chn *Channel) {
	f.data[chnIdx(chn)] = true
}

// IsDataFilter reports whether the filter registered for data on the channel.
func (f *Filter) IsDataFilter(chn *Channel) bool {
	return f.data[chnIdx(chn)]
}

// Type returns "frontend" or "backend" depending on where the filter was
// declared.
func (f *Filter) Type() string {
	if f.Backend {
		return "backend"
	}
	return "frontend"
}
