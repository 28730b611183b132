package flow

// Mode selects how a pipeline presents channel content to its filters.
type Mode uint8

const (
	// ModeTCP presents raw ring-buffer bytes only.
	ModeTCP Mode = iota
	// ModeMessage additionally presents the block-structured message built by
	// the host decoder.
	ModeMessage
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "tcp", "":
		return ModeTCP, true
	case "message", "msg":
		return ModeMessage, true
	default:
		return ModeTCP, false
	}
}

// Label returns the short mode tag used in diagnostics.
func (m Mode) Label() string {
	if m == ModeMessage {
		return "MSG"
	}
	return "TCP"
}

// Pipeline is the per-connection stream-processing definition owned by the
// host. Filters attached to it share its FilterConfig entries read-only.
type Pipeline struct {
	ID      string
	Mode    Mode
	Filters []*FilterConfig
}

// FilterConfig is one filter declaration on a pipeline: the keyword it was
// parsed from, the hook implementation, and the opaque per-filter
// configuration the parser produced.
type FilterConfig struct {
	ID    string
	Hooks Hooks
	Conf  any

	// NeedBlockMessages is set by filters whose hooks require the
	// block-structured message representation.
	NeedBlockMessages bool
}
