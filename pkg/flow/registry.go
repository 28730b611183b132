package flow

import (
	"fmt"
	"sync"
)

// ParseFunc parses one filter declaration. On entry args[*cur] is the
// registered keyword; on success the implementation fills fc and advances
// *cur past every token it consumed. An unrecognized token ends option
// scanning and is left for the caller.
type ParseFunc func(args []string, cur *int, px *Pipeline, fc *FilterConfig) error

// Registry maps filter keywords to their parsers. The host builds one per
// configuration load by enumerating the available filter factories; there is
// no process-global list.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]ParseFunc
}

// NewRegistry creates an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]ParseFunc)}
}

// Register adds a keyword parser. Registering the same keyword twice is an
// error.
func (r *Registry) Register(keyword string, fn ParseFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parsers[keyword]; exists {
		return fmt.Errorf("filter keyword '%s' already registered", keyword)
	}
	r.parsers[keyword] = fn
	return nil
}

// Lookup returns the parser registered for a keyword.
func (r *Registry) Lookup(keyword string) (ParseFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.parsers[keyword]
	return fn, ok
}

// Parse consumes one filter declaration from args and returns the populated
// FilterConfig. Tokens left unconsumed by the keyword parser are a
// configuration error: a filter line declares exactly one filter.
func (r *Registry) Parse(args []string, px *Pipeline) (*FilterConfig, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("empty filter declaration")
	}
	fn, ok := r.Lookup(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown filter keyword '%s'", args[0])
	}

	fc := &FilterConfig{}
	cur := 0
	if err := fn(args, &cur, px, fc); err != nil {
		return nil, err
	}
	if cur != len(args) {
		return nil, fmt.Errorf("filter '%s': unexpected token '%s'", args[0], args[cur])
	}
	return fc, nil
}
