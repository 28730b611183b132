package flow

import (
	"sync/atomic"

	"github.com/google/uuid"
)

var streamSeq atomic.Uint32

// Waker lets a filter ask the host to reschedule a stream soon. Filters call
// it whenever they withheld bytes, since nothing else will re-present the
// window they declined.
type Waker interface {
	Wake()
}

// Stream is one proxied connection: two channels, the owning frontend
// pipeline and, once assigned, the backend pipeline.
type Stream struct {
	ID   string
	Uniq uint32

	Req *Channel
	Res *Channel

	Front *Pipeline
	Back  *Pipeline

	BackendAssigned bool

	waker Waker
}

// NewStream creates a stream owned by the given frontend pipeline, with ring
// buffers of the given capacity on both channels.
func NewStream(front *Pipeline, capacity int) *Stream {
	return &Stream{
		ID:    uuid.NewString(),
		Uniq:  streamSeq.Add(1),
		Req:   NewChannel(false, capacity),
		Res:   NewChannel(true, capacity),
		Front: front,
	}
}

// SetWaker installs the host's reschedule callback.
func (s *Stream) SetWaker(w Waker) { s.waker = w }

// Wake requests that the host re-invoke this stream's processing soon.
func (s *Stream) Wake() {
	if s.waker != nil {
		s.waker.Wake()
	}
}

// AssignBackend records the backend pipeline selection.
func (s *Stream) AssignBackend(px *Pipeline) {
	s.Back = px
	s.BackendAssigned = true
}

// Pipeline returns the pipeline currently driving the stream: the backend
// once assigned, the frontend before that.
func (s *Stream) Pipeline() *Pipeline {
	if s.BackendAssigned && s.Back != nil {
		return s.Back
	}
	return s.Front
}

// Pos returns "frontend" or "backend" depending on backend assignment.
func (s *Stream) Pos() string {
	if s.BackendAssigned {
		return "backend"
	}
	return "frontend"
}
