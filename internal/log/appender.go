package log

import (
	"fmt"
	"io"
)

// MultiWriter fans one formatted log line out to every configured appender.
// A failing appender never blocks delivery to the rest; the first failure is
// reported after all writers have seen the line.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}

// Add appends a raw appender destination.
func (m *MultiWriter) Add(w io.Writer) *MultiWriter {
	m.writers = append(m.writers, w)
	return m
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	var firstErr error
	for _, w := range m.writers {
		if _, err := w.Write(p); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("appender write: %w", err)
		}
	}
	return len(p), firstErr
}
