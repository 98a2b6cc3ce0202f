package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/duxbuse/waryes-sub005/logging"
)

// JSONSink emits newline-delimited structured events.
type JSONSink struct {
	mu     sync.Mutex
	writer *bufio.Writer
	closer io.Closer
}

func NewJSONSink(w io.Writer) *JSONSink {
	sink := &JSONSink{writer: bufio.NewWriter(w)}
	if closer, ok := w.(io.Closer); ok {
		sink.closer = closer
	}
	return sink
}

func (s *JSONSink) Write(event logging.Event) error {
	encoded, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(encoded); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	return s.writer.Flush()
}

func (s *JSONSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
