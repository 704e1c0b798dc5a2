package transport

import (
	"errors"
	"io"
	"net/http"
	"sync"
)

// ErrStreamClosed is returned by Write after Close.
var ErrStreamClosed = errors.New("transport: stream closed")

// TextStream writes a plain-text streaming response. Headers are sent on
// the first write; every chunk is flushed immediately so the consumer sees
// it as soon as possible.
type TextStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	started bool
	closed  bool
	written int64
}

// NewTextStream creates a TextStream on w.
func NewTextStream(w http.ResponseWriter) *TextStream {
	return &TextStream{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// SetStreamHeaders sets the headers of a streamed text response. Proxy
// buffering is disabled so chunks are not held back by nginx.
func SetStreamHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
}

// Write sends one chunk and flushes it.
func (s *TextStream) Write(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}

	if !s.started {
		SetStreamHeaders(s.w.Header())
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	n, err := io.WriteString(s.w, chunk)
	s.written += int64(n)
	if err != nil {
		return err
	}
	return s.rc.Flush()
}

// Close marks the stream finished. Headers are sent if nothing was
// written, so an empty stream is still a valid 200 response.
func (s *TextStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		SetStreamHeaders(s.w.Header())
		s.w.WriteHeader(http.StatusOK)
		s.started = true
		return s.rc.Flush()
	}
	return nil
}

// Written returns the number of bytes sent so far.
func (s *TextStream) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
