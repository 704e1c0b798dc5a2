package observability

import (
	"sync"
	"time"

	"github.com/rhuss/blueprint/pkg/debug"
	"github.com/rhuss/blueprint/pkg/stream"
)

// StreamObserver records stream metrics for one request. It implements
// stream.Observer. Creating it marks the stream active; StreamEnded
// releases it, and later calls are ignored.
type StreamObserver struct {
	operation string
	start     time.Time
	once      sync.Once
}

// NewStreamObserver starts tracking a stream for the given operation.
func NewStreamObserver(operation string) *StreamObserver {
	StreamsActive.Inc()
	return &StreamObserver{
		operation: operation,
		start:     time.Now(),
	}
}

// ChunkReceived adds n delivered content bytes to the operation's byte
// counter.
func (o *StreamObserver) ChunkReceived(n int) {
	StreamBytesTotal.WithLabelValues(o.operation).Add(float64(n))
	debug.Trace("stream", "chunk received", "operation", o.operation, "bytes", n)
}

// StreamEnded records the outcome and duration.
func (o *StreamObserver) StreamEnded(outcome stream.Outcome) {
	o.once.Do(func() {
		StreamsActive.Dec()
		elapsed := time.Since(o.start)
		StreamsTotal.WithLabelValues(o.operation, string(outcome)).Inc()
		StreamDuration.WithLabelValues(o.operation).Observe(elapsed.Seconds())
		debug.Log("stream", "stream ended",
			"operation", o.operation,
			"outcome", outcome,
			"duration", elapsed,
		)
	})
}
