package observability

import (
	"testing"

	"github.com/rhuss/blueprint/pkg/stream"
)

func TestStreamObserverLifecycle(t *testing.T) {
	const op = "observer_test"
	baseline := gaugeValue(t, StreamsActive)
	bytesBefore := counterValue(t, StreamBytesTotal, op)
	doneBefore := counterValue(t, StreamsTotal, op, string(stream.OutcomeSentinel))

	obs := NewStreamObserver(op)
	if got := gaugeValue(t, StreamsActive); got != baseline+1 {
		t.Errorf("active streams = %f during stream, want %f", got, baseline+1)
	}

	obs.ChunkReceived(10)
	obs.ChunkReceived(5)
	obs.StreamEnded(stream.OutcomeSentinel)
	obs.StreamEnded(stream.OutcomeErrored)

	if got := gaugeValue(t, StreamsActive); got != baseline {
		t.Errorf("active streams = %f after stream, want %f", got, baseline)
	}
	if got := counterValue(t, StreamBytesTotal, op) - bytesBefore; got != 15 {
		t.Errorf("bytes delta = %f, want 15", got)
	}
	if got := counterValue(t, StreamsTotal, op, string(stream.OutcomeSentinel)) - doneBefore; got != 1 {
		t.Errorf("sentinel outcome delta = %f, want 1", got)
	}
	if got := counterValue(t, StreamsTotal, op, string(stream.OutcomeErrored)); got != 0 {
		t.Errorf("second StreamEnded should be ignored, errored = %f", got)
	}
	if got := histogramCount(t, StreamDuration, op); got != 1 {
		t.Errorf("duration samples = %d, want 1", got)
	}
}

var _ stream.Observer = (*StreamObserver)(nil)
