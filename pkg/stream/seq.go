package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync/atomic"
)

// ErrConsumed is yielded when a Fragments sequence is ranged over a second
// time. The underlying body can only be read once; retrying needs a new
// request.
var ErrConsumed = errors.New("stream: sequence already consumed")

// StartFunc starts a callback-driven stream and blocks until it ends. It
// must call exactly one of h.OnError or h.OnComplete, or return an error
// without calling either.
type StartFunc func(ctx context.Context, h Handler) error

// Sequence adapts a callback-driven stream into a single-use sequence of
// content fragments.
//
// The context passed to start is cancelled when the consumer breaks out of
// the loop, which aborts the stream. An error is yielded once as ("", err)
// and ends the sequence.
func Sequence(ctx context.Context, start StartFunc) iter.Seq2[string, error] {
	var used atomic.Bool

	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrConsumed)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped, reported := false, false
		err := start(ctx, Handler{
			OnChunk: func(text string) {
				if stopped {
					return
				}
				if !yield(text, nil) {
					stopped = true
					cancel()
				}
			},
			OnError: func(err error) {
				reported = true
				if !stopped {
					stopped = true
					yield("", err)
				}
			},
		})
		if err != nil && !reported && !stopped {
			yield("", err)
		}
	}
}

// Fragments returns a single-use sequence of the content fragments in body.
//
// The sequence ends after the sentinel, at end of input, or when ctx is
// cancelled. A read error is yielded once as ("", err) and ends the
// sequence. Breaking out of the loop stops reading.
func Fragments(ctx context.Context, body io.Reader, sentinel string, opts ...PumpOption) iter.Seq2[string, error] {
	return Sequence(ctx, func(ctx context.Context, h Handler) error {
		d, err := NewDecoder(sentinel, h)
		if err != nil {
			return err
		}
		return Pump(ctx, body, d, opts...)
	})
}

// Collect drains seq and returns the concatenated content. It stops at the
// first error and returns what was read so far alongside it.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for text, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
