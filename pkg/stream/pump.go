package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultReadSize = 4096

// Observer is notified about stream activity. Implementations are used
// for metrics and debug logging.
type Observer interface {
	// ChunkReceived is called with the number of content bytes the
	// decoder handed to OnChunk. The sentinel is never counted.
	ChunkReceived(n int)
	// StreamEnded is called exactly once when Pump returns.
	StreamEnded(outcome Outcome)
}

type pumpOptions struct {
	readSize    int
	observer    Observer
	errorMapper func(error) error
}

// PumpOption configures Pump.
type PumpOption func(*pumpOptions)

// WithReadSize sets the size of the read buffer. Values <= 0 are ignored.
func WithReadSize(n int) PumpOption {
	return func(o *pumpOptions) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithObserver attaches an Observer to the read loop.
func WithObserver(obs Observer) PumpOption {
	return func(o *pumpOptions) {
		o.observer = obs
	}
}

// WithErrorMapper transforms read errors before they reach OnError.
func WithErrorMapper(fn func(error) error) PumpOption {
	return func(o *pumpOptions) {
		o.errorMapper = fn
	}
}

// Pump reads body until the decoder terminates and feeds every chunk to d
// in arrival order.
//
// Raw bytes go through a streaming UTF-8 decoder first: a leading byte
// order mark is removed and invalid bytes become U+FFFD. Each read is
// decoded as soon as it arrives; only the trailing bytes of a multi-byte
// character that is still incomplete are held until the next read.
//
// End of input calls d.Finish. Cancellation of ctx calls d.Abort and is not
// an error. Any other read error is passed to d.Fail and returned.
// Cancellation is observed between reads; readers tied to ctx (such as an
// HTTP response body) also unblock a pending read.
func Pump(ctx context.Context, body io.Reader, d *Decoder, opts ...PumpOption) error {
	o := pumpOptions{readSize: defaultReadSize}
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer != nil {
		defer func() {
			o.observer.StreamEnded(d.Outcome())
		}()
	}

	reported := d.Released()
	report := func() {
		if o.observer == nil {
			return
		}
		if n := d.Released(); n > reported {
			o.observer.ChunkReceived(n - reported)
			reported = n
		}
	}

	fail := func(err error) error {
		if o.errorMapper != nil {
			err = o.errorMapper(err)
		} else {
			err = fmt.Errorf("reading stream: %w", err)
		}
		d.Fail(err)
		return err
	}

	dec := newTextDecoder()
	buf := make([]byte, o.readSize)

	for {
		if d.State() != StateStreaming {
			return nil
		}
		if ctx.Err() != nil {
			d.Abort()
			return nil
		}

		n, err := body.Read(buf)
		if n > 0 {
			text, derr := dec.decode(buf[:n], false)
			if derr != nil {
				return fail(derr)
			}
			d.Feed(text)
			report()
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				text, derr := dec.decode(nil, true)
				if derr != nil {
					return fail(derr)
				}
				d.Feed(text)
				d.Finish()
				report()
				return nil
			}
			if ctx.Err() != nil {
				d.Abort()
				return nil
			}
			if d.State() != StateStreaming {
				// The stopper closed the body after the sentinel.
				return nil
			}
			return fail(err)
		}
	}
}

// textDecoder runs the UTF-8 transformer over raw reads one at a time.
// Bytes the transformer cannot consume yet are carried into the next call.
type textDecoder struct {
	t     transform.Transformer
	carry []byte
	dst   []byte
}

func newTextDecoder() *textDecoder {
	t := unicode.UTF8BOM.NewDecoder()
	t.Reset()
	return &textDecoder{t: t, dst: make([]byte, defaultReadSize)}
}

func (td *textDecoder) decode(raw []byte, atEOF bool) (string, error) {
	src := raw
	if len(td.carry) > 0 {
		src = append(td.carry, raw...)
		td.carry = nil
	}

	var out []byte
	for {
		nDst, nSrc, err := td.t.Transform(td.dst, src, atEOF)
		out = append(out, td.dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out), nil
		case errors.Is(err, transform.ErrShortSrc):
			td.carry = append([]byte(nil), src...)
			return string(out), nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				td.dst = make([]byte, 2*len(td.dst))
			}
		default:
			return string(out), err
		}
	}
}
