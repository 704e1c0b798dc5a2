// Package stream decodes sentinel-terminated text streams.
//
// The blueprint backend streams plain text over a long-lived HTTP response
// body and marks the logical end of the stream by appending a fixed marker
// string (the sentinel) instead of using a framed protocol. The marker may
// arrive split across any number of network reads, so the Decoder only
// releases the part of its buffer that cannot be the beginning of a
// partially received sentinel.
//
// Three entry points are provided:
//
//   - Decoder: push-style. The transport calls Feed for every chunk, then
//     Finish, Abort or Fail. Results go to a caller-supplied Handler.
//   - Pump: the transport read loop. It reads an io.Reader through a
//     streaming UTF-8 decoder and drives a Decoder until it terminates.
//   - Fragments: pull-style. A cancellable, finite, single-use iterator of
//     content fragments for use with range-over-func. Sequence builds the
//     same iterator over any callback-driven stream.
//
// A Decoder is created per streaming request and is safe for concurrent use
// by the read loop and a cancelling goroutine.
package stream
