package stream

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
)

// DefaultSentinel is the end-of-stream marker appended by the blueprint
// backend. Both ends must agree on it.
const DefaultSentinel = "[[__STREAM_DONE__]]"

// ErrEmptySentinel is returned by NewDecoder when the sentinel is empty.
var ErrEmptySentinel = errors.New("stream: sentinel must not be empty")

// State is the lifecycle state of a Decoder.
type State int

const (
	// StateStreaming accepts chunks. It is the only non-terminal state.
	StateStreaming State = iota
	// StateDone is reached when the sentinel is found or the producer closes.
	StateDone
	// StateErrored is reached when the transport reports a failure.
	StateErrored
	// StateAborted is reached when the caller cancels.
	StateAborted
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome records why a Decoder left StateStreaming. It distinguishes the
// two ways of reaching StateDone.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeSentinel Outcome = "sentinel"
	OutcomeEOF      Outcome = "eof"
	OutcomeAborted  Outcome = "aborted"
	OutcomeErrored  Outcome = "errored"
)

// Handler receives the output of a Decoder. Any callback may be nil.
//
// OnChunk is never called with an empty string. Exactly one of OnError and
// OnComplete is called, once. Callbacks run while the Decoder holds its
// lock and must not call back into the same Decoder.
type Handler struct {
	OnChunk    func(text string)
	OnError    func(err error)
	OnComplete func()
}

// Decoder buffers incoming text and releases it once it is certain that
// no part of it belongs to the sentinel.
//
// After each Feed at most len(sentinel)+utf8.UTFMax-1 bytes stay buffered:
// the release point moves back to a rune boundary, so up to three bytes of
// an incomplete character may be held on top of the sentinel tail. Input
// from Pump is always whole characters, which keeps the bound at
// len(sentinel).
type Decoder struct {
	mu       sync.Mutex
	sentinel string
	buffer   string
	released int
	state    State
	outcome  Outcome
	handler  Handler
	stopper  func() error
}

// NewDecoder creates a Decoder in StateStreaming for the given sentinel.
func NewDecoder(sentinel string, h Handler) (*Decoder, error) {
	if sentinel == "" {
		return nil, ErrEmptySentinel
	}
	return &Decoder{
		sentinel: sentinel,
		handler:  h,
	}, nil
}

// SetStopper installs a best-effort hook that tells the transport to stop
// reading once the sentinel has been seen. Errors from the hook are ignored
// because the logical stream has already ended.
func (d *Decoder) SetStopper(fn func() error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopper = fn
}

// Feed appends a chunk received from the transport and releases whatever
// part of the buffer is safe to hand to OnChunk. Calls after a terminal
// state are ignored.
func (d *Decoder) Feed(chunk string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStreaming {
		return
	}

	d.buffer += chunk

	if i := strings.Index(d.buffer, d.sentinel); i >= 0 {
		// Bytes after the sentinel are discarded.
		content := d.buffer[:i]
		d.buffer = ""
		d.emit(content)
		d.terminate(StateDone, OutcomeSentinel)
		d.complete()
		if d.stopper != nil {
			_ = d.stopper()
		}
		return
	}

	// The last len(sentinel) bytes may be the start of a sentinel that is
	// still in flight.
	safeLen := d.safeLen()
	if safeLen > 0 {
		out := d.buffer[:safeLen]
		d.buffer = d.buffer[safeLen:]
		d.emit(out)
	}
}

// Finish flushes the remaining buffer after the producer closed the stream
// without sending the sentinel. This is a normal completion.
func (d *Decoder) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStreaming {
		return
	}

	rest := d.buffer
	d.buffer = ""
	d.emit(rest)
	d.terminate(StateDone, OutcomeEOF)
	d.complete()
}

// Abort stops the decoder on caller cancellation. Buffered text that has not
// been released is dropped and OnComplete is called; OnError is not.
func (d *Decoder) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStreaming {
		return
	}

	d.buffer = ""
	d.terminate(StateAborted, OutcomeAborted)
	d.complete()
}

// Fail reports a transport failure through OnError. OnComplete is not
// called.
func (d *Decoder) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStreaming {
		return
	}

	d.buffer = ""
	d.terminate(StateErrored, OutcomeErrored)
	if d.handler.OnError != nil {
		d.handler.OnError(err)
	}
}

// State returns the current lifecycle state.
func (d *Decoder) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Outcome returns why the decoder terminated, or OutcomeNone while it is
// still streaming.
func (d *Decoder) Outcome() Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome
}

// Sentinel returns the end-of-stream marker this decoder looks for.
func (d *Decoder) Sentinel() string {
	return d.sentinel
}

// Buffered returns the number of bytes held back waiting for more input.
// See Decoder for the upper bound.
func (d *Decoder) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffer)
}

// Released returns the total number of content bytes handed to OnChunk so
// far. The sentinel and anything after it are never counted.
func (d *Decoder) Released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// safeLen returns how many leading bytes of the buffer can be released.
// The cut is moved back to a rune boundary so a multi-byte character is
// never split between two chunks; this only ever holds back more.
func (d *Decoder) safeLen() int {
	n := len(d.buffer) - len(d.sentinel)
	if n <= 0 {
		return 0
	}
	for back := 0; back < utf8.UTFMax-1 && n > 0 && !utf8.RuneStart(d.buffer[n]); back++ {
		n--
	}
	return n
}

func (d *Decoder) emit(text string) {
	if text == "" {
		return
	}
	d.released += len(text)
	if d.handler.OnChunk != nil {
		d.handler.OnChunk(text)
	}
}

func (d *Decoder) complete() {
	if d.handler.OnComplete != nil {
		d.handler.OnComplete()
	}
}

func (d *Decoder) terminate(s State, o Outcome) {
	d.state = s
	d.outcome = o
}
