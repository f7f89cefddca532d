// Package trace provides the injectable event sink probes report through.
//
// Probes never write to the console directly. Every observation goes through
// a Sink as a structured Event, so the driver can capture events instead of
// parsing text while the console rendering preserves the literal witness
// lines whose ordering the signal probe asserts on.
package trace

import (
	"fmt"
	"io"
	"sync"
)

// Event kinds.
const (
	// KindCall is a classified syscall invocation outcome.
	KindCall = "call"

	// KindMessage is a literal trace line emitted by a probe, e.g. the
	// ordering witnesses "Raising..." and "Raised.".
	KindMessage = "message"
)

// Event is a single recorded probe observation.
type Event struct {
	// Seq is the monotonic sequence number assigned by the reporter.
	Seq int64 `json:"seq"`

	// Kind is KindCall or KindMessage.
	Kind string `json:"kind"`

	// Op is the operation name for call events.
	Op string `json:"op,omitempty"`

	// Value is the raw return value for call events.
	Value int `json:"value,omitempty"`

	// Errno is the errno-equivalent for call events, zero when none.
	Errno int `json:"errno,omitempty"`

	// Class is the classification name for call events.
	Class string `json:"class,omitempty"`

	// Message is the literal line for message events.
	Message string `json:"message,omitempty"`
}

// Line renders the event the way it appears on the console.
func (e Event) Line() string {
	if e.Kind == KindMessage {
		return e.Message
	}
	if e.Errno != 0 {
		return fmt.Sprintf("%s: %s (value %d, errno %d)", e.Op, e.Class, e.Value, e.Errno)
	}
	return fmt.Sprintf("%s: %s (value %d)", e.Op, e.Class, e.Value)
}

// Sink records probe events. Implementations must tolerate being called
// from the single probe goroutine only; no locking is required of callers.
type Sink interface {
	Record(Event)
}

// ConsoleSink renders each event as one line on a writer.
// This is the probe-process default, consumed by the driver as the
// diagnostic trace.
type ConsoleSink struct {
	W io.Writer
}

// Record writes the rendered line. Write errors are ignored: the trace is
// diagnostic output and the exit status alone carries the verdict.
func (s *ConsoleSink) Record(ev Event) {
	fmt.Fprintln(s.W, ev.Line())
}

// MemorySink captures events in order for the driver and for tests.
//
// Thread-safety: guarded by a mutex so a test may read while a probe
// goroutine records.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Record appends the event.
func (s *MemorySink) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of the recorded events in record order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Lines returns the rendered line for each recorded event, in order.
// Ordering assertions in scenarios operate on these lines.
func (s *MemorySink) Lines() []string {
	events := s.Events()
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = ev.Line()
	}
	return lines
}

// Tee duplicates events to every sink, in argument order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Record(ev Event) {
	for _, s := range t {
		s.Record(ev)
	}
}
