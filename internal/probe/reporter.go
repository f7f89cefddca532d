package probe

import (
	"fmt"

	"github.com/The-Jat/posixprobe/internal/outcome"
	"github.com/The-Jat/posixprobe/internal/testutil"
	"github.com/The-Jat/posixprobe/internal/trace"
)

// Reporter records classified invocation outcomes through a sink and turns
// non-OK classifications into probe-terminating errors.
//
// A reporter is owned by a single probe run and is not safe for concurrent
// use; probes are sequential by construction.
type Reporter struct {
	sink  trace.Sink
	clock *testutil.SeqClock
}

// NewReporter creates a reporter recording to sink.
func NewReporter(sink trace.Sink) *Reporter {
	return &Reporter{
		sink:  sink,
		clock: testutil.NewSeqClock(),
	}
}

// FailureError terminates a probe when a load-bearing call site classified
// as anything other than OK. The cli layer maps it to the probe exit status.
type FailureError struct {
	Result outcome.Result
	Class  outcome.Classification
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Result, e.Class)
}

// Check records the classified result. It returns nil for OK and a
// *FailureError otherwise, so call sites read:
//
//	if err := rt.Reporter.Check(res, exp); err != nil {
//		return err
//	}
func (r *Reporter) Check(res outcome.Result, exp outcome.Expectation) error {
	class := outcome.Classify(res, exp)
	r.record(res, class)
	if class != outcome.OK {
		return &FailureError{Result: res, Class: class}
	}
	return nil
}

// Observe records the classified result for a call site whose failure modes
// the contract under test leaves unspecified. A reported error is recorded
// but does not terminate the probe; only UnexpectedValue does, since a value
// outside the documented range with no error raised is a contract violation
// regardless of how loose the error semantics are.
func (r *Reporter) Observe(res outcome.Result, exp outcome.Expectation) error {
	class := outcome.Classify(res, exp)
	r.record(res, class)
	if class == outcome.UnexpectedValue {
		return &FailureError{Result: res, Class: class}
	}
	return nil
}

// Tracef records a literal trace line, such as the ordering witnesses the
// signal probe emits.
func (r *Reporter) Tracef(format string, args ...any) {
	r.sink.Record(trace.Event{
		Seq:     r.clock.Next(),
		Kind:    trace.KindMessage,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *Reporter) record(res outcome.Result, class outcome.Classification) {
	r.sink.Record(trace.Event{
		Seq:   r.clock.Next(),
		Kind:  trace.KindCall,
		Op:    res.Op,
		Value: res.Value,
		Errno: int(res.Errno),
		Class: class.String(),
	})
}
