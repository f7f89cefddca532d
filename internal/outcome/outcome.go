// Package outcome classifies raw syscall results into conformance verdicts.
//
// POSIX interfaces signal failure in two conventional ways: a sentinel
// return value paired with an out-of-band errno, or a silently nonsensical
// value with no error reported at all. The classifier collapses both into a
// single three-way verdict so every probe call site uses the same vocabulary:
//
//   - ExpectedError: the OS reported failure through its documented
//     error-signaling mechanism.
//   - UnexpectedValue: the OS reported success but the value is outside the
//     documented range. This is the genuine defect signal.
//   - OK: conformant success.
package outcome

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Classification is the verdict for a single invocation.
// It is terminal per invocation and drives probe control flow.
type Classification int

const (
	// OK means the call succeeded and the value is within the documented range.
	OK Classification = iota

	// ExpectedError means the call failed through its documented
	// error-signaling mechanism (sentinel return plus errno).
	ExpectedError

	// UnexpectedValue means the call reported success but returned a value
	// the contract forbids, e.g. a negative descriptor with no error set.
	UnexpectedValue
)

// String returns the stable name used in traces and stored runs.
func (c Classification) String() string {
	switch c {
	case OK:
		return "ok"
	case ExpectedError:
		return "expected_error"
	case UnexpectedValue:
		return "unexpected_value"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// ParseClassification maps a stable name back to a Classification.
func ParseClassification(s string) (Classification, error) {
	switch s {
	case "ok":
		return OK, nil
	case "expected_error":
		return ExpectedError, nil
	case "unexpected_value":
		return UnexpectedValue, nil
	default:
		return OK, fmt.Errorf("unknown classification %q", s)
	}
}

// Result is the captured outcome of one syscall invocation.
// Immutable once captured; consumed once by the classifier.
type Result struct {
	// Op is the operation name as it appears in traces ("creat", "open", ...).
	Op string

	// Value is the raw signed return value.
	Value int

	// Errno is the errno-equivalent, zero when no error was reported.
	Errno unix.Errno
}

// Capture builds a Result from a call site's return value and error.
// The errno is extracted from err when it is (or wraps) a unix.Errno.
func Capture(op string, value int, err error) Result {
	res := Result{Op: op, Value: value}
	var errno unix.Errno
	if errors.As(err, &errno) {
		res.Errno = errno
	}
	return res
}

// String renders the result for diagnostics.
func (r Result) String() string {
	if r.Errno != 0 {
		return fmt.Sprintf("%s = %d (errno %d: %v)", r.Op, r.Value, int(r.Errno), r.Errno)
	}
	return fmt.Sprintf("%s = %d", r.Op, r.Value)
}

// Expectation is the pair of predicates a probe author declares per call
// site. The predicates are declared, not derived: only the author knows
// which sentinel and which value range the contract under test documents.
type Expectation struct {
	// Failed holds when the OS reported an error for this call.
	Failed bool

	// OutOfRange holds when the value is outside the documented valid range
	// even though no error was reported.
	OutOfRange bool
}

// Classify maps a Result plus its Expectation into exactly one verdict.
//
// Decision order matters: a reported error always classifies as
// ExpectedError, even if the sentinel value would also be out of range.
func Classify(res Result, exp Expectation) Classification {
	switch {
	case exp.Failed:
		return ExpectedError
	case exp.OutOfRange:
		return UnexpectedValue
	default:
		return OK
	}
}
