package probe

import (
	"errors"

	"github.com/The-Jat/posixprobe/internal/outcome"
)

// Probe process exit statuses. These are stable within one binary and are
// the contract the driver reads; 1 and 2 are left to the suite-level
// conventions (suite failure and command error).
const (
	ExitOK              = 0 // every classification was OK
	ExitExpectedError   = 3 // a load-bearing call failed against the OS
	ExitUnexpectedValue = 4 // a value violated the documented contract
)

// ExitCode maps a classification to the probe exit status.
func ExitCode(class outcome.Classification) int {
	switch class {
	case outcome.ExpectedError:
		return ExitExpectedError
	case outcome.UnexpectedValue:
		return ExitUnexpectedValue
	default:
		return ExitOK
	}
}

// ExitCodeForError maps a probe run error to the exit status.
// Non-failure errors (context cancellation, runtime trouble) report as
// ExpectedError: the run failed against its environment, not its contract.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitOK
	}
	var fe *FailureError
	if errors.As(err, &fe) {
		return ExitCode(fe.Class)
	}
	return ExitExpectedError
}

// ClassificationForExit maps a probe exit status back to the most severe
// classification the probe saw. The second return is false for statuses
// outside the probe convention (e.g. a crash or a driver kill).
func ClassificationForExit(code int) (outcome.Classification, bool) {
	switch code {
	case ExitOK:
		return outcome.OK, true
	case ExitExpectedError:
		return outcome.ExpectedError, true
	case ExitUnexpectedValue:
		return outcome.UnexpectedValue, true
	default:
		return outcome.OK, false
	}
}
