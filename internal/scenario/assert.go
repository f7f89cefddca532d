package scenario

import (
	"fmt"
	"strings"

	"github.com/The-Jat/posixprobe/internal/driver"
	"github.com/The-Jat/posixprobe/internal/outcome"
)

// AssertionError is returned when a trace assertion fails. It carries the
// full captured trace so a failure report stands on its own.
type AssertionError struct {
	Type     string   // assertion type for categorization
	Expected string   // human-readable expected outcome
	Actual   string   // human-readable actual outcome
	Trace    []string // full captured trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, line := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}
	return buf.String()
}

// Result is the verdict of one scenario against a probe outcome.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when the classification matched and every assertion held.
	Pass bool `json:"pass"`

	// Errors describes each failed expectation. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// Evaluate checks the probe outcome against the scenario's expected
// classification and trace assertions. All failures are collected, not just
// the first, so one run reports everything that is wrong.
func (s *Scenario) Evaluate(out *driver.Outcome) *Result {
	res := &Result{Name: s.Name, Pass: true}
	addError := func(msg string) {
		res.Errors = append(res.Errors, msg)
		res.Pass = false
	}

	if !out.Conclusive {
		detail := fmt.Sprintf("exit status %d is outside the probe convention", out.ExitCode)
		if out.TimedOut {
			detail = "probe was killed at the driver timeout"
		}
		addError(fmt.Sprintf("inconclusive run: %s", detail))
		return res
	}

	want, err := outcome.ParseClassification(s.Expect.Status)
	if err != nil {
		addError(err.Error())
		return res
	}
	if out.Classification != want {
		addError(fmt.Sprintf("expected classification %s, got %s (exit status %d)",
			want, out.Classification, out.ExitCode))
	}

	for i, assertion := range s.Assertions {
		var aerr error
		switch assertion.Type {
		case AssertTraceContains:
			aerr = assertTraceContains(out.Lines, assertion)
		case AssertTraceOrder:
			aerr = assertTraceOrder(out.Lines, assertion)
		case AssertTraceCount:
			aerr = assertTraceCount(out.Lines, assertion)
		default:
			aerr = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if aerr != nil {
			addError(aerr.Error())
		}
	}
	return res
}

// assertTraceContains checks that some trace line contains the target as a
// substring. Substring semantics let scenarios match lines that embed
// run-specific values such as descriptor numbers.
func assertTraceContains(trace []string, assertion Assertion) error {
	for _, line := range trace {
		if strings.Contains(line, assertion.Line) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("a line containing %q", assertion.Line),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the expected lines appear in the given
// order. Lines need not be consecutive; intervening lines are allowed.
func assertTraceOrder(trace []string, assertion Assertion) error {
	positions := make(map[string]int)
	for i, line := range trace {
		for _, expected := range assertion.Lines {
			if line == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, expected := range assertion.Lines {
		if positions[expected] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all lines present: %v", assertion.Lines),
				Actual:   fmt.Sprintf("missing line: %q", expected),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Lines); i++ {
		prev, curr := assertion.Lines[i-1], assertion.Lines[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("lines in order: %v", assertion.Lines),
				Actual: fmt.Sprintf("%q (pos %d) should be before %q (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the line appears exactly Count times.
func assertTraceCount(trace []string, assertion Assertion) error {
	count := 0
	for _, line := range trace {
		if line == assertion.Line {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %q", assertion.Count, assertion.Line),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}
