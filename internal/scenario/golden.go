package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/The-Jat/posixprobe/internal/driver"
)

// Snapshot captures a probe outcome for golden-file comparison.
// Only deterministic fields are included; timings and run IDs vary per run
// and would make every comparison fail.
type Snapshot struct {
	Scenario   string
	Probe      string
	ExitCode   int
	Conclusive bool
	Lines      []string
}

// NewSnapshot builds a Snapshot from a scenario and its probe outcome.
func NewSnapshot(s *Scenario, out *driver.Outcome) Snapshot {
	return Snapshot{
		Scenario:   s.Name,
		Probe:      s.Probe,
		ExitCode:   out.ExitCode,
		Conclusive: out.Conclusive,
		Lines:      out.Lines,
	}
}

// MarshalCanonical serializes the snapshot to canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(map[string]any{
		"scenario":   s.Scenario,
		"probe":      s.Probe,
		"exit_code":  s.ExitCode,
		"conclusive": s.Conclusive,
		"lines":      s.Lines,
	})
}

// AssertGolden compares the snapshot against testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/scenario -update
func AssertGolden(t *testing.T, name string, snap Snapshot) error {
	t.Helper()

	data, err := snap.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
