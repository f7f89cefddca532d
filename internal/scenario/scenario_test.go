package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validScenario = `name: signal-round-trip
description: SIGUSR1 install, raise and synchronous delivery
probe: signal-round-trip
expect:
  status: ok
assertions:
  - type: trace_order
    lines: ["Raising...", "Signal handler called!", "Raised."]
  - type: trace_count
    line: "Signal handler called!"
    count: 1
`

func TestLoad_Valid(t *testing.T) {
	s, err := Load(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "signal-round-trip", s.Name)
	assert.Equal(t, "signal-round-trip", s.Probe)
	assert.Equal(t, "ok", s.Expect.Status)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertTraceOrder, s.Assertions[0].Type)
	assert.Equal(t, []string{"Raising...", "Signal handler called!", "Raised."}, s.Assertions[0].Lines)
	assert.Equal(t, AssertTraceCount, s.Assertions[1].Type)
	assert.Equal(t, 1, s.Assertions[1].Count)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	// Typos like "assertion:" must fail loudly, not decode to nothing.
	_, err := Parse([]byte(`name: x
description: y
probe: fd-dup
expect:
  status: ok
assertion:
  - type: trace_contains
    line: z
`))
	require.Error(t, err)
}

func TestParse_BadStatusRejected(t *testing.T) {
	_, err := Parse([]byte(`name: x
description: y
probe: fd-dup
expect:
  status: inconclusive
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestParse_MissingNameRejected(t *testing.T) {
	_, err := Parse([]byte(`description: y
probe: fd-dup
expect:
  status: ok
`))
	require.Error(t, err)
}

func TestParse_EmptyProbeRejected(t *testing.T) {
	_, err := Parse([]byte(`name: x
description: y
probe: ""
expect:
  status: ok
`))
	require.Error(t, err)
}

func TestParse_AssertionMissingLineRejected(t *testing.T) {
	_, err := Parse([]byte(`name: x
description: y
probe: fd-dup
expect:
  status: ok
assertions:
  - type: trace_contains
`))
	require.Error(t, err)
}

func TestParse_NegativeCountRejected(t *testing.T) {
	_, err := Parse([]byte(`name: x
description: y
probe: fd-dup
expect:
  status: ok
assertions:
  - type: trace_count
    line: z
    count: -1
`))
	require.Error(t, err)
}

func TestParse_UnknownAssertionTypeRejected(t *testing.T) {
	_, err := Parse([]byte(`name: x
description: y
probe: fd-dup
expect:
  status: ok
assertions:
  - type: trace_matches
    line: z
`))
	require.Error(t, err)
}

func TestParse_NoAssertionsAllowed(t *testing.T) {
	// The exit classification alone can be the whole check.
	s, err := Parse([]byte(`name: x
description: y
probe: fd-open-missing
expect:
  status: expected_error
`))
	require.NoError(t, err)
	assert.Empty(t, s.Assertions)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unclosed"))
	require.Error(t, err)
}
