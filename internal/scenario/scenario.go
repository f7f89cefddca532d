// Package scenario defines the YAML scenario files the suite runs and the
// assertions they make about a probe's captured trace and exit status.
package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Scenario describes one conformance check: which probe to run, the exit
// classification the driver must observe, and assertions over the trace.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario verifies.
	Description string `yaml:"description"`

	// Probe is the registered probe name the driver spawns.
	Probe string `yaml:"probe"`

	// Expect is the required terminal classification.
	Expect Expect `yaml:"expect"`

	// Assertions validate the captured stdout trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect names the classification the probe's exit status must encode.
type Expect struct {
	// Status is "ok", "expected_error" or "unexpected_value".
	Status string `yaml:"status"`
}

// Assertion validates the captured trace lines.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Line is the target line for trace_contains (substring match, since
	// lines may embed run-specific descriptor numbers) and trace_count
	// (exact match).
	Line string `yaml:"line,omitempty"`

	// Lines is the expected order for trace_order (exact matches, not
	// necessarily consecutive).
	Lines []string `yaml:"lines,omitempty"`

	// Count is the exact occurrence count for trace_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// Load reads, schema-validates and parses a scenario YAML file.
// Unknown fields (typos) and schema violations are errors.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	// Structural validation first, against the embedded CUE schema, so the
	// error names the offending field rather than a decode artifact.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Strict decode catches fields the schema's open structs let through.
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &s, nil
}

// validateSchema unifies the decoded document with #Scenario.
func validateSchema(raw map[string]any) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("schema compile: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("schema lookup: %w", err)
	}

	val := cctx.Encode(raw)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return nil
}
