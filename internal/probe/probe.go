// Package probe defines the conformance probes and the reporter they record
// through.
//
// A probe is one self-contained scenario: a sequence of syscall invocations
// with classifier checks interleaved. Probes hold no state between runs and
// share nothing with each other; the driver runs each one in its own
// process and reads the verdict from the exit status.
package probe

import (
	"context"
	"fmt"
	"sort"
)

// Runtime carries what a probe needs while executing.
type Runtime struct {
	// Reporter records every invocation outcome.
	Reporter *Reporter

	// WorkDir is where filesystem fixtures are created. Probes must clean
	// up their fixtures so repeated runs are idempotent.
	WorkDir string
}

// Probe is a single self-contained conformance scenario.
type Probe struct {
	// Name identifies the probe to the driver and the CLI.
	Name string

	// Description is a one-line summary for listings.
	Description string

	// Run executes the scenario. It returns nil when every classification
	// was OK and a *FailureError when a load-bearing call site was not.
	Run func(ctx context.Context, rt *Runtime) error
}

// Registry holds named probes.
type Registry struct {
	probes map[string]Probe
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]Probe)}
}

// Register adds a probe. Duplicate names are an error.
func (r *Registry) Register(p Probe) error {
	if p.Name == "" {
		return fmt.Errorf("probe name is required")
	}
	if p.Run == nil {
		return fmt.Errorf("probe %q: run function is required", p.Name)
	}
	if _, exists := r.probes[p.Name]; exists {
		return fmt.Errorf("probe %q already registered", p.Name)
	}
	r.probes[p.Name] = p
	return nil
}

// Get returns the named probe.
func (r *Registry) Get(name string) (Probe, bool) {
	p, ok := r.probes[name]
	return p, ok
}

// Names returns the registered probe names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the registry of probes compiled into this binary.
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range []Probe{
		fdDupProbe(),
		fdOpenMissingProbe(),
		signalRoundTripProbe(),
	} {
		if err := r.Register(p); err != nil {
			// Built-in names are fixed at compile time; a collision here
			// is a programming error.
			panic(err)
		}
	}
	return r
}
