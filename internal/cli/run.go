package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/The-Jat/posixprobe/internal/probe"
	"github.com/The-Jat/posixprobe/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	WorkDir string
}

// NewRunCommand creates the run command: execute one probe in-process and
// exit with the probe status convention.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <probe>",
		Short: "Run a single conformance probe",
		Long: `Run one probe in this process and report through the exit status.

The stdout trace is diagnostic output for the driver; the verdict is the
exit status:

  0 - every call classified OK
  2 - command error (unknown probe)
  3 - a load-bearing call failed against the OS (expected error)
  4 - a call returned a value outside its documented contract

Examples:
  posixprobe run fd-dup
  posixprobe run signal-round-trip
  posixprobe run fd-dup --workdir /tmp/fixtures`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.WorkDir, "workdir", ".", "directory for probe filesystem fixtures")

	return cmd
}

func runProbe(opts *RunOptions, name string, cmd *cobra.Command) error {
	reg := probe.Builtin()
	p, ok := reg.Get(name)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown probe %q (known: %s)", name, strings.Join(reg.Names(), ", ")))
	}

	sink := &trace.ConsoleSink{W: cmd.OutOrStdout()}
	rt := &probe.Runtime{
		Reporter: probe.NewReporter(sink),
		WorkDir:  opts.WorkDir,
	}

	err := p.Run(cmd.Context(), rt)
	if err == nil {
		return nil
	}

	var fe *probe.FailureError
	if errors.As(err, &fe) {
		return WrapExitError(probe.ExitCodeForError(err), "probe failed", err)
	}
	return WrapExitError(ExitCommandError, "probe run failed", err)
}
