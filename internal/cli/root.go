// Package cli wires the probe harness into a cobra command tree.
//
// Exit code conventions, stable within one binary:
//
//	0 - success (probe all-OK, or suite fully passed)
//	1 - suite failure (one or more scenarios failed)
//	2 - command error (bad arguments, missing paths)
//	3 - probe ExpectedError (a load-bearing call failed against the OS)
//	4 - probe UnexpectedValue (a value violated the documented contract)
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the posixprobe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posixprobe",
		Short: "Conformance probes for POSIX descriptor duplication and signal delivery",
		Long: `posixprobe runs small conformance probes against the operating system's
fcntl/open/creat and signal/raise interfaces, classifying each call as
conformant, an expected failure, or an unexpected value.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSuiteCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
