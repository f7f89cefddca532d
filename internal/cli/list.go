package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/The-Jat/posixprobe/internal/probe"
)

// ProbeInfo describes one registered probe in listings.
type ProbeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered probes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := probe.Builtin()

			infos := make([]ProbeInfo, 0, len(reg.Names()))
			for _, name := range reg.Names() {
				p, _ := reg.Get(name)
				infos = append(infos, ProbeInfo{Name: p.Name, Description: p.Description})
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: infos})
			}

			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", info.Name, info.Description)
			}
			return nil
		},
	}
}
