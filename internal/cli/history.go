package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/The-Jat/posixprobe/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Limit int
}

// RunRecord is one past probe run, in the shape the history command reports.
type RunRecord struct {
	ID             string `json:"id"`
	Probe          string `json:"probe"`
	StartedAt      string `json:"started_at"`
	DurationMs     int64  `json:"duration_ms"`
	ExitCode       int    `json:"exit_code"`
	Classification string `json:"classification"`
	Conclusive     bool   `json:"conclusive"`
	TimedOut       bool   `json:"timed_out"`
}

// NewHistoryCommand creates the history command, which lists past probe
// runs recorded by suite --db.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [probe]",
		Short: "List past probe runs from a history database",
		Long: `List probe runs recorded by a previous "suite --db" invocation, newest
first. An optional probe name restricts the listing to that probe.

Examples:
  posixprobe history --db history.db
  posixprobe history signal-round-trip --db history.db --limit 10`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			probeName := ""
			if len(args) == 1 {
				probeName = args[0]
			}
			return runHistory(opts, probeName, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database written by suite --db (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, probeName string, cmd *cobra.Command) error {
	if opts.DB == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	history, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer history.Close()

	runs, err := history.ListRuns(cmd.Context(), probeName, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	records := make([]RunRecord, 0, len(runs))
	for _, r := range runs {
		records = append(records, RunRecord{
			ID:             r.ID,
			Probe:          r.Probe,
			StartedAt:      r.StartedAt.Format("2006-01-02 15:04:05"),
			DurationMs:     r.Duration.Milliseconds(),
			ExitCode:       r.ExitCode,
			Classification: r.Classification,
			Conclusive:     r.Conclusive,
			TimedOut:       r.TimedOut,
		})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: records})
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range records {
		verdict := r.Classification
		if !r.Conclusive {
			verdict = "inconclusive"
			if r.TimedOut {
				verdict = "timeout"
			}
		}
		fmt.Fprintf(w, "%s  %-20s  exit %d  %-16s  %dms\n",
			r.StartedAt, r.Probe, r.ExitCode, verdict, r.DurationMs)
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(records))
	return nil
}
