package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/The-Jat/posixprobe/internal/driver"
	"github.com/The-Jat/posixprobe/internal/scenario"
	"github.com/The-Jat/posixprobe/internal/store"
)

// SuiteOptions holds flags for the suite command.
type SuiteOptions struct {
	*RootOptions
	Bin     string        // probe binary; defaults to this executable
	WorkDir string        // fixture directory passed to probes
	DB      string        // optional run-history database
	Timeout time.Duration // per-probe timeout
	Filter  string        // scenario filter (glob pattern)
	Update  bool          // regenerate golden files
}

// ScenarioOutcome holds the result of one scenario for reporting.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Probe  string   `json:"probe,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult holds the overall suite result.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewSuiteCommand creates the suite command: the driver that spawns each
// probe as an isolated process and aggregates pass/fail.
func NewSuiteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suite <scenarios-dir>",
		Short: "Run a scenario suite against isolated probe processes",
		Long: `Run every scenario in a directory. Each scenario's probe runs in its
own process; the driver reads the verdict from the exit status and checks
the captured trace against the scenario's assertions.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (invalid paths, etc.)

Examples:
  posixprobe suite ./scenarios
  posixprobe suite ./scenarios --filter "fd-*"
  posixprobe suite ./scenarios --update
  posixprobe suite ./scenarios --db history.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bin, "bin", "", "probe binary (default: this executable)")
	cmd.Flags().StringVar(&opts.WorkDir, "workdir", "", "fixture directory passed to probes")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record run history to this SQLite database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", driver.DefaultTimeout, "per-probe timeout")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runSuite(opts *SuiteOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputSuiteJSON(cmd, SuiteResult{Scenarios: []ScenarioOutcome{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	d, err := newSuiteDriver(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure driver", err)
	}

	var history *store.Store
	if opts.DB != "" {
		history, err = store.Open(opts.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer history.Close()
	}

	result := SuiteResult{
		Scenarios: make([]ScenarioOutcome, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sc := runScenarioFile(cmd.Context(), d, history, opts, file, cmd)
		result.Scenarios = append(result.Scenarios, sc)
		if sc.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputSuiteJSON(cmd, result)
	}
	return outputSuiteText(cmd, result)
}

func newSuiteDriver(opts *SuiteOptions, cmd *cobra.Command) (*driver.Driver, error) {
	bin := opts.Bin
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("cannot locate own executable: %w", err)
		}
		bin = exe
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}

	return driver.New(driver.Config{
		Bin:     bin,
		WorkDir: opts.WorkDir,
		Timeout: opts.Timeout,
		Logger:  logger,
	})
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenarioFile executes a single scenario file and returns its outcome.
func runScenarioFile(ctx context.Context, d *driver.Driver, history *store.Store,
	opts *SuiteOptions, file string, cmd *cobra.Command) ScenarioOutcome {
	w := cmd.OutOrStdout()

	s, err := scenario.Load(file)
	if err != nil {
		return failScenario(opts, w, filepath.Base(file), "", fmt.Sprintf("failed to load scenario: %v", err))
	}

	out, err := d.RunProbe(ctx, s.Probe)
	if err != nil {
		return failScenario(opts, w, s.Name, s.Probe, fmt.Sprintf("failed to run probe: %v", err))
	}

	if history != nil {
		if err := recordOutcome(ctx, history, out); err != nil {
			// History is a convenience; a write failure must not flip the verdict.
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to record run: %v\n", err)
		}
	}

	res := s.Evaluate(out)

	if opts.Update {
		if err := updateGoldenFile(s, out, file); err != nil {
			return failScenario(opts, w, s.Name, s.Probe, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if opts.Format != "json" {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		}
		return ScenarioOutcome{Name: s.Name, Probe: s.Probe, Pass: true}
	}

	goldenPath := goldenFilePath(file)
	if _, statErr := os.Stat(goldenPath); statErr == nil {
		match, cmpErr := compareWithGolden(s, out, goldenPath)
		if cmpErr != nil {
			res.Pass = false
			res.Errors = append(res.Errors, fmt.Sprintf("golden comparison failed: %v", cmpErr))
		} else if !match {
			res.Pass = false
			res.Errors = append(res.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	if res.Pass {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		}
		return ScenarioOutcome{Name: s.Name, Probe: s.Probe, Pass: true}
	}

	if opts.Format != "json" {
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range res.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	return ScenarioOutcome{Name: s.Name, Probe: s.Probe, Pass: false, Errors: res.Errors}
}

func failScenario(opts *SuiteOptions, w io.Writer, name, probeName, msg string) ScenarioOutcome {
	if opts.Format != "json" {
		fmt.Fprintf(w, "✗ %s\n", name)
		fmt.Fprintf(w, "  %s\n", msg)
	}
	return ScenarioOutcome{Name: name, Probe: probeName, Pass: false, Errors: []string{msg}}
}

func recordOutcome(ctx context.Context, history *store.Store, out *driver.Outcome) error {
	return history.RecordRun(ctx, store.Run{
		ID:             out.RunID,
		Probe:          out.Probe,
		StartedAt:      out.StartedAt,
		Duration:       out.Duration,
		ExitCode:       out.ExitCode,
		Classification: out.Classification.String(),
		Conclusive:     out.Conclusive,
		TimedOut:       out.TimedOut,
	}, out.Lines)
}

// goldenFilePath returns the golden file path for a scenario file.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current outcome snapshot as the golden file.
func updateGoldenFile(s *scenario.Scenario, out *driver.Outcome, scenarioFile string) error {
	goldenPath := goldenFilePath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := scenario.NewSnapshot(s, out).MarshalCanonical()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the outcome snapshot against the golden file.
func compareWithGolden(s *scenario.Scenario, out *driver.Outcome, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	currentData, err := scenario.NewSnapshot(s, out).MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(goldenData, currentData), nil
}

func outputSuiteJSON(cmd *cobra.Command, result SuiteResult) error {
	status := "ok"
	var cliErr *CLIError
	if result.Failed > 0 {
		status = "error"
		cliErr = &CLIError{
			Code:    "E_SUITE_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: status, Data: result, Error: cliErr}); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputSuiteText(cmd *cobra.Command, result SuiteResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Suite Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
