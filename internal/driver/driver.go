// Package driver runs probes as isolated processes and interprets their
// exit statuses.
//
// Each probe runs in its own process so a misbehaving one cannot disturb
// the rest of the suite. The driver owns the per-probe timeout: the harness
// itself never bounds a hang, a non-conformant implementation that fails to
// deliver a signal is simply killed here when the deadline expires.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/The-Jat/posixprobe/internal/outcome"
	"github.com/The-Jat/posixprobe/internal/probe"
)

// DefaultTimeout bounds a single probe run unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// Config configures a Driver.
type Config struct {
	// Bin is the probe binary; the driver invokes "<bin> run <name>".
	Bin string

	// WorkDir, when set, is passed to the probe as its fixture directory.
	WorkDir string

	// Timeout bounds one probe run. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives structured run records. Nil discards them.
	Logger *slog.Logger

	// Tokens generates run identifiers. Nil means UUIDv7.
	Tokens TokenGenerator
}

// Driver spawns probe processes and collects their outcomes.
type Driver struct {
	bin     string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
	tokens  TokenGenerator
}

// New creates a Driver. Bin is required.
func New(cfg Config) (*Driver, error) {
	if cfg.Bin == "" {
		return nil, fmt.Errorf("driver: probe binary is required")
	}
	d := &Driver{
		bin:     cfg.Bin,
		workDir: cfg.WorkDir,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		tokens:  cfg.Tokens,
	}
	if d.timeout == 0 {
		d.timeout = DefaultTimeout
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.tokens == nil {
		d.tokens = UUIDv7Generator{}
	}
	return d, nil
}

// Outcome is what the driver learned from one probe process.
type Outcome struct {
	// RunID identifies this run in history and logs.
	RunID string `json:"run_id"`

	// Probe is the probe name.
	Probe string `json:"probe"`

	// ExitCode is the raw process exit status; -1 when killed.
	ExitCode int `json:"exit_code"`

	// Classification is the verdict encoded in the exit status.
	// Meaningful only when Conclusive is true.
	Classification outcome.Classification `json:"-"`

	// Conclusive is false when the exit status falls outside the probe
	// convention: a crash, a driver kill, or a foreign binary.
	Conclusive bool `json:"conclusive"`

	// TimedOut reports whether the driver killed the probe at the deadline.
	TimedOut bool `json:"timed_out"`

	// Lines is the captured stdout trace, one entry per line.
	Lines []string `json:"lines"`

	// Stderr is the captured stderr, kept for diagnostics only.
	Stderr string `json:"stderr,omitempty"`

	// StartedAt and Duration time the run.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Pass reports whether the probe conclusively saw only OK classifications.
func (o *Outcome) Pass() bool {
	return o.Conclusive && o.Classification == outcome.OK
}

// RunProbe executes one probe in a fresh process and interprets the result.
// An error is returned only for infrastructure trouble (the process could
// not be started); a failing probe is a valid Outcome, not an error.
func (d *Driver) RunProbe(ctx context.Context, name string) (*Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := []string{"run", name}
	if d.workDir != "" {
		args = append(args, "--workdir", d.workDir)
	}
	cmd := exec.CommandContext(runCtx, d.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	runErr := cmd.Run()
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	out := &Outcome{
		RunID:     d.tokens.Generate(),
		Probe:     name,
		TimedOut:  timedOut,
		Lines:     splitLines(stdout.String()),
		Stderr:    stderr.String(),
		StartedAt: started,
		Duration:  time.Since(started),
	}

	switch {
	case runErr == nil:
		out.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && !timedOut {
			return nil, fmt.Errorf("failed to run probe %q: %w", name, runErr)
		}
		if exitErr != nil {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
	}

	class, known := probe.ClassificationForExit(out.ExitCode)
	out.Classification = class
	out.Conclusive = known && !timedOut

	d.logger.Info("probe run complete",
		"probe", name,
		"run_id", out.RunID,
		"exit_code", out.ExitCode,
		"conclusive", out.Conclusive,
		"timed_out", out.TimedOut,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// splitLines breaks captured stdout into trace lines, dropping the final
// newline. Empty output yields no lines.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
