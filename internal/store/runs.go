package store

import (
	"context"
	"fmt"
	"time"
)

// Run is one recorded probe run.
type Run struct {
	ID             string
	Probe          string
	StartedAt      time.Time
	Duration       time.Duration
	ExitCode       int
	Classification string
	Conclusive     bool
	TimedOut       bool
}

// RecordRun inserts a run and its trace lines in one transaction.
// Duplicate run IDs are silently ignored so a retried suite invocation
// cannot double-record.
func (s *Store) RecordRun(ctx context.Context, run Run, lines []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO probe_runs
		(id, probe, started_at, duration_ms, exit_code, classification, conclusive, timed_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Probe,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.ExitCode,
		run.Classification,
		run.Conclusive,
		run.TimedOut,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already recorded; leave the original trace untouched.
		return tx.Commit()
	}

	for i, line := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trace_lines (run_id, seq, line) VALUES (?, ?, ?)
		`, run.ID, i+1, line); err != nil {
			return fmt.Errorf("record trace line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first. An empty probe name
// matches all probes. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, probeName string, limit int) ([]Run, error) {
	query := `
		SELECT id, probe, started_at, duration_ms, exit_code, classification, conclusive, timed_out
		FROM probe_runs
	`
	var args []any
	if probeName != "" {
		query += " WHERE probe = ?"
		args = append(args, probeName)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.Probe, &started, &durationMS,
			&run.ExitCode, &run.Classification, &run.Conclusive, &run.TimedOut); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TraceLines returns the recorded trace for a run, in order.
func (s *Store) TraceLines(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line FROM trace_lines WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("trace lines: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan trace line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
