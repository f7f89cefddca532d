package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRun(id string) Run {
	return Run{
		ID:             id,
		Probe:          "fd-dup",
		StartedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Duration:       25 * time.Millisecond,
		ExitCode:       0,
		Classification: "ok",
		Conclusive:     true,
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestRecordRun_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1")
	lines := []string{"creat: ok (value 3)", "fd 3 duped into fd 4"}
	require.NoError(t, st.RecordRun(ctx, run, lines))

	runs, err := st.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Probe, got.Probe)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, run.Duration, got.Duration)
	assert.Equal(t, run.ExitCode, got.ExitCode)
	assert.Equal(t, "ok", got.Classification)
	assert.True(t, got.Conclusive)
	assert.False(t, got.TimedOut)

	gotLines, err := st.TraceLines(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, lines, gotLines)
}

func TestRecordRun_DuplicateIgnored(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1")
	require.NoError(t, st.RecordRun(ctx, run, []string{"original"}))
	require.NoError(t, st.RecordRun(ctx, run, []string{"replayed"}))

	runs, err := st.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	lines, err := st.TraceLines(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"original"}, lines)
}

func TestListRuns_FilterAndLimit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, probeName := range []string{"fd-dup", "signal-round-trip", "fd-dup"} {
		run := sampleRun(string(rune('a' + i)))
		run.Probe = probeName
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, st.RecordRun(ctx, run, nil))
	}

	runs, err := st.ListRuns(ctx, "fd-dup", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)

	runs, err = st.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestTraceLines_UnknownRun(t *testing.T) {
	st := openTestStore(t)

	lines, err := st.TraceLines(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRecordRun_FailedRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-to")
	run.ExitCode = -1
	run.Classification = "ok"
	run.Conclusive = false
	run.TimedOut = true
	require.NoError(t, st.RecordRun(ctx, run, nil))

	runs, err := st.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Conclusive)
	assert.True(t, runs[0].TimedOut)
}
