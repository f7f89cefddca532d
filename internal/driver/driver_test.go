package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Jat/posixprobe/internal/outcome"
)

// fakeProbeBin writes a shell script that speaks the probe binary's
// "run <name>" convention, so driver behavior is testable without
// compiling a real probe binary.
func fakeProbeBin(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-probe")
	content := "#!/bin/sh\n# $1=run $2=probe name\n" + script + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func newTestDriver(t *testing.T, bin string, timeout time.Duration) *Driver {
	t.Helper()
	d, err := New(Config{
		Bin:     bin,
		Timeout: timeout,
		Tokens:  NewFixedGenerator("run-1", "run-2", "run-3"),
	})
	require.NoError(t, err)
	return d
}

func TestRunProbe_Pass(t *testing.T) {
	bin := fakeProbeBin(t, `echo "Raising..."
echo "Signal handler called!"
echo "Raised."
exit 0`)
	d := newTestDriver(t, bin, time.Minute)

	out, err := d.RunProbe(context.Background(), "signal-round-trip")
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 0, out.ExitCode)
	assert.True(t, out.Conclusive)
	assert.True(t, out.Pass())
	assert.Equal(t, outcome.OK, out.Classification)
	assert.Equal(t, []string{"Raising...", "Signal handler called!", "Raised."}, out.Lines)
}

func TestRunProbe_ExpectedError(t *testing.T) {
	bin := fakeProbeBin(t, `echo "open: expected_error (value -1, errno 2)"
exit 3`)
	d := newTestDriver(t, bin, time.Minute)

	out, err := d.RunProbe(context.Background(), "fd-open-missing")
	require.NoError(t, err)

	assert.Equal(t, 3, out.ExitCode)
	assert.True(t, out.Conclusive)
	assert.False(t, out.Pass())
	assert.Equal(t, outcome.ExpectedError, out.Classification)
}

func TestRunProbe_UnexpectedValue(t *testing.T) {
	bin := fakeProbeBin(t, `exit 4`)
	d := newTestDriver(t, bin, time.Minute)

	out, err := d.RunProbe(context.Background(), "fd-dup")
	require.NoError(t, err)

	assert.True(t, out.Conclusive)
	assert.Equal(t, outcome.UnexpectedValue, out.Classification)
}

func TestRunProbe_ForeignExitStatusInconclusive(t *testing.T) {
	bin := fakeProbeBin(t, `exit 7`)
	d := newTestDriver(t, bin, time.Minute)

	out, err := d.RunProbe(context.Background(), "fd-dup")
	require.NoError(t, err)

	assert.Equal(t, 7, out.ExitCode)
	assert.False(t, out.Conclusive)
	assert.False(t, out.Pass())
}

func TestRunProbe_Timeout(t *testing.T) {
	bin := fakeProbeBin(t, `echo "Raising..."
sleep 10`)
	d := newTestDriver(t, bin, 100*time.Millisecond)

	out, err := d.RunProbe(context.Background(), "signal-round-trip")
	require.NoError(t, err)

	assert.True(t, out.TimedOut)
	assert.False(t, out.Conclusive)
	assert.False(t, out.Pass())
}

func TestRunProbe_MissingBinary(t *testing.T) {
	d := newTestDriver(t, filepath.Join(t.TempDir(), "absent"), time.Minute)

	_, err := d.RunProbe(context.Background(), "fd-dup")
	require.Error(t, err)
}

func TestRunProbe_CapturesStderr(t *testing.T) {
	bin := fakeProbeBin(t, `echo "trace line"
echo "diagnostic" >&2
exit 0`)
	d := newTestDriver(t, bin, time.Minute)

	out, err := d.RunProbe(context.Background(), "fd-dup")
	require.NoError(t, err)

	assert.Equal(t, []string{"trace line"}, out.Lines)
	assert.Equal(t, "diagnostic\n", out.Stderr)
}

func TestNew_BinRequired(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator_Sequence(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"one"}, splitLines("one\n"))
	assert.Equal(t, []string{"one", "two"}, splitLines("one\ntwo\n"))
}
