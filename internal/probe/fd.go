package probe

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/The-Jat/posixprobe/internal/outcome"
)

// fdFixture is the file the duplication probe creates in its work directory.
// It is an ephemeral test fixture, removed before and after every run.
const fdFixture = "fcntl.out"

func fdDupProbe() Probe {
	return Probe{
		Name:        "fd-dup",
		Description: "create a file, reopen it, duplicate the descriptor with F_DUPFD",
		Run:         runFDDup,
	}
}

// runFDDup models the descriptor-duplication scenario: creat a fixture,
// lose the descriptor, pull it again with open, then request a duplicate
// via F_DUPFD with minimum target 0.
func runFDDup(ctx context.Context, rt *Runtime) error {
	path := filepath.Join(rt.WorkDir, fdFixture)
	// A leftover fixture from an aborted run must not change this run.
	os.Remove(path)
	defer os.Remove(path)

	fd, err := unix.Creat(path, 0o777)
	if cerr := rt.Reporter.Check(outcome.Capture("creat", fd, err), outcome.Expectation{
		Failed:     err != nil,
		OutOfRange: err == nil && fd < 0,
	}); cerr != nil {
		return cerr
	}
	// Lose the descriptor and pull the file again.
	unix.Close(fd)

	newfd, err := unix.Open(path, unix.O_RDONLY, 0)
	if cerr := rt.Reporter.Check(outcome.Capture("open", newfd, err), outcome.Expectation{
		Failed:     err != nil,
		OutOfRange: err == nil && newfd < 0,
	}); cerr != nil {
		return cerr
	}
	defer unix.Close(newfd)

	dup, err := unix.FcntlInt(uintptr(newfd), unix.F_DUPFD, 0)
	if err == nil && dup >= 0 {
		defer unix.Close(dup)
	}
	// POSIX does not define error semantics for F_DUPFD, so the result is
	// observational: a reported error is recorded but acceptable, and only
	// a negative value with no error raised terminates the probe.
	if oerr := rt.Reporter.Observe(outcome.Capture("fcntl", dup, err), outcome.Expectation{
		Failed:     err != nil,
		OutOfRange: err == nil && dup < 0,
	}); oerr != nil {
		return oerr
	}

	rt.Reporter.Tracef("fd %d duped into fd %d", newfd, dup)
	return nil
}

func fdOpenMissingProbe() Probe {
	return Probe{
		Name:        "fd-open-missing",
		Description: "open a nonexistent path and expect the documented error",
		Run:         runFDOpenMissing,
	}
}

// runFDOpenMissing opens a path that does not exist. The OS must report the
// failure through its documented mechanism, so the probe terminates with
// the ExpectedError status and executes nothing further.
func runFDOpenMissing(ctx context.Context, rt *Runtime) error {
	path := filepath.Join(rt.WorkDir, "no-such-fixture")
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if cerr := rt.Reporter.Check(outcome.Capture("open", fd, err), outcome.Expectation{
		Failed:     err != nil,
		OutOfRange: err == nil && fd < 0,
	}); cerr != nil {
		return cerr
	}
	// The path existed after all; release the descriptor.
	unix.Close(fd)
	return nil
}
