package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Jat/posixprobe/internal/trace"
)

// witnessLines extracts the message events from a recorded trace.
func witnessLines(events []trace.Event) []string {
	var lines []string
	for _, ev := range events {
		if ev.Kind == trace.KindMessage {
			lines = append(lines, ev.Message)
		}
	}
	return lines
}

func TestSignalRoundTrip_Pass(t *testing.T) {
	sink, err := runProbe(t, "signal-round-trip")
	require.NoError(t, err)

	// The three witness lines, in exactly this order, are the oracle for
	// delivery semantics.
	assert.Equal(t,
		[]string{"Raising...", "Signal handler called!", "Raised."},
		witnessLines(sink.Events()),
	)
}

func TestSignalRoundTrip_CallsClassifiedOK(t *testing.T) {
	sink, err := runProbe(t, "signal-round-trip")
	require.NoError(t, err)

	var calls []string
	for _, ev := range sink.Events() {
		if ev.Kind == trace.KindCall {
			calls = append(calls, ev.Op)
			assert.Equal(t, "ok", ev.Class, "op %s", ev.Op)
		}
	}
	assert.Equal(t, []string{"signal", "raise"}, calls)
}

func TestSignalRoundTrip_HandlerStrictlyBetween(t *testing.T) {
	sink, err := runProbe(t, "signal-round-trip")
	require.NoError(t, err)

	pos := map[string]int{}
	for i, line := range witnessLines(sink.Events()) {
		pos[line] = i + 1
	}
	require.NotZero(t, pos["Raising..."])
	require.NotZero(t, pos["Signal handler called!"])
	require.NotZero(t, pos["Raised."])
	assert.Less(t, pos["Raising..."], pos["Signal handler called!"])
	assert.Less(t, pos["Signal handler called!"], pos["Raised."])
}

func TestSignalRoundTrip_ContextCancelled(t *testing.T) {
	// A cancelled context stands in for the driver's kill: the probe
	// returns without reaching the DELIVERED state.
	reg := Builtin()
	p, _ := reg.Get("signal-round-trip")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &trace.MemorySink{}
	rt := &Runtime{Reporter: NewReporter(sink), WorkDir: t.TempDir()}

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, rt) }()

	select {
	case err := <-done:
		// Delivery may still win the race against cancellation; only a
		// non-nil error must be the context's.
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not return after cancellation")
	}
}
