package integrationtests

import (
	"testing"

	"github.com/specialistvlad/dspgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, p *testutil.Probe, id int32) testutil.ExecutionRecord {
	t.Helper()
	rec, ok := p.Record(id)
	require.True(t, ok, "synth %d never ran", id)
	return rec
}

// requireBefore asserts that synth a finished before synth b started.
func requireBefore(t *testing.T, p *testutil.Probe, a, b int32) {
	t.Helper()
	ra, rb := record(t, p, a), record(t, p, b)
	require.False(t, rb.Start.Before(ra.End), "synth %d started before synth %d finished", b, a)
}

// requireOverlap asserts that two synths ran at the same time.
func requireOverlap(t *testing.T, p *testutil.Probe, a, b int32) {
	t.Helper()
	ra, rb := record(t, p, a), record(t, p, b)
	require.True(t, ra.Start.Before(rb.End) && rb.Start.Before(ra.End), "synths %d and %d did not overlap", a, b)
}
