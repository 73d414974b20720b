package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/rights"
)

func TestNotifierRecordsSummaries(t *testing.T) {
	t.Parallel()

	n := New()
	id, err := n.Notify(context.Background(), rights.RunSummary{RunID: "run-1"})
	require.NoError(t, err)
	require.Equal(t, "mem-1", id)

	id, err = n.Notify(context.Background(), rights.RunSummary{RunID: "run-2"})
	require.NoError(t, err)
	require.Equal(t, "mem-2", id)

	got := n.Summaries()
	require.Len(t, got, 2)
	require.Equal(t, "run-1", got[0].RunID)

	// Mutating the copy must not affect the recorded summaries.
	got[0].RunID = "mutated"
	require.Equal(t, "run-1", n.Summaries()[0].RunID)
}
