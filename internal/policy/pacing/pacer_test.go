package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacerZeroIntervalNeverBlocks(t *testing.T) {
	t.Parallel()

	p := New(Config{})
	start := time.Now()
	for i := 0; i < 10; i++ {
		_, err := p.Wait(context.Background())
		require.NoError(t, err)
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerSpacesCalls(t *testing.T) {
	t.Parallel()

	interval := 40 * time.Millisecond
	p := New(Config{SearchInterval: interval})

	_, err := p.Wait(context.Background())
	require.NoError(t, err)

	start := time.Now()
	waited, err := p.Wait(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), interval/2)
	require.Greater(t, waited, time.Duration(0))
}

func TestPacerHonorsContext(t *testing.T) {
	t.Parallel()

	p := New(Config{SearchInterval: time.Hour})
	_, err := p.Wait(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(20*time.Millisecond, cancel)
	defer timer.Stop()

	_, err = p.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
