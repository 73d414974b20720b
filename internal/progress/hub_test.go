package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/rights"
)

// captureSink records every batch it is handed.
type captureSink struct {
	mu  sync.Mutex
	got [][]Event
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, append([]Event(nil), batch...))
	return nil
}

func (s *captureSink) Close(context.Context) error {
	return nil
}

func (s *captureSink) snapshot() [][]Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Event, len(s.got))
	for i, b := range s.got {
		out[i] = append([]Event(nil), b...)
	}
	return out
}

// validEvent builds the smallest event that passes Validate for the stage.
func validEvent(stage Stage) Event {
	evt := Event{
		RunID: "run-sample",
		TS:    time.Now(),
		Stage: stage,
	}
	switch stage {
	case StageKeywordStart, StageKeywordDone, StageKeywordError:
		evt.Category = rights.CategoryMedicalBeauty
		evt.Keyword = "医美 维权"
	case StageMediaSaved, StageMediaFailed:
		evt.Category = rights.CategoryMedicalBeauty
	}
	return evt
}

// TestHubFlushesWhenBatchFills checks a batch goes out the moment it reaches
// MaxBatchEvents, without waiting for the timer.
func TestHubFlushesWhenBatchFills(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{
		BufferSize:     8,
		MaxBatchEvents: 2,
		MaxBatchWait:   time.Minute,
	}, sink)
	t.Cleanup(func() {
		require.NoError(t, hub.Close(context.Background()))
	})

	hub.Emit(validEvent(StageKeywordStart))
	hub.Emit(validEvent(StageKeywordDone))

	require.Eventually(t, func() bool {
		batches := sink.snapshot()
		return len(batches) == 1 && len(batches[0]) == 2
	}, time.Second, 10*time.Millisecond)
}

// TestHubFlushesOnTimer checks a lone event is still delivered once
// MaxBatchWait elapses.
func TestHubFlushesOnTimer(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{
		BufferSize:     4,
		MaxBatchEvents: 10,
		MaxBatchWait:   20 * time.Millisecond,
	}, sink)
	t.Cleanup(func() {
		require.NoError(t, hub.Close(context.Background()))
	})

	hub.Emit(validEvent(StageRunStart))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
}

// TestHubEmitNeverBlocks floods a hub whose channel has no consumer and
// expects every call to return immediately, counting drops instead.
func TestHubEmitNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := &Hub{
		cfg:    Config{},
		events: make(chan Event),
		logger: zap.NewNop(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Emit(validEvent(StageRunStart))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	// The first drop logs and resets the counter, the other 99 accumulate.
	require.EqualValues(t, 99, hub.dropped.Load())
}

// TestHubCloseDeliversBacklog emits fewer events than one batch and checks
// Close hands all of them to the sink before returning.
func TestHubCloseDeliversBacklog(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{
		BufferSize:     16,
		MaxBatchEvents: 100,
		MaxBatchWait:   time.Minute,
	}, sink)

	for i := 0; i < 3; i++ {
		hub.Emit(validEvent(StageMediaSaved))
	}
	require.NoError(t, hub.Close(context.Background()))

	var total int
	for _, batch := range sink.snapshot() {
		total += len(batch)
	}
	require.Equal(t, 3, total)
}

// TestHubDiscardsInvalidEvents ensures malformed events never reach sinks.
func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{
		BufferSize:     4,
		MaxBatchEvents: 1,
		MaxBatchWait:   time.Minute,
	}, sink)

	hub.Emit(Event{TS: time.Now(), Stage: StageRunStart})
	hub.Emit(Event{RunID: "run-sample", TS: time.Now(), Stage: "UNKNOWN"})

	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.snapshot())
}

// TestHubCloseTwice ensures repeat closes wait for shutdown without
// re-running it.
func TestHubCloseTwice(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{}, &captureSink{})
	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
}

// TestHubNilReceiver covers emitters holding an optional, unset hub.
func TestHubNilReceiver(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Emit(validEvent(StageRunStart))
	require.NoError(t, hub.Close(context.Background()))
}
