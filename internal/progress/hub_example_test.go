package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

// tallySink counts events and sums newly stored posts across batches.
type tallySink struct {
	events int
	fresh  int64
}

func (s *tallySink) Consume(_ context.Context, batch []Event) error {
	s.events += len(batch)
	for _, evt := range batch {
		s.fresh += evt.Fresh
	}
	return nil
}

func (s *tallySink) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit walks one keyword pass through the hub: the run starts,
// the keyword finishes, and Close flushes both events to the sink.
func ExampleHub_Emit() {
	sink := &tallySink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, sink)

	hub.Emit(Event{
		RunID: "run-0001",
		TS:    time.Unix(1700000000, 0),
		Stage: StageRunStart,
	})
	hub.Emit(Event{
		RunID:    "run-0001",
		TS:       time.Unix(1700000060, 0),
		Stage:    StageKeywordDone,
		Category: rights.CategoryMaleHealth,
		Keyword:  "男科医院 套路",
		Found:    12,
		Fresh:    7,
		Skipped:  5,
	})
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("events forwarded: %d\n", sink.events)
	fmt.Printf("fresh posts: %d\n", sink.fresh)
	// Output:
	// events forwarded: 2
	// fresh posts: 7
}

// ExampleSink adapts a plain function to the Sink interface and totals the
// duplicates skipped over two keyword passes.
func ExampleSink() {
	var skipped int64
	capture := consumeFunc(func(_ context.Context, batch []Event) error {
		for _, evt := range batch {
			skipped += evt.Skipped
		}
		return nil
	})
	hub := NewHub(Config{MaxBatchEvents: 1}, capture)

	for _, kw := range []string{"医美 退款", "医美 纠纷"} {
		hub.Emit(Event{
			RunID:    "run-0002",
			TS:       time.Unix(1700000300, 0),
			Stage:    StageKeywordDone,
			Category: rights.CategoryMedicalBeauty,
			Keyword:  kw,
			Found:    20,
			Fresh:    11,
			Skipped:  9,
		})
	}
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("duplicates skipped: %d\n", skipped)
	// Output:
	// duplicates skipped: 18
}

type consumeFunc func(context.Context, []Event) error

func (f consumeFunc) Consume(ctx context.Context, batch []Event) error {
	return f(ctx, batch)
}

func (consumeFunc) Close(context.Context) error {
	return nil
}
